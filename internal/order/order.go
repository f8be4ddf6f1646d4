// Package order rearranges a batch before stamping. Positions are 1-based
// as shown to the user.
package order

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ErrSelection is returned for malformed or out-of-range positions.
var ErrSelection = errors.New("invalid selection")

// Move lifts the selected items out, keeping their relative order, and
// reinserts them as a block where the item originally at position to
// stood. A target past the end appends the block.
func Move[T any](items []T, selected []int, to int) []T {
	sel := normalize(selected, len(items))
	if to <= 0 || len(sel) == 0 {
		return slices.Clone(items)
	}
	picked := make(map[int]bool, len(sel))
	block := make([]T, 0, len(sel))
	for _, p := range sel {
		picked[p] = true
		block = append(block, items[p-1])
	}
	out := make([]T, 0, len(items))
	placed := false
	for i, it := range items {
		if i == to-1 {
			out = append(out, block...)
			placed = true
		}
		if picked[i+1] {
			continue
		}
		out = append(out, it)
	}
	if !placed {
		out = append(out, block...)
	}
	return out
}

// Reverse reverses the whole list when at most one item is selected;
// otherwise only the selected positions swap among themselves.
func Reverse[T any](items []T, selected []int) []T {
	out := slices.Clone(items)
	sel := normalize(selected, len(items))
	if len(sel) <= 1 {
		slices.Reverse(out)
		return out
	}
	for i, p := range sel {
		out[p-1] = items[sel[len(sel)-1-i]-1]
	}
	return out
}

// Remove drops the selected items.
func Remove[T any](items []T, selected []int) []T {
	drop := make(map[int]bool)
	for _, p := range normalize(selected, len(items)) {
		drop[p] = true
	}
	out := make([]T, 0, len(items))
	for i, it := range items {
		if !drop[i+1] {
			out = append(out, it)
		}
	}
	return out
}

// normalize sorts, deduplicates and drops positions outside [1,n].
func normalize(selected []int, n int) []int {
	out := make([]int, 0, len(selected))
	for _, p := range selected {
		if p >= 1 && p <= n {
			out = append(out, p)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// ParseSelection parses comma-separated positions and inclusive ranges,
// e.g. "2,4-6".
func ParseSelection(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		a, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil || a < 1 {
			return nil, fmt.Errorf("%w: %q", ErrSelection, part)
		}
		b := a
		if isRange {
			b, err = strconv.Atoi(strings.TrimSpace(hi))
			if err != nil || b < a {
				return nil, fmt.Errorf("%w: %q", ErrSelection, part)
			}
		}
		for p := a; p <= b; p++ {
			out = append(out, p)
		}
	}
	return out, nil
}

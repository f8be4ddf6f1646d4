package caption

import (
	"errors"
	"image"
	"unicode/utf8"
)

var (
	// ErrFontFit is returned when no positive font size fits the width.
	ErrFontFit = errors.New("caption does not fit image width")
	// ErrFontUnavailable is returned when the font cannot be loaded.
	ErrFontUnavailable = errors.New("font unavailable")
)

const (
	margin    = 10
	fitMargin = 2 * margin
)

// measureFunc returns the advance width of s at the given font size.
type measureFunc func(s string, size int) (int, error)

// Line is one positioned caption line. Y is the top of the line box.
type Line struct {
	Text  string
	X, Y  int
	Width int
}

// Layout is a fitted caption block.
type Layout struct {
	FontSize    int
	LineHeight  int
	Origin      image.Point
	BlockWidth  int
	BlockHeight int
	Lines       []Line
}

// startRatio compensates for proportional glyph widths by aspect ratio.
func startRatio(w, h int) float64 {
	switch {
	case float64(w)/float64(h) > 1.25:
		return 5.0 / 7.0
	case float64(h)/float64(w) > 1.4:
		return 10.0 / 7.0
	default:
		return 8.0 / 7.0
	}
}

// longest picks the line with the most characters; the first one wins ties.
func longest(lines []string) string {
	best, n := "", -1
	for _, l := range lines {
		if c := utf8.RuneCountInString(l); c > n {
			best, n = l, c
		}
	}
	return best
}

func computeLayout(w, h int, spec Spec, measure measureFunc) (Layout, error) {
	var lay Layout
	if len(spec.Lines) == 0 || w <= 0 || h <= 0 {
		return lay, nil
	}
	long := longest(spec.Lines)

	size := spec.FontSize
	if size <= 0 {
		chars := utf8.RuneCountInString(long)
		if chars == 0 {
			chars = 1
		}
		size = int(float64(w) / float64(chars) * startRatio(w, h))
		for {
			if size <= 0 {
				return lay, ErrFontFit
			}
			width, err := measure(long, size)
			if err != nil {
				return lay, err
			}
			if width <= w-fitMargin {
				break
			}
			size--
		}
	}

	longW, err := measure(long, size)
	if err != nil {
		return lay, err
	}

	lay.FontSize = size
	lay.LineHeight = size
	lay.BlockWidth = longW
	lay.BlockHeight = size * len(spec.Lines)

	x, y := margin, margin
	if spec.Corner.Right() {
		x = w - longW - margin
	}
	if spec.Corner.Bottom() {
		y = h - lay.BlockHeight - margin
	}
	lay.Origin = image.Pt(x, y)

	lay.Lines = make([]Line, 0, len(spec.Lines))
	for i, text := range spec.Lines {
		lw, err := measure(text, size)
		if err != nil {
			return lay, err
		}
		lx := x
		if spec.Corner.Right() {
			lx = w - lw - margin
		}
		lay.Lines = append(lay.Lines, Line{Text: text, X: lx, Y: y + i*size, Width: lw})
	}
	return lay, nil
}

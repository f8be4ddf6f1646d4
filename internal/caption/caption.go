// Package caption lays out and draws the white multi-line caption stamped
// onto a photo corner.
package caption

import (
	"fmt"
	"strings"
	"time"

	"geostamp/internal/geo"
)

// TimeLayout is how the capture time appears in a caption.
const TimeLayout = "02 Jan 2006  15:04:05"

// Corner selects where the caption block is anchored.
type Corner int

const (
	TopLeft Corner = iota
	TopRight
	BottomLeft
	BottomRight
)

var cornerNames = [...]string{
	TopLeft:     "Top Left",
	TopRight:    "Top Right",
	BottomLeft:  "Bottom Left",
	BottomRight: "Bottom Right",
}

var cornerAbbrev = map[string]Corner{
	"tl": TopLeft,
	"tr": TopRight,
	"bl": BottomLeft,
	"br": BottomRight,
}

func (c Corner) String() string {
	if c < TopLeft || c > BottomRight {
		return fmt.Sprintf("Corner(%d)", int(c))
	}
	return cornerNames[c]
}

// Right reports whether lines are right-aligned.
func (c Corner) Right() bool { return c == TopRight || c == BottomRight }

// Bottom reports whether the block hangs from the bottom edge.
func (c Corner) Bottom() bool { return c == BottomLeft || c == BottomRight }

// Corners lists the display names in menu order.
func Corners() []string {
	return cornerNames[:]
}

// ParseCorner accepts display names ("Bottom Right"), dashed, underscored
// or compact spellings and two-letter abbreviations.
func ParseCorner(s string) (Corner, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if c, ok := cornerAbbrev[key]; ok {
		return c, nil
	}
	key = strings.NewReplacer(" ", "", "-", "", "_", "").Replace(key)
	for i, name := range cornerNames {
		if key == strings.ToLower(strings.ReplaceAll(name, " ", "")) {
			return Corner(i), nil
		}
	}
	return BottomRight, fmt.Errorf("unknown corner %q (want one of %s)", s, strings.Join(Corners(), ", "))
}

// Fields are the semantic parts of a caption.
type Fields struct {
	Time    time.Time
	Point   geo.Point
	Address string
	Label   string
}

// Lines renders fields in display order, dropping empty lines.
func Lines(f Fields) []string {
	candidates := []string{
		f.Time.Format(TimeLayout),
		f.Point.Caption(),
		f.Address,
		f.Label,
	}
	lines := make([]string, 0, len(candidates))
	for _, l := range candidates {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// Spec is one caption request. FontSize 0 means fit to the image width.
type Spec struct {
	Lines    []string
	Corner   Corner
	FontSize int
}

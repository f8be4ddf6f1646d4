package caption

import (
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"
	"time"
	"unicode/utf8"

	"geostamp/internal/geo"
)

func TestParseCorner(t *testing.T) {
	cases := map[string]Corner{
		"Top Left":      TopLeft,
		"top-right":     TopRight,
		"bottom_left":   BottomLeft,
		"BottomRight":   BottomRight,
		" bottom right": BottomRight,
		"br":            BottomRight,
		"TL":            TopLeft,
	}
	for in, want := range cases {
		got, err := ParseCorner(in)
		if err != nil {
			t.Fatalf("ParseCorner(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseCorner(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseCorner("middle"); err == nil {
		t.Fatalf("expected error for unknown corner")
	}
	for _, name := range Corners() {
		c, err := ParseCorner(name)
		if err != nil || c.String() != name {
			t.Fatalf("round trip of %q gave %v, %v", name, c, err)
		}
	}
}

func TestLines(t *testing.T) {
	f := Fields{
		Time: time.Date(2024, 3, 1, 9, 5, 7, 0, time.UTC),
		Point: geo.Point{
			Lat: geo.Latitude{Degrees: 51.5976012, Ref: geo.North},
			Lon: geo.Longitude{Degrees: 0.0876543, Ref: geo.West},
		},
		Address: "1 High Street, London",
	}
	got := Lines(f)
	want := []string{"01 Mar 2024  09:05:07", "51.5976012N 0.0876543W", "1 High Street, London"}
	if len(got) != len(want) {
		t.Fatalf("got %d lines %q, want %q", len(got), got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
	f.Label = "Site visit"
	if got := Lines(f); len(got) != 4 || got[3] != "Site visit" {
		t.Fatalf("label not appended: %q", got)
	}
}

// fixedWidths reports a preset width for each line regardless of size.
func fixedWidths(widths map[string]int) measureFunc {
	return func(s string, size int) (int, error) {
		return widths[s], nil
	}
}

// proportional approximates a proportional font: 0.6em per character.
func proportional(s string, size int) (int, error) {
	return utf8.RuneCountInString(s) * size * 6 / 10, nil
}

func TestCornerPlacement(t *testing.T) {
	spec := Spec{Lines: []string{"wide line", "mid", "x"}, FontSize: 20}
	measure := fixedWidths(map[string]int{"wide line": 300, "mid": 120, "x": 15})

	cases := []struct {
		corner Corner
		want   image.Point
	}{
		{TopLeft, image.Pt(10, 10)},
		{TopRight, image.Pt(690, 10)},
		{BottomLeft, image.Pt(10, 730)},
		{BottomRight, image.Pt(690, 730)},
	}
	for _, tc := range cases {
		t.Run(tc.corner.String(), func(t *testing.T) {
			spec.Corner = tc.corner
			lay, err := computeLayout(1000, 800, spec, measure)
			if err != nil {
				t.Fatalf("layout: %v", err)
			}
			if lay.BlockHeight != 60 || lay.BlockWidth != 300 {
				t.Fatalf("block %dx%d, want 300x60", lay.BlockWidth, lay.BlockHeight)
			}
			if lay.Origin != tc.want {
				t.Fatalf("origin %v, want %v", lay.Origin, tc.want)
			}
			for i, l := range lay.Lines {
				if l.Y != tc.want.Y+i*20 {
					t.Fatalf("line %d at y=%d", i, l.Y)
				}
				wantX := 10
				if tc.corner.Right() {
					wantX = 1000 - l.Width - 10
				}
				if l.X != wantX {
					t.Fatalf("line %d at x=%d, want %d", i, l.X, wantX)
				}
			}
		})
	}
}

func TestStartRatio(t *testing.T) {
	cases := []struct {
		w, h int
		want float64
	}{
		{1600, 900, 5.0 / 7.0},
		{1000, 1000, 8.0 / 7.0},
		{1000, 1250, 8.0 / 7.0},
		{600, 1000, 10.0 / 7.0},
	}
	for _, tc := range cases {
		if got := startRatio(tc.w, tc.h); got != tc.want {
			t.Fatalf("startRatio(%d,%d) = %v, want %v", tc.w, tc.h, got, tc.want)
		}
	}
}

func TestShrinkToFit(t *testing.T) {
	line := "01 Mar 2024  09:05:07 with a considerably longer tail"
	for _, w := range []int{50, 64, 200, 640, 1920, 4000} {
		for _, h := range []int{50, 480, 1080, 3000} {
			lay, err := computeLayout(w, h, Spec{Lines: []string{line}}, proportional)
			if errors.Is(err, ErrFontFit) {
				continue
			}
			if err != nil {
				t.Fatalf("%dx%d: %v", w, h, err)
			}
			if lay.FontSize <= 0 {
				t.Fatalf("%dx%d: non-positive size %d", w, h, lay.FontSize)
			}
			if lay.BlockWidth > w-20 {
				t.Fatalf("%dx%d: width %d overflows %d", w, h, lay.BlockWidth, w-20)
			}
		}
	}
}

func TestFontFitFailure(t *testing.T) {
	huge := func(s string, size int) (int, error) { return 1 << 20, nil }
	_, err := computeLayout(400, 300, Spec{Lines: []string{"anything"}}, huge)
	if !errors.Is(err, ErrFontFit) {
		t.Fatalf("expected ErrFontFit, got %v", err)
	}
}

func TestOverrideSkipsFit(t *testing.T) {
	lay, err := computeLayout(100, 100, Spec{Lines: []string{"a very long caption line"}, FontSize: 48}, proportional)
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	if lay.FontSize != 48 {
		t.Fatalf("override ignored: %d", lay.FontSize)
	}
	if lay.BlockWidth <= 80 {
		t.Fatalf("expected the override to overflow, width %d", lay.BlockWidth)
	}
}

func TestLongestPrefersFirst(t *testing.T) {
	if got := longest([]string{"abc", "xyz", "ab"}); got != "abc" {
		t.Fatalf("longest = %q", got)
	}
	if got := longest([]string{"ab", "ééé"}); got != "ééé" {
		t.Fatalf("longest counted bytes: %q", got)
	}
}

func TestNewMissingFont(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing.ttf"))
	if !errors.Is(err, ErrFontUnavailable) {
		t.Fatalf("expected ErrFontUnavailable, got %v", err)
	}
}

func fill(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func whitePixels(img *image.NRGBA, r image.Rectangle) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			if c.R > 200 && c.G > 200 && c.B > 200 {
				n++
			}
		}
	}
	return n
}

func TestImprintDrawsInCorner(t *testing.T) {
	comp, err := New("")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	img := fill(640, 480, color.NRGBA{A: 255})
	spec := Spec{Lines: []string{"01 Mar 2024  09:05:07", "51.5976012N 0.0876543W"}, Corner: BottomRight}
	if err := comp.Imprint(img, spec); err != nil {
		t.Fatalf("imprint: %v", err)
	}
	lay, err := comp.Layout(640, 480, spec)
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	if lay.BlockWidth > 620 {
		t.Fatalf("caption overflows: %d", lay.BlockWidth)
	}
	if n := whitePixels(img, image.Rect(320, 240, 640, 480)); n == 0 {
		t.Fatalf("no caption pixels in the bottom-right quadrant")
	}
	if n := whitePixels(img, image.Rect(0, 0, 320, 240)); n != 0 {
		t.Fatalf("%d caption pixels leaked into the top-left quadrant", n)
	}
}

func TestImprintNoLines(t *testing.T) {
	comp, err := New("")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	img := fill(32, 32, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	if err := comp.Imprint(img, Spec{Corner: TopLeft}); err != nil {
		t.Fatalf("imprint: %v", err)
	}
	if n := whitePixels(img, img.Bounds()); n != 0 {
		t.Fatalf("empty caption drew %d pixels", n)
	}
}

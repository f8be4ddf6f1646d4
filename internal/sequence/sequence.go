// Package sequence produces the per-image capture times and coordinates of
// a batch. Draws are taken strictly in batch order from a Cursor.
package sequence

import (
	"errors"
	"fmt"
	"time"

	"geostamp/internal/geo"
)

// ErrInvalidWindow is returned for a negative, inverted or oversized minute window.
var ErrInvalidWindow = errors.New("invalid batch window")

// MaxMinutes bounds ToMinutes at one hundred years so the step span and
// its duration cannot overflow.
const MaxMinutes = 100 * 366 * 24 * 60

// maxSecond is inclusive; a draw of 60 rolls into the next minute.
const maxSecond = 60

// Window configures the spacing between consecutive capture times.
type Window struct {
	Start       time.Time
	FromMinutes int
	ToMinutes   int
}

// Validate checks 0 <= FromMinutes <= ToMinutes <= MaxMinutes.
func (w Window) Validate() error {
	if w.FromMinutes < 0 {
		return fmt.Errorf("%w: from_minutes %d is negative", ErrInvalidWindow, w.FromMinutes)
	}
	if w.FromMinutes > w.ToMinutes {
		return fmt.Errorf("%w: from_minutes %d > to_minutes %d", ErrInvalidWindow, w.FromMinutes, w.ToMinutes)
	}
	if w.ToMinutes > MaxMinutes {
		return fmt.Errorf("%w: to_minutes %d exceeds %d", ErrInvalidWindow, w.ToMinutes, MaxMinutes)
	}
	return nil
}

// Draw is the synthesized metadata of one image.
type Draw struct {
	Index int
	Time  time.Time
	Point geo.Point
}

// Cursor walks a batch. It is not safe for concurrent use.
type Cursor struct {
	window  Window
	base    geo.Point
	src     Source
	current time.Time
	drawn   int
}

// Begin validates the window and base point and seeds the cursor at the
// window start with a random seconds field.
func Begin(w Window, base geo.Point, src Source) (*Cursor, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		src = NewCryptoSource()
	}
	c := &Cursor{window: w, base: base, src: src}
	c.current = withSecond(w.Start, src.IntN(maxSecond+1))
	return c, nil
}

// Next returns the metadata for the next image. The first call yields the
// seeded start time; later calls advance by a random number of minutes in
// the window with a fresh seconds field. Times never decrease.
func (c *Cursor) Next() Draw {
	if c.drawn > 0 {
		c.advance()
	}
	d := Draw{
		Index: c.drawn,
		Time:  c.current,
		Point: geo.JitterPoint(c.base, c.src),
	}
	c.drawn++
	return d
}

// Plan takes n draws in order.
func (c *Cursor) Plan(n int) []Draw {
	out := make([]Draw, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, c.Next())
	}
	return out
}

func (c *Cursor) advance() {
	span := c.window.ToMinutes - c.window.FromMinutes + 1
	minutes := c.window.FromMinutes + c.src.IntN(span)
	sec := c.src.IntN(maxSecond + 1)
	next := withSecond(c.current, sec).Add(time.Duration(minutes) * time.Minute)
	// Only a zero-minute step with a smaller seconds draw can go backwards.
	if next.Before(c.current) {
		next = c.current
	}
	c.current = next
}

func withSecond(t time.Time, sec int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), sec, 0, t.Location())
}

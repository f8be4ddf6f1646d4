// Package geo holds the coordinate model shared by the caption and EXIF
// writers: hemisphere-tagged magnitudes, last-digit jitter and the
// degree/minute/second split used for GPS rationals.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrOutOfRange is returned when a coordinate magnitude lies outside [0,90].
var ErrOutOfRange = errors.New("coordinate out of range")

// ErrBadRef is returned for an unknown hemisphere letter.
var ErrBadRef = errors.New("unknown hemisphere reference")

// MaxMagnitude bounds both latitude and longitude magnitudes.
const MaxMagnitude = 90.0

// LatRef is the latitude hemisphere.
type LatRef int

const (
	North LatRef = iota
	South
)

func (r LatRef) String() string {
	if r == South {
		return "S"
	}
	return "N"
}

// ParseLatRef accepts N, S, north or south in any case.
func ParseLatRef(s string) (LatRef, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "n", "north":
		return North, nil
	case "s", "south":
		return South, nil
	}
	return North, fmt.Errorf("%w: %q", ErrBadRef, s)
}

// LonRef is the longitude hemisphere.
type LonRef int

const (
	East LonRef = iota
	West
)

func (r LonRef) String() string {
	if r == West {
		return "W"
	}
	return "E"
}

// ParseLonRef accepts E, W, east or west in any case.
func ParseLonRef(s string) (LonRef, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "e", "east":
		return East, nil
	case "w", "west":
		return West, nil
	}
	return East, fmt.Errorf("%w: %q", ErrBadRef, s)
}

// Latitude is an unsigned magnitude plus hemisphere.
type Latitude struct {
	Degrees float64
	Ref     LatRef
}

// Caption renders the latitude as shown on the image, e.g. 51.5976012N.
func (l Latitude) Caption() string {
	return formatDegrees(l.Degrees) + l.Ref.String()
}

// Longitude is an unsigned magnitude plus hemisphere.
type Longitude struct {
	Degrees float64
	Ref     LonRef
}

// Caption renders the longitude as shown on the image, e.g. 0.0876543W.
func (l Longitude) Caption() string {
	return formatDegrees(l.Degrees) + l.Ref.String()
}

// Point is a latitude/longitude pair.
type Point struct {
	Lat Latitude
	Lon Longitude
}

// Validate rejects magnitudes outside [0,90] and NaN.
func (p Point) Validate() error {
	if err := checkMagnitude("latitude", p.Lat.Degrees); err != nil {
		return err
	}
	return checkMagnitude("longitude", p.Lon.Degrees)
}

// Caption is the coordinate line of an image caption.
func (p Point) Caption() string {
	return p.Lat.Caption() + " " + p.Lon.Caption()
}

// Signed returns the point as signed decimal degrees (south and west negative).
func (p Point) Signed() (lat, lon float64) {
	lat, lon = p.Lat.Degrees, p.Lon.Degrees
	if p.Lat.Ref == South {
		lat = -lat
	}
	if p.Lon.Ref == West {
		lon = -lon
	}
	return lat, lon
}

func checkMagnitude(name string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > MaxMagnitude {
		return fmt.Errorf("%w: %s %v not in [0,%v]", ErrOutOfRange, name, v, MaxMagnitude)
	}
	return nil
}

func formatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

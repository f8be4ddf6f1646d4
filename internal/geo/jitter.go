package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Source supplies uniform integers in [0,n).
type Source interface {
	IntN(n int) int
}

const (
	keptDecimals   = 5
	jitterDecimals = 3
)

// Jitter keeps the first five decimals of |v|, truncated, and appends a
// uniform draw in [0,999] as decimals six to eight.
func Jitter(v float64, src Source) float64 {
	s := truncate(math.Abs(v), keptDecimals) + fmt.Sprintf("%03d", src.IntN(1000))
	out, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// s is always a plain decimal literal.
		panic(err)
	}
	return out
}

// truncate writes v with exactly n decimals, dropping the rest without
// rounding.
func truncate(v float64, n int) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) < n {
		frac += strings.Repeat("0", n-len(frac))
	}
	return whole + "." + frac[:n]
}

// JitterPoint jitters both magnitudes, keeping the hemispheres.
func JitterPoint(p Point, src Source) Point {
	return Point{
		Lat: Latitude{Degrees: Jitter(p.Lat.Degrees, src), Ref: p.Lat.Ref},
		Lon: Longitude{Degrees: Jitter(p.Lon.Degrees, src), Ref: p.Lon.Ref},
	}
}

// DMS splits a magnitude into truncated whole degrees, minutes and seconds.
func DMS(v float64) [3]uint32 {
	v = math.Abs(v)
	d := math.Trunc(v)
	m := math.Trunc((v - d) * 60)
	sec := math.Trunc((v - d - m/60) * 3600)
	if sec < 0 {
		sec = 0
	}
	if m > 59 {
		m = 59
	}
	if sec > 59 {
		sec = 59
	}
	return [3]uint32{uint32(d), uint32(m), uint32(sec)}
}

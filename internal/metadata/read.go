package metadata

import (
	"bytes"
	"errors"
	"fmt"

	goexif "github.com/rwcarlsen/goexif/exif"
)

// ErrNoExif is returned when an image carries no EXIF block.
var ErrNoExif = errors.New("no exif data")

// Rational is an unsigned EXIF rational.
type Rational struct {
	Num, Den int64
}

// Info is the subset of EXIF that stamping writes, plus orientation.
type Info struct {
	Orientation       int
	DateTime          string
	DateTimeOriginal  string
	DateTimeDigitized string
	LatRef            string
	Lat               [3]Rational
	LonRef            string
	Lon               [3]Rational
	Latitude          float64
	Longitude         float64
	HasGPS            bool
}

// Read decodes the EXIF of a JPEG or PNG file's bytes, or of a bare blob.
func Read(data []byte) (Info, error) {
	x, err := decode(data)
	if err != nil {
		return Info{}, err
	}
	info := Info{Orientation: orientationOf(x)}
	info.DateTime = stringTag(x, goexif.DateTime)
	info.DateTimeOriginal = stringTag(x, goexif.DateTimeOriginal)
	info.DateTimeDigitized = stringTag(x, goexif.DateTimeDigitized)
	info.LatRef = stringTag(x, goexif.GPSLatitudeRef)
	info.LonRef = stringTag(x, goexif.GPSLongitudeRef)
	info.Lat = rationalTriple(x, goexif.GPSLatitude)
	info.Lon = rationalTriple(x, goexif.GPSLongitude)
	if lat, lon, err := x.LatLong(); err == nil {
		info.Latitude, info.Longitude, info.HasGPS = lat, lon, true
	}
	return info, nil
}

// Orientation returns the EXIF orientation of an encoded image, 1 when
// absent or unreadable.
func Orientation(data []byte) int {
	x, err := decode(data)
	if err != nil {
		return 1
	}
	return orientationOf(x)
}

func decode(data []byte) (*goexif.Exif, error) {
	src := data
	if bytes.HasPrefix(data, pngSignature) {
		src = Extract(data)
		if src == nil {
			return nil, ErrNoExif
		}
	}
	x, err := goexif.Decode(bytes.NewReader(src))
	if err != nil {
		if goexif.IsCriticalError(err) {
			return nil, fmt.Errorf("%w: %v", ErrNoExif, err)
		}
	}
	if x == nil {
		return nil, ErrNoExif
	}
	return x, nil
}

func orientationOf(x *goexif.Exif) int {
	tag, err := x.Get(goexif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}
	return v
}

func stringTag(x *goexif.Exif, name goexif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return s
}

func rationalTriple(x *goexif.Exif, name goexif.FieldName) [3]Rational {
	var out [3]Rational
	tag, err := x.Get(name)
	if err != nil || tag.Count < 3 {
		return out
	}
	for i := range out {
		num, den, err := tag.Rat2(i)
		if err != nil {
			return [3]Rational{}
		}
		out[i] = Rational{Num: num, Den: den}
	}
	return out
}

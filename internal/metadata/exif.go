// Package metadata builds, embeds and reads the EXIF block written into
// stamped photos.
package metadata

import (
	"fmt"
	"time"

	"geostamp/internal/geo"

	exif "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
)

// DateTimeLayout is the EXIF date/time string format.
const DateTimeLayout = "2006:01:02 15:04:05"

// Blob is a TIFF-structured EXIF block without the "Exif\0\0" prefix.
type Blob []byte

const (
	ifdExifPath = "IFD/Exif"
	ifdGPSPath  = "IFD/GPSInfo"
)

// Build encodes the capture time into the 0th and Exif IFDs and the
// coordinate into the GPS IFD.
func Build(ts time.Time, lat geo.Latitude, lon geo.Longitude) (Blob, error) {
	im, err := exifcommon.NewIfdMappingWithStandard()
	if err != nil {
		return nil, fmt.Errorf("ifd mapping: %w", err)
	}
	ti := exif.NewTagIndex()
	root := exif.NewIfdBuilder(im, ti, exifcommon.IfdStandardIfdIdentity, exifcommon.EncodeDefaultByteOrder)

	stamp := ts.Format(DateTimeLayout)
	if err := root.AddStandardWithName("DateTime", stamp); err != nil {
		return nil, fmt.Errorf("set DateTime: %w", err)
	}

	exifIb, err := exif.GetOrCreateIbFromRootIb(root, ifdExifPath)
	if err != nil {
		return nil, fmt.Errorf("exif ifd: %w", err)
	}
	for _, name := range []string{"DateTimeOriginal", "DateTimeDigitized"} {
		if err := exifIb.AddStandardWithName(name, stamp); err != nil {
			return nil, fmt.Errorf("set %s: %w", name, err)
		}
	}

	gpsIb, err := exif.GetOrCreateIbFromRootIb(root, ifdGPSPath)
	if err != nil {
		return nil, fmt.Errorf("gps ifd: %w", err)
	}
	gps := []struct {
		name  string
		value any
	}{
		{"GPSLatitudeRef", lat.Ref.String()},
		{"GPSLatitude", rationals(geo.DMS(lat.Degrees))},
		{"GPSLongitudeRef", lon.Ref.String()},
		{"GPSLongitude", rationals(geo.DMS(lon.Degrees))},
	}
	for _, tag := range gps {
		if err := gpsIb.AddStandardWithName(tag.name, tag.value); err != nil {
			return nil, fmt.Errorf("set %s: %w", tag.name, err)
		}
	}

	encoded, err := exif.NewIfdByteEncoder().EncodeToExif(root)
	if err != nil {
		return nil, fmt.Errorf("encode exif: %w", err)
	}
	return Blob(encoded), nil
}

// BuildDraw is Build for a point/time pair.
func BuildDraw(ts time.Time, p geo.Point) (Blob, error) {
	return Build(ts, p.Lat, p.Lon)
}

func rationals(dms [3]uint32) []exifcommon.Rational {
	out := make([]exifcommon.Rational, len(dms))
	for i, v := range dms {
		out[i] = exifcommon.Rational{Numerator: v, Denominator: 1}
	}
	return out
}

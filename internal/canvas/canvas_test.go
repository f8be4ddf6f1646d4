package canvas

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"geostamp/internal/geo"
	"geostamp/internal/metadata"

	exif "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
)

func pattern() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(40 * x), G: uint8(100 * y), B: 7, A: 255})
		}
	}
	return img
}

func orientationBlob(t *testing.T, o uint16) metadata.Blob {
	t.Helper()
	im, err := exifcommon.NewIfdMappingWithStandard()
	if err != nil {
		t.Fatalf("mapping: %v", err)
	}
	ib := exif.NewIfdBuilder(im, exif.NewTagIndex(), exifcommon.IfdStandardIfdIdentity, exifcommon.EncodeDefaultByteOrder)
	if err := ib.AddStandardWithName("Orientation", []uint16{o}); err != nil {
		t.Fatalf("orientation tag: %v", err)
	}
	b, err := exif.NewIfdByteEncoder().EncodeToExif(ib)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return b
}

func writePNG(t *testing.T, img image.Image, blob metadata.Blob) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	data := buf.Bytes()
	if blob != nil {
		var err error
		if data, err = metadata.EmbedPNG(data, blob); err != nil {
			t.Fatalf("embed: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "in.png")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadUprightIsStable(t *testing.T) {
	path := writePNG(t, pattern(), orientationBlob(t, 1))
	a, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	b, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !bytes.Equal(a.Image.Pix, b.Image.Pix) || a.Bounds() != b.Bounds() {
		t.Fatalf("two loads differ")
	}
	if !bytes.Equal(a.Image.Pix, pattern().Pix) {
		t.Fatalf("upright image was modified")
	}
	if a.Format != metadata.FormatPNG {
		t.Fatalf("format = %q", a.Format)
	}
}

func TestLoadAppliesOrientation(t *testing.T) {
	cases := []struct {
		orientation uint16
		rotate      func(image.Image) *image.NRGBA
		size        image.Point
	}{
		{3, rotate180, image.Pt(4, 2)},
		{6, rotate270, image.Pt(2, 4)},
		{8, rotate90, image.Pt(2, 4)},
	}
	for _, tc := range cases {
		path := writePNG(t, pattern(), orientationBlob(t, tc.orientation))
		c, err := Load(path)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if c.Orientation != int(tc.orientation) {
			t.Fatalf("orientation = %d, want %d", c.Orientation, tc.orientation)
		}
		if c.Bounds().Size() != tc.size {
			t.Fatalf("orientation %d: size %v, want %v", tc.orientation, c.Bounds().Size(), tc.size)
		}
		want := tc.rotate(pattern())
		if !bytes.Equal(c.Image.Pix, want.Pix) {
			t.Fatalf("orientation %d: pixels differ from reference rotation", tc.orientation)
		}
	}
}

// Reference rotations, counter-clockwise, written out pixel by pixel.
func rotate90(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dy(), b.Dx()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.Set(y, b.Dx()-1-x, src.At(x, y))
		}
	}
	return dst
}

func rotate180(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.Set(b.Dx()-1-x, b.Dy()-1-y, src.At(x, y))
		}
	}
	return dst
}

func rotate270(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dy(), b.Dx()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.Set(b.Dy()-1-y, x, src.At(x, y))
		}
	}
	return dst
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.jpg")); !errors.Is(err, ErrIO) {
		t.Fatalf("expected ErrIO for a missing file, got %v", err)
	}
	bad := filepath.Join(t.TempDir(), "bad.jpg")
	if err := os.WriteFile(bad, []byte("definitely not a jpeg"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(bad); !errors.Is(err, ErrIO) {
		t.Fatalf("expected ErrIO for garbage, got %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	c := &Canvas{Image: pattern(), Path: "mem.jpg", Format: metadata.FormatJPEG}
	ts := time.Date(2024, 3, 1, 10, 15, 30, 0, time.UTC)
	blob, err := metadata.Build(ts,
		geo.Latitude{Degrees: 51.12345678, Ref: geo.North},
		geo.Longitude{Degrees: 0.08765432, Ref: geo.West})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	out := filepath.Join(t.TempDir(), "nested", "out.jpg")
	n, err := c.Save(out, 100, blob)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if int64(len(data)) != n {
		t.Fatalf("reported %d bytes, file has %d", n, len(data))
	}
	info, err := metadata.Read(data)
	if err != nil {
		t.Fatalf("read exif: %v", err)
	}
	if info.DateTimeOriginal != "2024:03:01 10:15:30" || info.LatRef != "N" || info.LonRef != "W" {
		t.Fatalf("unexpected exif %+v", info)
	}
	reloaded, err := Load(out)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Bounds() != c.Bounds() {
		t.Fatalf("reloaded bounds %v, want %v", reloaded.Bounds(), c.Bounds())
	}
	entries, _ := os.ReadDir(filepath.Dir(out))
	if len(entries) != 1 {
		t.Fatalf("temporary files left behind: %d entries", len(entries))
	}
}

func TestSaveUnwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c := &Canvas{Image: pattern(), Path: "mem.png", Format: metadata.FormatPNG}
	if _, err := c.Save(filepath.Join(blocker, "out.png"), 0, nil); !errors.Is(err, ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
}

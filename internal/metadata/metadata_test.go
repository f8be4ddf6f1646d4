package metadata

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
	"time"

	"geostamp/internal/geo"
)

var (
	testTime = time.Date(2024, 3, 1, 10, 15, 30, 0, time.UTC)
	testLat  = geo.Latitude{Degrees: 51.12345678, Ref: geo.North}
	testLon  = geo.Longitude{Degrees: 0.08765432, Ref: geo.West}
)

func sampleImage() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 16), G: uint8(y * 32), B: 90, A: 255})
		}
	}
	return img
}

func encodeJPEG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, sampleImage(), &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func encodePNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, sampleImage()); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func checkRoundTrip(t *testing.T, info Info) {
	t.Helper()
	if info.LatRef != "N" || info.LonRef != "W" {
		t.Fatalf("unexpected refs %q %q", info.LatRef, info.LonRef)
	}
	wantLat := [3]Rational{{51, 1}, {7, 1}, {24, 1}}
	if info.Lat != wantLat {
		t.Fatalf("latitude = %v, want %v", info.Lat, wantLat)
	}
	wantLon := [3]Rational{{0, 1}, {5, 1}, {15, 1}}
	if info.Lon != wantLon {
		t.Fatalf("longitude = %v, want %v", info.Lon, wantLon)
	}
	for name, got := range map[string]string{
		"DateTime":          info.DateTime,
		"DateTimeOriginal":  info.DateTimeOriginal,
		"DateTimeDigitized": info.DateTimeDigitized,
	} {
		if got != "2024:03:01 10:15:30" {
			t.Fatalf("%s = %q", name, got)
		}
	}
	if !info.HasGPS || info.Longitude >= 0 || info.Latitude <= 51 {
		t.Fatalf("unexpected decoded position %v,%v", info.Latitude, info.Longitude)
	}
}

func TestBuildRoundTrip(t *testing.T) {
	blob, err := Build(testTime, testLat, testLon)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(blob) < 8 || !(bytes.HasPrefix(blob, []byte("MM")) || bytes.HasPrefix(blob, []byte("II"))) {
		t.Fatalf("blob does not start with a TIFF header")
	}
	info, err := Read(blob)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	checkRoundTrip(t, info)
}

func TestEmbedJPEG(t *testing.T) {
	blob, err := Build(testTime, testLat, testLon)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	src := encodeJPEG(t)
	out, err := EmbedJPEG(src, blob)
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if _, err := jpeg.Decode(bytes.NewReader(out)); err != nil {
		t.Fatalf("embedded jpeg no longer decodes: %v", err)
	}
	info, err := Read(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	checkRoundTrip(t, info)

	// Embedding twice replaces rather than stacks the segment.
	again, err := EmbedJPEG(out, blob)
	if err != nil {
		t.Fatalf("re-embed: %v", err)
	}
	if len(again) != len(out) {
		t.Fatalf("re-embed changed size %d -> %d", len(out), len(again))
	}
	if got := Extract(again); !bytes.Equal(got, blob) {
		t.Fatalf("extracted blob differs")
	}
}

func TestEmbedPNG(t *testing.T) {
	blob, err := Build(testTime, testLat, testLon)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	out, err := EmbedPNG(encodePNG(t), blob)
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(out)); err != nil {
		t.Fatalf("embedded png no longer decodes: %v", err)
	}
	info, err := Read(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	checkRoundTrip(t, info)
}

func TestEmbedRejectsWrongFormat(t *testing.T) {
	if _, err := EmbedJPEG([]byte("not an image"), nil); !errors.Is(err, ErrNotJPEG) {
		t.Fatalf("expected ErrNotJPEG, got %v", err)
	}
	if _, err := EmbedPNG(encodeJPEG(t), nil); !errors.Is(err, ErrNotPNG) {
		t.Fatalf("expected ErrNotPNG, got %v", err)
	}
	if _, err := Embed(Format("gif"), nil, nil); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}

func TestOrientationDefaults(t *testing.T) {
	if got := Orientation(encodeJPEG(t)); got != 1 {
		t.Fatalf("orientation of bare jpeg = %d, want 1", got)
	}
	if _, err := Read(encodePNG(t)); !errors.Is(err, ErrNoExif) {
		t.Fatalf("expected ErrNoExif, got %v", err)
	}
}

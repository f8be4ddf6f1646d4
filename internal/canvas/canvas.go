// Package canvas loads photos into an upright, mutable raster and writes
// them back out with an EXIF block attached.
package canvas

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"geostamp/internal/metadata"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/disintegration/imaging"
)

// ErrIO wraps every read, decode, encode and write failure.
var ErrIO = errors.New("image i/o")

// DefaultQuality is the JPEG quality used when none is configured.
const DefaultQuality = 100

// Canvas is a decoded photo owned by one caller at a time.
type Canvas struct {
	Image  *image.NRGBA
	Path   string
	Format metadata.Format
	// Orientation is the source EXIF orientation before correction.
	Orientation int
}

// Load reads path, decodes it and applies the EXIF rotations for
// orientation 3, 6 and 8. Other orientation values are left alone.
func Load(path string) (*Canvas, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrIO, path, err)
	}
	return Decode(path, data)
}

// Decode is Load for bytes already in memory.
func Decode(path string, data []byte) (*Canvas, error) {
	_, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: identify %s: %v", ErrIO, path, err)
	}
	var format metadata.Format
	switch name {
	case "jpeg":
		format = metadata.FormatJPEG
	case "png":
		format = metadata.FormatPNG
	default:
		return nil, fmt.Errorf("%w: %s: unsupported format %q", ErrIO, path, name)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrIO, path, err)
	}
	orientation := metadata.Orientation(data)
	return &Canvas{
		Image:       upright(img, orientation),
		Path:        path,
		Format:      format,
		Orientation: orientation,
	}, nil
}

// upright rotates counter-clockwise by the angle the orientation implies.
func upright(img image.Image, orientation int) *image.NRGBA {
	switch orientation {
	case 3:
		return imaging.Rotate180(img)
	case 6:
		return imaging.Rotate270(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return imaging.Clone(img)
	}
}

// Bounds is the canvas size after orientation correction.
func (c *Canvas) Bounds() image.Rectangle { return c.Image.Bounds() }

// Encode writes the canvas in its source format. quality applies to JPEG.
func (c *Canvas) Encode(w io.Writer, quality int) error {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	var enc imgio.Encoder
	switch c.Format {
	case metadata.FormatPNG:
		enc = imgio.PNGEncoder()
	default:
		enc = imgio.JPEGEncoder(quality)
	}
	if err := enc(w, c.Image); err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrIO, c.Path, err)
	}
	return nil
}

// Bytes encodes the canvas and attaches blob, if any.
func (c *Canvas) Bytes(quality int, blob metadata.Blob) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Encode(&buf, quality); err != nil {
		return nil, err
	}
	if len(blob) == 0 {
		return buf.Bytes(), nil
	}
	out, err := metadata.Embed(c.Format, buf.Bytes(), blob)
	if err != nil {
		return nil, fmt.Errorf("%w: attach exif to %s: %v", ErrIO, c.Path, err)
	}
	return out, nil
}

// Save writes the encoded canvas with blob to path through a temporary
// file in the same directory. It returns the number of bytes written.
func (c *Canvas) Save(path string, quality int, blob metadata.Blob) (int64, error) {
	data, err := c.Bytes(quality, blob)
	if err != nil {
		return 0, err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("%w: mkdir %s: %v", ErrIO, dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return 0, fmt.Errorf("%w: create %s: %v", ErrIO, path, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("%w: write %s: %v", ErrIO, path, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("%w: close %s: %v", ErrIO, path, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return 0, fmt.Errorf("%w: chmod %s: %v", ErrIO, path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("%w: rename %s: %v", ErrIO, path, err)
	}
	return int64(len(data)), nil
}

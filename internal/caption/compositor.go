package caption

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Compositor draws captions with one parsed font. It is safe for
// concurrent use; faces are created per call.
type Compositor struct {
	font *opentype.Font
	name string
}

// New parses the TrueType/OpenType font at path, or the embedded Go
// Regular face when path is empty.
func New(path string) (*Compositor, error) {
	data, name := goregular.TTF, "goregular"
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFontUnavailable, err)
		}
		data, name = b, path
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrFontUnavailable, name, err)
	}
	return &Compositor{font: f, name: name}, nil
}

// FontName is the font file path, or "goregular" for the embedded face.
func (c *Compositor) FontName() string { return c.name }

func (c *Compositor) face(size int) (font.Face, error) {
	face, err := opentype.NewFace(c.font, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("font face at %dpx: %w", size, err)
	}
	return face, nil
}

type faceCache struct {
	c     *Compositor
	faces map[int]font.Face
}

func (fc *faceCache) get(size int) (font.Face, error) {
	if f, ok := fc.faces[size]; ok {
		return f, nil
	}
	f, err := fc.c.face(size)
	if err != nil {
		return nil, err
	}
	fc.faces[size] = f
	return f, nil
}

func (fc *faceCache) measure(s string, size int) (int, error) {
	f, err := fc.get(size)
	if err != nil {
		return 0, err
	}
	return font.MeasureString(f, s).Ceil(), nil
}

func (fc *faceCache) close() {
	for _, f := range fc.faces {
		_ = f.Close()
	}
}

// Layout fits spec to a w×h image without drawing.
func (c *Compositor) Layout(w, h int, spec Spec) (Layout, error) {
	fc := &faceCache{c: c, faces: map[int]font.Face{}}
	defer fc.close()
	return computeLayout(w, h, spec, fc.measure)
}

// Imprint draws the caption in white onto img. A spec without lines
// leaves img untouched.
func (c *Compositor) Imprint(img draw.Image, spec Spec) error {
	if len(spec.Lines) == 0 {
		return nil
	}
	b := img.Bounds()
	fc := &faceCache{c: c, faces: map[int]font.Face{}}
	defer fc.close()

	lay, err := computeLayout(b.Dx(), b.Dy(), spec, fc.measure)
	if err != nil {
		return err
	}
	face, err := fc.get(lay.FontSize)
	if err != nil {
		return err
	}
	ascent := face.Metrics().Ascent.Ceil()
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: face,
	}
	for _, l := range lay.Lines {
		d.Dot = fixed.P(b.Min.X+l.X, b.Min.Y+l.Y+ascent)
		d.DrawString(l.Text)
	}
	return nil
}

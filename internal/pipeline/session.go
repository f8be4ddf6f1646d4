package pipeline

import (
	"geostamp/internal/caption"
	"geostamp/internal/canvas"
	"geostamp/internal/geo"
	"geostamp/internal/metadata"
	"geostamp/internal/sequence"
)

// Session is the state of one stamping run: the ordered inputs, what to
// stamp on them and the annotated results. Callers own it and pass it
// explicitly; nothing in the pipeline keeps a reference after a call.
type Session struct {
	Images   []string
	Point    geo.Point
	Address  string
	Label    string
	Corner   caption.Corner
	FontSize int
	Window   sequence.Window

	Results []FinalImage
}

// FinalImage is an annotated photo waiting to be written.
type FinalImage struct {
	SourcePath string
	Canvas     *canvas.Canvas
	Exif       metadata.Blob
	Draw       sequence.Draw
	Caption    []string
}

// AppendResult records a finished image.
func (s *Session) AppendResult(fi FinalImage) {
	s.Results = append(s.Results, fi)
}

// Reset drops results so the session can be processed again.
func (s *Session) Reset() {
	s.Results = nil
}

// Validate reports configuration that would fail every image.
func (s *Session) Validate() error {
	if err := s.Window.Validate(); err != nil {
		return configError(err)
	}
	if err := s.Point.Validate(); err != nil {
		return configError(err)
	}
	if s.FontSize < 0 {
		return configError(errNegativeFontSize)
	}
	return nil
}

func (s *Session) fields(d sequence.Draw) caption.Fields {
	return caption.Fields{
		Time:    d.Time,
		Point:   d.Point,
		Address: s.Address,
		Label:   s.Label,
	}
}

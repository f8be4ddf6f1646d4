package metadata

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
)

var (
	// ErrNotJPEG is returned when data lacks a JPEG SOI marker.
	ErrNotJPEG = errors.New("not a JPEG stream")
	// ErrNotPNG is returned when data lacks the PNG signature.
	ErrNotPNG = errors.New("not a PNG stream")
	// ErrBlobTooLarge is returned when the EXIF block exceeds one APP1 segment.
	ErrBlobTooLarge = errors.New("exif block too large for APP1 segment")
)

var (
	exifHeader   = []byte("Exif\x00\x00")
	pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
)

const (
	markerSOI  = 0xD8
	markerEOI  = 0xD9
	markerSOS  = 0xDA
	markerAPP1 = 0xE1

	maxSegmentLen = 0xFFFF
)

// Format is an output container.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

// Embed writes blob into an encoded image of the given format.
func Embed(format Format, data []byte, blob Blob) ([]byte, error) {
	switch format {
	case FormatJPEG:
		return EmbedJPEG(data, blob)
	case FormatPNG:
		return EmbedPNG(data, blob)
	default:
		return nil, fmt.Errorf("embed exif: unsupported format %q", format)
	}
}

// EmbedJPEG drops any existing Exif APP1 segment and inserts blob in a new
// one directly after SOI.
func EmbedJPEG(data []byte, blob Blob) ([]byte, error) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != markerSOI {
		return nil, ErrNotJPEG
	}
	payload := len(exifHeader) + len(blob)
	if payload+2 > maxSegmentLen {
		return nil, ErrBlobTooLarge
	}

	var out bytes.Buffer
	out.Grow(len(data) + payload + 4)
	out.Write([]byte{0xFF, markerSOI})
	out.Write([]byte{0xFF, markerAPP1})
	_ = binary.Write(&out, binary.BigEndian, uint16(payload+2))
	out.Write(exifHeader)
	out.Write(blob)

	i := 2
	for i < len(data) {
		if data[i] != 0xFF {
			return nil, fmt.Errorf("%w: expected marker at offset %d", ErrNotJPEG, i)
		}
		j := i + 1
		for j < len(data) && data[j] == 0xFF {
			j++
		}
		if j >= len(data) {
			break
		}
		marker := data[j]
		if marker == markerEOI || marker == markerSOS {
			out.Write(data[i:])
			return out.Bytes(), nil
		}
		if j+3 > len(data) {
			return nil, fmt.Errorf("%w: truncated segment header", ErrNotJPEG)
		}
		end := j + 1 + int(binary.BigEndian.Uint16(data[j+1:j+3]))
		if end > len(data) {
			return nil, fmt.Errorf("%w: truncated segment", ErrNotJPEG)
		}
		if !(marker == markerAPP1 && bytes.HasPrefix(data[j+3:end], exifHeader)) {
			out.Write(data[i:end])
		}
		i = end
	}
	return out.Bytes(), nil
}

// EmbedPNG drops any existing eXIf chunk and inserts blob in a new one
// before the first IDAT.
func EmbedPNG(data []byte, blob Blob) ([]byte, error) {
	if !bytes.HasPrefix(data, pngSignature) {
		return nil, ErrNotPNG
	}
	var out bytes.Buffer
	out.Grow(len(data) + len(blob) + 12)
	out.Write(pngSignature)

	inserted := false
	err := walkPNG(data, func(typ string, chunk []byte) {
		if typ == "eXIf" {
			return
		}
		if typ == "IDAT" && !inserted {
			writePNGChunk(&out, "eXIf", blob)
			inserted = true
		}
		out.Write(chunk)
	})
	if err != nil {
		return nil, err
	}
	if !inserted {
		return nil, fmt.Errorf("%w: no IDAT chunk", ErrNotPNG)
	}
	return out.Bytes(), nil
}

// walkPNG calls fn with each chunk's type and its full encoded bytes.
func walkPNG(data []byte, fn func(typ string, chunk []byte)) error {
	i := len(pngSignature)
	for i+8 <= len(data) {
		n := int(binary.BigEndian.Uint32(data[i : i+4]))
		end := i + 12 + n
		if n < 0 || end > len(data) {
			return fmt.Errorf("%w: truncated chunk at offset %d", ErrNotPNG, i)
		}
		typ := string(data[i+4 : i+8])
		fn(typ, data[i:end])
		i = end
		if typ == "IEND" {
			break
		}
	}
	return nil
}

func writePNGChunk(w *bytes.Buffer, typ string, data []byte) {
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[:4], uint32(len(data)))
	copy(hdr[4:], typ)
	w.Write(hdr[:])
	w.Write(data)
	crc := crc32.NewIEEE()
	crc.Write(hdr[4:])
	crc.Write(data)
	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())
	w.Write(sum[:])
}

// Extract returns the raw EXIF block of a JPEG or PNG stream, or nil.
func Extract(data []byte) Blob {
	switch {
	case bytes.HasPrefix(data, pngSignature):
		var found Blob
		_ = walkPNG(data, func(typ string, chunk []byte) {
			if typ == "eXIf" && found == nil {
				found = Blob(chunk[8 : len(chunk)-4])
			}
		})
		return found
	case len(data) > 2 && data[0] == 0xFF && data[1] == markerSOI:
		i := 2
		for i+4 <= len(data) && data[i] == 0xFF {
			marker := data[i+1]
			if marker == markerSOS || marker == markerEOI {
				return nil
			}
			end := i + 2 + int(binary.BigEndian.Uint16(data[i+2:i+4]))
			if end > len(data) {
				return nil
			}
			seg := data[i+4 : end]
			if marker == markerAPP1 && bytes.HasPrefix(seg, exifHeader) {
				return Blob(seg[len(exifHeader):])
			}
			i = end
		}
	}
	return nil
}

package imaging

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// LoadError reports an image payload that could not be decoded. It is
// the boundary between "bad input" and "broken system": callers match
// it with errors.As and surface it as a client error, and session
// state is never mutated behind one.
type LoadError struct {
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("load image: %s: %v", e.Reason, e.Err)
	}
	return "load image: " + e.Reason
}

func (e *LoadError) Unwrap() error { return e.Err }

// Decode reads an image from r, honoring EXIF orientation so that
// camera uploads analyze the way they were shot. Supported formats are
// JPEG, PNG, GIF, TIFF and BMP.
//
// Returns *LoadError if the stream is not a decodable image.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, &LoadError{Reason: "decode failed", Err: err}
	}
	return img, nil
}

// DecodeBytes decodes an in-memory image payload, typically a multipart
// upload body.
func DecodeBytes(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, &LoadError{Reason: "empty payload"}
	}
	return Decode(bytes.NewReader(data))
}

// LoadFile opens and decodes the image at path with EXIF
// auto-orientation applied.
func LoadFile(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, &LoadError{Reason: "open " + path, Err: err}
	}
	return img, nil
}

// SaveJPEG writes img to path as a JPEG at the given quality. The
// parent directory is created if missing. The file is written to a
// temporary name and renamed into place so a concurrent reader never
// observes a partial image.
func SaveJPEG(img image.Image, path string, quality int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// Package export writes decoded chart images to disk.
package export

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/image/bmp"
)

// Supported formats.
const (
	FormatPNG = "png"
	FormatBMP = "bmp"
)

// ErrUnknownFormat is returned for image formats other than png and bmp.
var ErrUnknownFormat = errors.New("unknown image format")

// Encode writes img to w in the given format.
func Encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatBMP:
		return bmp.Encode(w, img)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// ImageWriter names and writes one image file per atlas layer.
type ImageWriter struct {
	outputDir string
	prefix    string
	format    string
}

// NewImageWriter creates a writer for files named <prefix>_atlas<N>.<format>
// inside outputDir.
func NewImageWriter(outputDir, prefix, format string) (*ImageWriter, error) {
	if format != FormatPNG && format != FormatBMP {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return &ImageWriter{outputDir: outputDir, prefix: prefix, format: format}, nil
}

// Path returns the file name used for atlas layer i.
func (w *ImageWriter) Path(i int) string {
	name := fmt.Sprintf("%s_atlas%d.%s", w.prefix, i, w.format)
	if w.outputDir != "" {
		name = filepath.Join(w.outputDir, name)
	}
	return name
}

// Write encodes img as atlas layer i and returns the file name.
func (w *ImageWriter) Write(i int, img image.Image) (string, error) {
	if w.outputDir != "" {
		if err := os.MkdirAll(w.outputDir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	filename := w.Path(i)
	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := Encode(file, img, w.format); err != nil {
		return "", fmt.Errorf("encoding %s: %w", w.format, err)
	}

	return filename, file.Close()
}

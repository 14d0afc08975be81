// Package clipboard defines the OS clipboard capability used by the sampler
// and the restore command, plus the pixel buffer type shared by its
// implementations.
package clipboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ErrUnsupported is returned by implementations for operations the current
// platform cannot perform.
var ErrUnsupported = errors.New("clipboard operation not supported")

// Clipboard is the OS clipboard capability. Reads report "nothing there"
// with zero values and a nil error; errors are transient failures.
type Clipboard interface {
	// ReadText returns the clipboard text, or "" if there is none.
	ReadText(ctx context.Context) (string, error)

	// ReadImage returns the clipboard image as RGBA8 pixels, or nil.
	ReadImage(ctx context.Context) (*Image, error)

	// ReadFileList returns the files on the clipboard, or nil.
	ReadFileList(ctx context.Context) ([]FileEntry, error)

	// WriteText replaces the clipboard contents with text.
	WriteText(ctx context.Context, text string) error

	// WriteImage replaces the clipboard contents with an image.
	WriteImage(ctx context.Context, img *Image) error
}

// FileEntry is one path from a file-drop clipboard payload.
type FileEntry struct {
	Path string
	Kind string // "file" or "directory"
}

// Paths returns the paths of entries in order.
func Paths(entries []FileEntry) []string {
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}
	return paths
}

// Image is a decoded clipboard image. Pixels holds Width*Height*4 bytes of
// non-premultiplied RGBA, row-major with no padding.
type Image struct {
	Width  int
	Height int
	Pixels []byte
}

// NRGBA wraps the pixel buffer as an image without copying.
func (img *Image) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    img.Pixels,
		Stride: img.Width * 4,
		Rect:   image.Rect(0, 0, img.Width, img.Height),
	}
}

// Valid reports whether the pixel buffer matches the dimensions.
func (img *Image) Valid() bool {
	return img != nil && img.Width > 0 && img.Height > 0 && len(img.Pixels) == img.Width*img.Height*4
}

// FromImage converts any image into a tightly packed RGBA8 buffer.
func FromImage(src image.Image) *Image {
	n := imaging.Clone(src)
	return &Image{
		Width:  n.Rect.Dx(),
		Height: n.Rect.Dy(),
		Pixels: n.Pix,
	}
}

// DecodeImage decodes encoded image bytes (PNG, JPEG, ...) into pixels.
func DecodeImage(data []byte) (*Image, error) {
	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return FromImage(src), nil
}

// EncodePNG encodes the pixels losslessly.
func EncodePNG(img *Image) ([]byte, error) {
	if !img.Valid() {
		return nil, errors.New("invalid image buffer")
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img.NRGBA(), imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

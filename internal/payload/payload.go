// Package payload builds the stored content and display preview for each
// clipboard data type, and decodes stored content back for restoring.
package payload

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/yiblet/lark/internal/clipboard"
)

// Defaults applied by NewBuilder.
const (
	DefaultTextLimit    = 1000
	DefaultQuality      = 75
	DefaultMaxDimension = 512
	DefaultFileLimit    = 20
)

// ImageData is the JSON shape of image content and previews.
type ImageData struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Base64 string `json:"base64"`
}

// Builder turns clipboard observations into content/preview pairs.
type Builder struct {
	// TextLimit caps the preview length of text in characters.
	TextLimit int
	// Quality is the JPEG quality of image previews (1-100).
	Quality int
	// MaxDimension bounds the preview's longer side in pixels.
	MaxDimension int
	// FileLimit caps the number of paths shown in a file-list preview.
	FileLimit int
}

// NewBuilder returns a Builder with defaults filled in for zero fields.
func NewBuilder(textLimit, quality, maxDimension int) Builder {
	b := Builder{
		TextLimit:    textLimit,
		Quality:      quality,
		MaxDimension: maxDimension,
		FileLimit:    DefaultFileLimit,
	}
	if b.TextLimit <= 0 {
		b.TextLimit = DefaultTextLimit
	}
	if b.Quality <= 0 || b.Quality > 100 {
		b.Quality = DefaultQuality
	}
	if b.MaxDimension <= 0 {
		b.MaxDimension = DefaultMaxDimension
	}
	return b
}

// Text keeps raw as content and previews the trimmed text cut to TextLimit
// characters.
func (b Builder) Text(raw string) (string, *string) {
	preview := Truncate(strings.TrimSpace(raw), b.TextLimit)
	return raw, &preview
}

// Image encodes pixels losslessly as PNG for content, and as a down-scaled
// JPEG for the preview.
func (b Builder) Image(img *clipboard.Image) (string, *string, error) {
	if !img.Valid() {
		return "", nil, fmt.Errorf("invalid image buffer %dx%d", img.Width, img.Height)
	}

	full, err := clipboard.EncodePNG(img)
	if err != nil {
		return "", nil, err
	}
	content, err := marshalImage(img.Width, img.Height, full)
	if err != nil {
		return "", nil, err
	}

	src := img.NRGBA()
	thumb := src
	if img.Width > b.MaxDimension || img.Height > b.MaxDimension {
		thumb = imaging.Fit(src, b.MaxDimension, b.MaxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(b.Quality)); err != nil {
		return "", nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	preview, err := marshalImage(thumb.Rect.Dx(), thumb.Rect.Dy(), buf.Bytes())
	if err != nil {
		return "", nil, err
	}

	return content, &preview, nil
}

// Files stores the canonical path list as a JSON array and previews at most
// FileLimit paths.
func (b Builder) Files(paths []string) (string, *string, error) {
	content, err := json.Marshal(paths)
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode file list: %w", err)
	}

	shown := paths
	if b.FileLimit > 0 && len(shown) > b.FileLimit {
		shown = shown[:b.FileLimit]
	}
	preview, err := json.Marshal(shown)
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode file preview: %w", err)
	}

	p := string(preview)
	return string(content), &p, nil
}

// DecodeImage parses image content (or an image preview) back into pixels.
func DecodeImage(content string) (*clipboard.Image, error) {
	var data ImageData
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return nil, fmt.Errorf("failed to parse image content: %w", err)
	}
	raw, err := base64.StdEncoding.DecodeString(data.Base64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image base64: %w", err)
	}
	return clipboard.DecodeImage(raw)
}

// DecodeFiles parses file-list content back into paths.
func DecodeFiles(content string) ([]string, error) {
	var paths []string
	if err := json.Unmarshal([]byte(content), &paths); err != nil {
		return nil, fmt.Errorf("failed to parse file list: %w", err)
	}
	return paths, nil
}

// Truncate cuts s to at most n characters.
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func marshalImage(w, h int, encoded []byte) (string, error) {
	b, err := json.Marshal(ImageData{
		Width:  w,
		Height: h,
		Base64: base64.StdEncoding.EncodeToString(encoded),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode image json: %w", err)
	}
	return string(b), nil
}

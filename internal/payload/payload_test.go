package payload

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/yiblet/lark/internal/clipboard"
)

func solid(w, h int, c color.NRGBA) *clipboard.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return clipboard.FromImage(img)
}

func TestBuilder_Text(t *testing.T) {
	b := NewBuilder(0, 0, 0)

	tests := []struct {
		name        string
		raw         string
		wantPreview string
	}{
		{"short", "hello", "hello"},
		{"trimmed preview", "  hello \n", "hello"},
		{"unicode", "héllo wörld", "héllo wörld"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, preview := b.Text(tt.raw)
			if content != tt.raw {
				t.Errorf("content = %q, want %q", content, tt.raw)
			}
			if preview == nil || *preview != tt.wantPreview {
				t.Errorf("preview = %v, want %q", preview, tt.wantPreview)
			}
		})
	}
}

func TestBuilder_TextTruncation(t *testing.T) {
	b := NewBuilder(0, 0, 0)
	raw := strings.Repeat("a", 5000)

	content, preview := b.Text(raw)
	if len(content) != 5000 {
		t.Errorf("content length = %d, want 5000", len(content))
	}
	if utf8.RuneCountInString(*preview) != 1000 {
		t.Errorf("preview length = %d, want 1000", utf8.RuneCountInString(*preview))
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 3, "hel"},
		{"hello", 5, "hello"},
		{"hello", 10, "hello"},
		{"日本語テキスト", 3, "日本語"},
		{"hello", 0, "hello"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestBuilder_Image(t *testing.T) {
	b := NewBuilder(0, 75, 64)
	img := solid(200, 100, color.NRGBA{R: 10, G: 200, B: 30, A: 255})

	content, preview, err := b.Image(img)
	if err != nil {
		t.Fatalf("Image() error = %v", err)
	}

	var full ImageData
	if err := json.Unmarshal([]byte(content), &full); err != nil {
		t.Fatalf("content is not image json: %v", err)
	}
	if full.Width != 200 || full.Height != 100 {
		t.Errorf("content dims = %dx%d, want 200x100", full.Width, full.Height)
	}

	var thumb ImageData
	if err := json.Unmarshal([]byte(*preview), &thumb); err != nil {
		t.Fatalf("preview is not image json: %v", err)
	}
	if thumb.Width != 64 || thumb.Height != 32 {
		t.Errorf("preview dims = %dx%d, want 64x32", thumb.Width, thumb.Height)
	}

	decoded, err := DecodeImage(content)
	if err != nil {
		t.Fatalf("DecodeImage() error = %v", err)
	}
	if !bytes.Equal(decoded.Pixels, img.Pixels) {
		t.Error("content should decode to the original pixels")
	}

	if _, err := DecodeImage(*preview); err != nil {
		t.Errorf("preview should decode as jpeg: %v", err)
	}
}

func TestBuilder_ImageSmallKeepsSize(t *testing.T) {
	b := NewBuilder(0, 0, 512)
	_, preview, err := b.Image(solid(10, 20, color.NRGBA{A: 255}))
	if err != nil {
		t.Fatalf("Image() error = %v", err)
	}
	var thumb ImageData
	json.Unmarshal([]byte(*preview), &thumb)
	if thumb.Width != 10 || thumb.Height != 20 {
		t.Errorf("preview dims = %dx%d, want 10x20", thumb.Width, thumb.Height)
	}
}

func TestBuilder_ImageInvalid(t *testing.T) {
	b := NewBuilder(0, 0, 0)
	if _, _, err := b.Image(&clipboard.Image{Width: 4, Height: 4, Pixels: []byte{0}}); err == nil {
		t.Error("expected error for invalid buffer")
	}
}

func TestBuilder_Files(t *testing.T) {
	b := NewBuilder(0, 0, 0)
	b.FileLimit = 2

	content, preview, err := b.Files([]string{"/a", "/b", "/c"})
	if err != nil {
		t.Fatalf("Files() error = %v", err)
	}
	if content != `["/a","/b","/c"]` {
		t.Errorf("content = %s", content)
	}
	if *preview != `["/a","/b"]` {
		t.Errorf("preview = %s", *preview)
	}

	paths, err := DecodeFiles(content)
	if err != nil || len(paths) != 3 {
		t.Errorf("DecodeFiles() = %v, %v", paths, err)
	}
}

func TestNewBuilderDefaults(t *testing.T) {
	b := NewBuilder(-1, 200, 0)
	if b.TextLimit != DefaultTextLimit || b.Quality != DefaultQuality || b.MaxDimension != DefaultMaxDimension {
		t.Errorf("defaults not applied: %+v", b)
	}
}

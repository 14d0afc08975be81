package history

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/yiblet/lark/internal/payload"
	"github.com/yiblet/lark/internal/store"
)

// Title creates a single display line for a record from its preview.
// Text uses the first non-empty line; images show their dimensions and file
// lists show the first path and a count.
func Title(rec *store.Record, maxLen int) string {
	var title string
	switch rec.DataType {
	case store.DataTypeImage:
		title = imageTitle(rec.Preview())
	case store.DataTypeFile:
		title = filesTitle(rec.Preview())
	default:
		title = textTitle(rec.Preview())
	}
	return TruncateTitle(title, maxLen)
}

func textTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if cleaned := SanitizeTitle(line); cleaned != "" {
			return cleaned
		}
	}
	return "[empty]"
}

func imageTitle(preview string) string {
	var data payload.ImageData
	if err := json.Unmarshal([]byte(preview), &data); err != nil {
		return "[image]"
	}
	return fmt.Sprintf("[image %dx%d]", data.Width, data.Height)
}

func filesTitle(preview string) string {
	paths, err := payload.DecodeFiles(preview)
	if err != nil || len(paths) == 0 {
		return "[files]"
	}
	if len(paths) == 1 {
		return "[file] " + paths[0]
	}
	return fmt.Sprintf("[%d files] %s", len(paths), paths[0])
}

// TruncateTitle ensures title is at most maxLen characters.
// If truncation is needed, appends "..." to indicate truncation.
func TruncateTitle(title string, maxLen int) string {
	title = strings.TrimSpace(title)
	if maxLen <= 0 {
		return title
	}

	runes := []rune(title)
	if len(runes) <= maxLen {
		return title
	}

	// Reserve 3 characters for "..."
	if maxLen < 3 {
		return strings.Repeat(".", maxLen)
	}

	return string(runes[:maxLen-3]) + "..."
}

// SanitizeTitle removes control characters and collapses whitespace.
func SanitizeTitle(title string) string {
	title = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, title)

	return strings.Join(strings.Fields(title), " ")
}

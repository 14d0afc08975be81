package tui

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// WrapText wraps text to maxWidth runes, breaking on word boundaries when
// possible. Newlines in the input are kept and tabs become four spaces.
// Height truncation is left to the caller.
func WrapText(text string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{}
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\t", "    ")

	var result []string
	for _, line := range strings.Split(text, "\n") {
		if utf8.RuneCountInString(line) <= maxWidth {
			result = append(result, line)
			continue
		}
		result = append(result, wrapLine(line, maxWidth)...)
	}
	return result
}

// wrapLine wraps a single overlong line
func wrapLine(line string, maxWidth int) []string {
	var result []string
	var current strings.Builder
	width := 0

	flush := func() {
		result = append(result, current.String())
		current.Reset()
		width = 0
	}

	for _, word := range splitWords(line) {
		runes := []rune(word)

		// Words longer than a whole line are broken forcefully
		if len(runes) > maxWidth {
			if width > 0 {
				flush()
			}
			for len(runes) > maxWidth {
				result = append(result, string(runes[:maxWidth]))
				runes = runes[maxWidth:]
			}
			current.WriteString(string(runes))
			width = len(runes)
			continue
		}

		need := len(runes)
		if width > 0 {
			need++
		}
		if width+need > maxWidth {
			flush()
		} else if width > 0 {
			current.WriteByte(' ')
			width++
		}
		current.WriteString(word)
		width += len(runes)
	}

	if width > 0 {
		flush()
	}
	return result
}

// splitWords splits text on runs of whitespace
func splitWords(text string) []string {
	return strings.FieldsFunc(text, unicode.IsSpace)
}

// clampLines keeps at most n lines, marking the cut with an ellipsis line.
func clampLines(lines []string, n int) []string {
	if n <= 0 {
		return nil
	}
	if len(lines) <= n {
		return lines
	}
	out := append([]string(nil), lines[:n-1]...)
	return append(out, "…")
}

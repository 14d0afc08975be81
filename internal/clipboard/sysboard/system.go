// Package sysboard implements clipboard.Clipboard for the desktop.
// Text and images go through golang.design/x/clipboard when a display is
// available. Without one, text falls back to pbcopy/pbpaste on macOS and
// xclip or xsel on Linux. File lists are read with xclip or wl-paste on
// Linux and osascript on macOS.
package sysboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"golang.design/x/clipboard"

	lclip "github.com/yiblet/lark/internal/clipboard"
)

// DefaultTimeout bounds each clipboard read.
const DefaultTimeout = 150 * time.Millisecond

// SystemClipboard implements clipboard.Clipboard
type SystemClipboard struct {
	native  bool
	timeout time.Duration
}

// New initializes the native clipboard. If that fails (no X11 or Wayland
// display, for instance) it logs a warning and uses command-line tools.
func New(timeout time.Duration) *SystemClipboard {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	s := &SystemClipboard{timeout: timeout}
	if err := clipboard.Init(); err != nil {
		slog.Warn("native clipboard unavailable, using command-line tools", "err", err)
	} else {
		s.native = true
	}
	return s
}

// IsSupported returns true if clipboard text can be read on this system
func (s *SystemClipboard) IsSupported() bool {
	if s.native {
		return true
	}
	switch runtime.GOOS {
	case "darwin":
		return hasCommand("pbpaste")
	case "linux":
		return hasCommand("xclip") || hasCommand("xsel")
	default:
		return false
	}
}

// ReadText implements clipboard.Clipboard
func (s *SystemClipboard) ReadText(ctx context.Context) (string, error) {
	if s.native {
		data, err := bounded(ctx, s.timeout, func() []byte {
			return clipboard.Read(clipboard.FmtText)
		})
		if err != nil {
			return "", fmt.Errorf("failed to read clipboard text: %w", err)
		}
		return string(data), nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		data []byte
		err  error
	)
	switch runtime.GOOS {
	case "darwin":
		data, err = output(ctx, nil, "pbpaste")
	case "linux":
		data, err = output(ctx, nil, "xclip", "-selection", "clipboard", "-o")
		if err != nil {
			data, err = output(ctx, nil, "xsel", "--clipboard", "--output")
		}
	default:
		return "", lclip.ErrUnsupported
	}
	if err != nil {
		return "", fmt.Errorf("failed to read clipboard text: %w", err)
	}
	return string(data), nil
}

// ReadImage implements clipboard.Clipboard. The native clipboard hands out
// PNG bytes, which are decoded here so callers always see pixels.
func (s *SystemClipboard) ReadImage(ctx context.Context) (*lclip.Image, error) {
	if !s.native {
		return nil, nil
	}

	data, err := bounded(ctx, s.timeout, func() []byte {
		return clipboard.Read(clipboard.FmtImage)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read clipboard image: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return lclip.DecodeImage(data)
}

// ReadFileList implements clipboard.Clipboard
func (s *SystemClipboard) ReadFileList(ctx context.Context) ([]lclip.FileEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		data []byte
		err  error
	)
	switch runtime.GOOS {
	case "linux":
		switch {
		case os.Getenv("WAYLAND_DISPLAY") != "" && hasCommand("wl-paste"):
			data, err = output(ctx, nil, "wl-paste", "--no-newline", "--type", "text/uri-list")
		case hasCommand("xclip"):
			data, err = output(ctx, nil, "xclip", "-selection", "clipboard", "-t", "text/uri-list", "-o")
		default:
			return nil, nil
		}
	case "darwin":
		data, err = output(ctx, nil, "osascript", "-e", darwinFileScript)
		if err == nil {
			return entries(strings.Split(strings.TrimSpace(string(data)), "\n")), nil
		}
	default:
		return nil, nil
	}

	if err != nil {
		// A missing uri-list target makes the tools exit non-zero. That is
		// the normal "no files" case.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read clipboard file list: %w", err)
	}

	return entries(ParseURIList(string(data))), nil
}

// WriteText implements clipboard.Clipboard
func (s *SystemClipboard) WriteText(ctx context.Context, text string) error {
	if s.native {
		_, err := bounded(ctx, s.timeout, func() struct{} {
			clipboard.Write(clipboard.FmtText, []byte(text))
			return struct{}{}
		})
		return err
	}

	data := []byte(text)
	switch runtime.GOOS {
	case "darwin":
		if _, err := output(ctx, data, "pbcopy"); err != nil {
			return fmt.Errorf("failed to run pbcopy: %w", err)
		}
	case "linux":
		if _, err := output(ctx, data, "xclip", "-selection", "clipboard"); err == nil {
			return nil
		}
		if _, err := output(ctx, data, "xsel", "--clipboard", "--input"); err != nil {
			return fmt.Errorf("failed to write clipboard (tried xclip and xsel): %w", err)
		}
	default:
		return lclip.ErrUnsupported
	}
	return nil
}

// WriteImage implements clipboard.Clipboard
func (s *SystemClipboard) WriteImage(ctx context.Context, img *lclip.Image) error {
	if !s.native {
		return lclip.ErrUnsupported
	}
	data, err := lclip.EncodePNG(img)
	if err != nil {
		return err
	}
	_, err = bounded(ctx, s.timeout, func() struct{} {
		clipboard.Write(clipboard.FmtImage, data)
		return struct{}{}
	})
	return err
}

const darwinFileScript = `set out to ""
try
	set fs to (the clipboard as «class furl»)
	set out to POSIX path of fs
end try
return out`

// ParseURIList extracts local paths from a text/uri-list payload.
// Comment lines and non-file URIs are skipped.
func ParseURIList(data string) []string {
	var paths []string
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		u, err := url.Parse(line)
		if err != nil || u.Scheme != "file" || u.Path == "" {
			continue
		}
		paths = append(paths, u.Path)
	}
	return paths
}

func entries(paths []string) []lclip.FileEntry {
	var out []lclip.FileEntry
	for _, p := range paths {
		if p == "" {
			continue
		}
		kind := "file"
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			kind = "directory"
		}
		out = append(out, lclip.FileEntry{Path: p, Kind: kind})
	}
	return out
}

// bounded runs fn in a goroutine and gives up once the timeout passes. The
// native library has no cancellation, so an abandoned call finishes in the
// background.
func bounded[T any](ctx context.Context, timeout time.Duration, fn func() T) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ch := make(chan T, 1)
	go func() { ch <- fn() }()

	select {
	case v := <-ch:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// output runs a command with optional stdin and returns its stdout
func output(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func hasCommand(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

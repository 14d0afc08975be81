// Package foreground resolves a label for the application that owns the
// focused window. It only feeds the best-effort source field of records.
package foreground

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// Lookup returns the label of the foreground application.
type Lookup interface {
	ActiveAppLabel(ctx context.Context) (string, error)
}

// Static is a Lookup that always returns the same label.
type Static string

// ActiveAppLabel implements Lookup
func (s Static) ActiveAppLabel(context.Context) (string, error) {
	return string(s), nil
}

// System queries the desktop with xdotool on Linux and osascript on macOS.
type System struct {
	Timeout time.Duration
}

// NewSystem creates a System lookup with the given per-call timeout.
func NewSystem(timeout time.Duration) *System {
	if timeout <= 0 {
		timeout = 150 * time.Millisecond
	}
	return &System{Timeout: timeout}
}

const darwinScript = `tell application "System Events" to get name of first application process whose frontmost is true`

// ActiveAppLabel implements Lookup. Unsupported platforms return "".
func (s *System) ActiveAppLabel(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	var args []string
	switch runtime.GOOS {
	case "darwin":
		args = []string{"osascript", "-e", darwinScript}
	case "linux":
		args = []string{"xdotool", "getactivewindow", "getwindowclassname"}
	default:
		return "", nil
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to run %s: %w", args[0], err)
	}

	return Clean(out.String()), nil
}

// Clean normalizes a raw label: the first line, trimmed, capped at 255 bytes.
func Clean(raw string) string {
	label, _, _ := strings.Cut(raw, "\n")
	label = strings.TrimSpace(label)
	if len(label) > 255 {
		label = strings.ToValidUTF8(label[:255], "")
	}
	return label
}

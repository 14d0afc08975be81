package sysboard

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseURIList(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"single", "file:///home/me/a.txt", []string{"/home/me/a.txt"}},
		{"crlf and comments", "# copied\r\nfile:///a\r\nfile:///b%20c\r\n", []string{"/a", "/b c"}},
		{"non file uri skipped", "https://example.com/x\nfile:///ok", []string{"/ok"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseURIList(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("ParseURIList() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParseURIList()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestEntries(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := entries([]string{dir, file, ""})
	if len(got) != 2 {
		t.Fatalf("entries() = %v, want 2 entries", got)
	}
	if got[0].Kind != "directory" || got[1].Kind != "file" {
		t.Errorf("kinds = %s, %s", got[0].Kind, got[1].Kind)
	}
}

func TestBounded(t *testing.T) {
	v, err := bounded(context.Background(), time.Second, func() int { return 7 })
	if err != nil || v != 7 {
		t.Errorf("bounded() = %d, %v; want 7, nil", v, err)
	}

	release := make(chan struct{})
	defer close(release)
	_, err = bounded(context.Background(), 10*time.Millisecond, func() int {
		<-release
		return 1
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("bounded() error = %v, want DeadlineExceeded", err)
	}
}

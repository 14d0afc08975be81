package store

import (
	"testing"
	"time"
)

func TestShouldEvict(t *testing.T) {
	tests := []struct {
		name       string
		count      int
		limit      int
		hysteresis int
		want       int
	}{
		{"below slack", 14, 5, 10, 0},
		{"at slack", 15, 5, 10, 10},
		{"above slack", 30, 5, 10, 25},
		{"no hysteresis at limit", 5, 5, 0, 0},
		{"no hysteresis over limit", 6, 5, 0, 1},
		{"disabled limit", 1000, 0, 10, 0},
		{"negative limit", 1000, -1, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldEvict(tt.count, tt.limit, tt.hysteresis); got != tt.want {
				t.Errorf("ShouldEvict(%d, %d, %d) = %d, want %d",
					tt.count, tt.limit, tt.hysteresis, got, tt.want)
			}
		})
	}
}

func TestParseDataType(t *testing.T) {
	for _, s := range []string{"text", "image", "file"} {
		if _, err := ParseDataType(s); err != nil {
			t.Errorf("ParseDataType(%q) error = %v", s, err)
		}
	}
	if _, err := ParseDataType("html"); err == nil {
		t.Error("ParseDataType(html) expected error")
	}
}

func TestRecordPreview(t *testing.T) {
	rec := &Record{Content: "full"}
	if rec.Preview() != "full" {
		t.Errorf("Preview() = %q, want content fallback", rec.Preview())
	}

	p := "short"
	rec.ContentPreview = &p
	if rec.Preview() != "short" {
		t.Errorf("Preview() = %q, want %q", rec.Preview(), p)
	}
}

func TestRecordCapturedTime(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rec := &Record{CreatedAt: now.UnixMilli()}
	if !rec.CapturedTime().Equal(now) {
		t.Errorf("CapturedTime() = %v, want %v", rec.CapturedTime(), now)
	}
}

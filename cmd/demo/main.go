// Command demo runs the capture loop against a scripted clipboard and an
// in-memory store, printing how repeats are folded and old records evicted.
package main

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log"
	"time"

	"github.com/yiblet/lark/internal/clipboard"
	"github.com/yiblet/lark/internal/clipboard/mockboard"
	"github.com/yiblet/lark/internal/foreground"
	"github.com/yiblet/lark/internal/history"
	"github.com/yiblet/lark/internal/logging"
	"github.com/yiblet/lark/internal/notify"
	"github.com/yiblet/lark/internal/retention"
	"github.com/yiblet/lark/internal/sampler"
	"github.com/yiblet/lark/internal/store/memstore"
)

const (
	limit      = 4
	hysteresis = 2
	interval   = 20 * time.Millisecond
)

func main() {
	fmt.Println("lark capture demo")
	fmt.Printf("limit %d, hysteresis %d\n\n", limit, hysteresis)

	logger := logging.Setup(logging.FormatText, logging.ParseLevel("warn"))

	st := memstore.NewMemoryStore(memstore.WithHysteresis(hysteresis))
	board := mockboard.New()
	changes := notify.New()

	s := sampler.New(sampler.Deps{
		Clipboard:  board,
		Store:      st,
		Retention:  retention.New(st, limit),
		Foreground: foreground.Static("demo"),
		Notifier:   changes,
		Logger:     logger,
	}, sampler.Options{
		Interval:     interval,
		CaptureText:  true,
		CaptureImage: true,
		CaptureFiles: true,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	swatch := image.NewNRGBA(image.Rect(0, 0, 32, 16))
	for i := 0; i < 32*16; i++ {
		swatch.Set(i%32, i/32, color.NRGBA{R: uint8(i), G: 128, B: 200, A: 255})
	}

	steps := []struct {
		label string
		apply func()
	}{
		{"copy text", func() { board.SetText("hello") }},
		{"copy whitespace only", func() { board.SetText("   \n\t") }},
		{"copy the same text again", func() { board.SetText("hello") }},
		{"copy an image", func() { board.SetImage(clipboard.FromImage(swatch)) }},
		{"copy two files", func() {
			board.SetFiles(
				clipboard.FileEntry{Path: "/tmp/report.pdf", Kind: "file"},
				clipboard.FileEntry{Path: "/tmp/notes", Kind: "directory"},
			)
		}},
	}
	for i := 1; i <= 6; i++ {
		text := fmt.Sprintf("snippet %d", i)
		steps = append(steps, struct {
			label string
			apply func()
		}{"copy " + text, func() { board.SetText(text) }})
	}

	svc := history.NewService(st, board, nil, 0)
	for _, step := range steps {
		before := changes.Raised()
		step.apply()
		time.Sleep(3 * interval)

		count, err := st.Count(ctx)
		if err != nil {
			log.Fatalf("count failed: %v", err)
		}
		fmt.Printf("%-26s records=%d signals=+%d\n", step.label, count, changes.Raised()-before)
	}

	cancel()
	if err := <-done; err != nil {
		log.Fatalf("sampler stopped: %v", err)
	}

	entries, err := svc.ListRecent(context.Background(), 0, 0)
	if err != nil {
		log.Fatalf("list failed: %v", err)
	}
	fmt.Println("\nHistory (newest first):")
	for _, e := range entries {
		fmt.Printf("  #%-3d %-5s %s\n", e.ID, e.DataType, history.Title(e.Record, 60))
	}
}

// Command test-integration renders the history browser against a seeded
// database and checks that every pane border survives the layout.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexflint/go-arg"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yiblet/lark/internal/fingerprint"
	"github.com/yiblet/lark/internal/history"
	"github.com/yiblet/lark/internal/payload"
	"github.com/yiblet/lark/internal/store"
	"github.com/yiblet/lark/internal/store/dbstore"
	"github.com/yiblet/lark/internal/tui"
)

func main() {
	var args struct {
		Width  int `arg:"--width" default:"120" help:"terminal width"`
		Height int `arg:"--height" default:"20" help:"terminal height"`
	}
	arg.MustParse(&args)
	width, height := &args.Width, &args.Height

	fmt.Println("Testing browser layout")
	fmt.Println("======================")

	dir, err := os.MkdirTemp("", "lark-render")
	if err != nil {
		log.Fatalf("Error creating temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	st, err := dbstore.NewSQLiteStore(filepath.Join(dir, "clipboard.db"))
	if err != nil {
		log.Fatalf("Error opening store: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	b := payload.NewBuilder(0, 0, 0)
	samples := []string{
		"Hello, World! This is the first item in our history.",
		"package main\n\nimport \"fmt\"\n\nfunc main() {\n    fmt.Println(\"Hello, Go!\")\n}",
		"SELECT * FROM users WHERE created_at > '2023-01-01' ORDER BY created_at DESC LIMIT 10;",
		"Lorem ipsum dolor sit amet, consectetur adipiscing elit. Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua.",
	}
	for _, text := range samples {
		content, preview := b.Text(text)
		rec := &store.Record{
			Content:        content,
			ContentPreview: preview,
			DataType:       store.DataTypeText,
			Fingerprint:    string(fingerprint.Text(text)),
			Source:         "Terminal",
		}
		if _, err := st.InsertIfNotExist(ctx, rec); err != nil {
			log.Fatalf("Error seeding record: %v", err)
		}
	}

	model := tui.NewAppModel(ctx, history.NewService(st, nil, nil, 0), nil)
	model.Update(tea.WindowSizeMsg{Width: *width, Height: *height})
	drain(model, model.Init())

	lines := strings.Split(model.View(), "\n")
	fmt.Printf("Rendered view (%d lines):\n", len(lines))
	fmt.Println(strings.Repeat("=", *width))
	for i, line := range lines {
		fmt.Printf("Line %2d: %s\n", i, line)
	}
	fmt.Println(strings.Repeat("=", *width))

	ok := true
	for i, line := range lines[:len(lines)-1] {
		if w := lipgloss.Width(line); w > *width {
			fmt.Printf("Line %d is %d cells wide, more than %d\n", i, w, *width)
			ok = false
		}
	}

	// A body row crosses both panes, so it carries four vertical borders
	body := lines[len(lines)/2]
	if n := strings.Count(body, "│"); n != 4 {
		fmt.Printf("Expected 4 border characters in %q, found %d\n", body, n)
		ok = false
	}

	if !ok {
		os.Exit(1)
	}
	fmt.Println("\nLayout check complete!")
}

// drain runs commands synchronously until none are left.
func drain(m tea.Model, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case nil:
	case tea.BatchMsg:
		for _, c := range msg {
			drain(m, c)
		}
	default:
		_, next := m.Update(msg)
		drain(m, next)
	}
}

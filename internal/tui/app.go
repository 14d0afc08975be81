// Package tui is a terminal browser for clipboard history. It lists recent
// records, previews the selected one, searches, and restores entries to the
// clipboard.
package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yiblet/lark/internal/history"
	"github.com/yiblet/lark/internal/store"
)

// UIMode represents the current modal state of the application
type UIMode int

const (
	NormalMode UIMode = iota
	SearchMode
	HelpMode
)

const listLimit = 200

type entriesLoadedMsg struct {
	entries []*history.Entry
	err     error
}

type detailLoadedMsg struct {
	record *store.Record
	err    error
}

type restoredMsg struct {
	record *store.Record
	err    error
}

type changedMsg struct{}

type flashExpiredMsg struct{}

// Service is the part of history.Service the browser uses.
type Service interface {
	ListRecent(ctx context.Context, limit, offset int) ([]*history.Entry, error)
	Get(ctx context.Context, id uint) (*store.Record, error)
	Search(ctx context.Context, keyword string, offset int) ([]*history.Entry, error)
	Restore(ctx context.Context, id uint) (*store.Record, error)
}

// AppModel is the browser's bubbletea model
type AppModel struct {
	ctx     context.Context
	svc     Service
	changes <-chan struct{}

	Width       int
	Height      int
	CurrentMode UIMode

	Entries []*history.Entry
	Cursor  int
	Detail  *store.Record

	SearchInput string // text being typed in search mode
	Keyword     string // active filter

	FlashMessage string
	Err          error
}

// NewAppModel creates the browser. changes may be nil when no sampler runs
// in this process.
func NewAppModel(ctx context.Context, svc Service, changes <-chan struct{}) *AppModel {
	return &AppModel{
		ctx:     ctx,
		svc:     svc,
		changes: changes,
		Width:   100,
		Height:  24,
	}
}

// Run starts the full-screen browser and blocks until it exits.
func Run(ctx context.Context, svc Service, changes <-chan struct{}) error {
	p := tea.NewProgram(NewAppModel(ctx, svc, changes), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// Init loads the first page and starts listening for changes
func (a *AppModel) Init() tea.Cmd {
	return tea.Batch(a.loadEntries(), a.waitForChange())
}

// Update handles app-level messages
func (a *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.Width = max(m.Width, 40)
		a.Height = max(m.Height, 8)
		return a, nil

	case tea.KeyMsg:
		return a.handleKeyPress(m)

	case entriesLoadedMsg:
		if m.err != nil {
			a.Err = m.err
			return a, nil
		}
		a.Err = nil
		a.Entries = m.entries
		a.Cursor = min(a.Cursor, max(len(a.Entries)-1, 0))
		return a, a.loadDetail()

	case detailLoadedMsg:
		if m.err != nil {
			a.Err = m.err
			return a, nil
		}
		a.Detail = m.record
		return a, nil

	case restoredMsg:
		if m.err != nil {
			return a, a.setFlashMessage("restore failed: " + m.err.Error())
		}
		return a, tea.Batch(
			a.setFlashMessage(fmt.Sprintf("copied #%d to clipboard", m.record.ID)),
			a.loadEntries(),
		)

	case changedMsg:
		return a, tea.Batch(a.loadEntries(), a.waitForChange())

	case flashExpiredMsg:
		a.FlashMessage = ""
		return a, nil
	}

	return a, nil
}

// handleKeyPress routes keys by mode
func (a *AppModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return a, tea.Quit
	}

	switch a.CurrentMode {
	case SearchMode:
		return a.handleSearchKey(msg)
	case HelpMode:
		a.CurrentMode = NormalMode
		return a, nil
	}

	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "j", "down":
		if a.Cursor < len(a.Entries)-1 {
			a.Cursor++
			return a, a.loadDetail()
		}
	case "k", "up":
		if a.Cursor > 0 {
			a.Cursor--
			return a, a.loadDetail()
		}
	case "g", "home":
		a.Cursor = 0
		return a, a.loadDetail()
	case "G", "end":
		a.Cursor = max(len(a.Entries)-1, 0)
		return a, a.loadDetail()
	case "enter", "y":
		return a, a.restore()
	case "/":
		a.CurrentMode = SearchMode
		a.SearchInput = a.Keyword
	case "esc":
		if a.Keyword != "" {
			a.Keyword = ""
			a.Cursor = 0
			return a, a.loadEntries()
		}
	case "r":
		return a, a.loadEntries()
	case "?":
		a.CurrentMode = HelpMode
	}

	return a, nil
}

func (a *AppModel) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		a.CurrentMode = NormalMode
		a.SearchInput = ""
		return a, nil
	case tea.KeyEnter:
		a.CurrentMode = NormalMode
		a.Keyword = a.SearchInput
		a.Cursor = 0
		return a, a.loadEntries()
	case tea.KeyBackspace:
		if r := []rune(a.SearchInput); len(r) > 0 {
			a.SearchInput = string(r[:len(r)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		a.SearchInput += string(msg.Runes)
	}
	return a, nil
}

// Selected returns the entry under the cursor.
func (a *AppModel) Selected() *history.Entry {
	if a.Cursor < 0 || a.Cursor >= len(a.Entries) {
		return nil
	}
	return a.Entries[a.Cursor]
}

func (a *AppModel) loadEntries() tea.Cmd {
	keyword := a.Keyword
	return func() tea.Msg {
		var (
			entries []*history.Entry
			err     error
		)
		if keyword != "" {
			entries, err = a.svc.Search(a.ctx, keyword, 0)
		} else {
			entries, err = a.svc.ListRecent(a.ctx, listLimit, 0)
		}
		return entriesLoadedMsg{entries: entries, err: err}
	}
}

func (a *AppModel) loadDetail() tea.Cmd {
	sel := a.Selected()
	if sel == nil {
		a.Detail = nil
		return nil
	}
	id := sel.ID
	return func() tea.Msg {
		rec, err := a.svc.Get(a.ctx, id)
		return detailLoadedMsg{record: rec, err: err}
	}
}

func (a *AppModel) restore() tea.Cmd {
	sel := a.Selected()
	if sel == nil {
		return nil
	}
	id := sel.ID
	return func() tea.Msg {
		rec, err := a.svc.Restore(a.ctx, id)
		return restoredMsg{record: rec, err: err}
	}
}

func (a *AppModel) waitForChange() tea.Cmd {
	if a.changes == nil {
		return nil
	}
	ch := a.changes
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return changedMsg{}
	}
}

// setFlashMessage shows msg until it expires
func (a *AppModel) setFlashMessage(msg string) tea.Cmd {
	a.FlashMessage = msg
	return tea.Tick(2*time.Second, func(time.Time) tea.Msg {
		return flashExpiredMsg{}
	})
}

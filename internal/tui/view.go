package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/yiblet/lark/internal/history"
	"github.com/yiblet/lark/internal/payload"
	"github.com/yiblet/lark/internal/store"
)

const timeLayout = "2006-01-02 15:04:05"

// View method for tea.Model compatibility
func (a *AppModel) View() string {
	return AppView(*a)
}

// AppView renders the whole screen as a pure function of the model
func AppView(model AppModel) string {
	if model.CurrentMode == HelpMode {
		return renderHelpView(model) + "\n" + renderStatusLine(model)
	}

	leftWidth := model.Width * 2 / 5
	rightWidth := model.Width - leftWidth - 4
	bodyHeight := model.Height - 2

	left := listView(model, leftWidth, bodyHeight)
	right := detailView(model, rightWidth, bodyHeight)

	return lipgloss.JoinHorizontal(lipgloss.Top, left, right) + "\n" + renderStatusLine(model)
}

// listView renders the record list
func listView(model AppModel, width, height int) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("205")).
		Padding(0, 1).
		Width(width).
		Height(height - 2)

	var content strings.Builder
	title := "History"
	if model.Keyword != "" {
		title = fmt.Sprintf("Search: %s", model.Keyword)
	}
	content.WriteString(lipgloss.NewStyle().Bold(true).Render(title) + "\n\n")

	if len(model.Entries) == 0 {
		content.WriteString("(nothing captured yet)")
		return style.Render(content.String())
	}

	// Keep the cursor visible by scrolling the window of rows
	rows := max(height-4, 1)
	start := 0
	if model.Cursor >= rows {
		start = model.Cursor - rows + 1
	}
	end := min(start+rows, len(model.Entries))

	for i := start; i < end; i++ {
		entry := model.Entries[i]
		line := entryLine(entry.Record, width-4)
		if i == model.Cursor {
			line = lipgloss.NewStyle().
				Background(lipgloss.Color("62")).
				Foreground(lipgloss.Color("230")).
				Width(width - 2).
				Render(line)
		}
		content.WriteString(line + "\n")
	}

	return style.Render(content.String())
}

func entryLine(rec *store.Record, width int) string {
	marker := "T"
	switch rec.DataType {
	case store.DataTypeImage:
		marker = "I"
	case store.DataTypeFile:
		marker = "F"
	}
	return fmt.Sprintf("%s %s", marker, history.Title(rec, width-2))
}

// detailView renders the selected record
func detailView(model AppModel, width, height int) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		Width(width).
		Height(height - 2)

	if model.Err != nil {
		return style.Render(lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render("Error: " + model.Err.Error()))
	}

	rec := model.Detail
	sel := model.Selected()
	if rec == nil || sel == nil || rec.ID != sel.ID {
		return style.Render("")
	}

	var content strings.Builder
	header := fmt.Sprintf("#%d %s  %s", rec.ID, rec.DataType, rec.CapturedTime().Format(timeLayout))
	content.WriteString(lipgloss.NewStyle().Bold(true).Render(header) + "\n")
	if rec.Source != "" {
		source := rec.Source
		if sel.AppIcon != "" {
			source += "  (" + sel.AppIcon + ")"
		}
		content.WriteString("from " + source + "\n")
	}
	content.WriteString("\n")

	body := detailBody(rec)
	for _, line := range clampLines(WrapText(body, width-2), height-7) {
		content.WriteString(line + "\n")
	}

	return style.Render(content.String())
}

// detailBody turns stored content into displayable text
func detailBody(rec *store.Record) string {
	switch rec.DataType {
	case store.DataTypeImage:
		var data payload.ImageData
		if err := json.Unmarshal([]byte(rec.Content), &data); err != nil {
			return "[unreadable image]"
		}
		return fmt.Sprintf("Image %d x %d px\n\nPress enter to copy it back to the clipboard.", data.Width, data.Height)
	case store.DataTypeFile:
		paths, err := payload.DecodeFiles(rec.Content)
		if err != nil {
			return "[unreadable file list]"
		}
		return fmt.Sprintf("%d file(s)\n\n%s", len(paths), strings.Join(paths, "\n"))
	default:
		return rec.Content
	}
}

// renderStatusLine renders the bottom status line (pure function)
func renderStatusLine(model AppModel) string {
	if model.FlashMessage != "" {
		return lipgloss.NewStyle().
			Width(model.Width).
			Foreground(lipgloss.Color("10")).
			Render(model.FlashMessage)
	}

	var statusLine string
	switch model.CurrentMode {
	case SearchMode:
		statusLine = fmt.Sprintf("/%s (Enter to search, Esc to cancel)", model.SearchInput)
	case HelpMode:
		statusLine = "Press any key to return"
	default:
		statusLine = fmt.Sprintf("%d records - ? for help, q to quit", len(model.Entries))
		if model.Keyword != "" {
			statusLine = fmt.Sprintf("%d matches for %q - Esc to clear", len(model.Entries), model.Keyword)
		}
	}

	return lipgloss.NewStyle().Width(model.Width).Render(statusLine)
}

// renderHelpView renders the help content as a single pane (pure function)
func renderHelpView(model AppModel) string {
	helpContent := `lark - Clipboard History

NAVIGATION:
  j, ↓        Next record
  k, ↑        Previous record
  g, G        First / last record

ACTIONS:
  Enter, y    Copy the selected record back to the clipboard
  /           Search text, file paths and source apps
  Esc         Clear the active search
  r           Reload

  q, Ctrl+c   Quit

The list refreshes by itself while the watcher is capturing.`

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(1).
		Width(model.Width - 4).
		Height(model.Height - 4).
		Render(helpContent)
}

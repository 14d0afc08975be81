// Package history is the command surface the UI layers use to browse
// clipboard history and put old entries back on the clipboard.
package history

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yiblet/lark/internal/clipboard"
	"github.com/yiblet/lark/internal/payload"
	"github.com/yiblet/lark/internal/store"
)

// DefaultPageSize is used for search pages when none is configured.
const DefaultPageSize = 50

// Records is the read side of the record store.
type Records interface {
	FindRecent(ctx context.Context, limit, offset int) ([]*store.Record, error)
	FindByID(ctx context.Context, id uint) (*store.Record, error)
	Search(ctx context.Context, query *store.SearchQuery) ([]*store.Record, error)
}

// Entry is a listed record enriched with the icon of its source app.
type Entry struct {
	*store.Record
	AppIcon string `json:"app_icon,omitempty"`
}

// Service implements list, get, search and restore.
type Service struct {
	records  Records
	board    clipboard.Clipboard
	icons    IconResolver
	pageSize int
}

// NewService creates a Service. board may be nil for read-only use; icons
// may be nil to skip enrichment.
func NewService(records Records, board clipboard.Clipboard, icons IconResolver, pageSize int) *Service {
	if icons == nil {
		icons = NoIcons{}
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Service{
		records:  records,
		board:    board,
		icons:    icons,
		pageSize: pageSize,
	}
}

// PageSize returns the search page size.
func (s *Service) PageSize() int {
	return s.pageSize
}

// ListRecent returns records newest first with app icons resolved.
func (s *Service) ListRecent(ctx context.Context, limit, offset int) ([]*Entry, error) {
	records, err := s.records.FindRecent(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return s.enrich(ctx, records), nil
}

// Get returns a record with its full content.
func (s *Service) Get(ctx context.Context, id uint) (*store.Record, error) {
	return s.records.FindByID(ctx, id)
}

// Search returns one page of records matching keyword.
func (s *Service) Search(ctx context.Context, keyword string, offset int) ([]*Entry, error) {
	records, err := s.records.Search(ctx, &store.SearchQuery{
		Keyword: keyword,
		Limit:   s.pageSize,
		Offset:  offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search records: %w", err)
	}
	return s.enrich(ctx, records), nil
}

// Restore writes a record back to the clipboard. File lists are restored
// as newline separated paths.
func (s *Service) Restore(ctx context.Context, id uint) (*store.Record, error) {
	if s.board == nil {
		return nil, errors.New("no clipboard available")
	}

	rec, err := s.records.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch rec.DataType {
	case store.DataTypeImage:
		img, err := payload.DecodeImage(rec.Content)
		if err != nil {
			return nil, err
		}
		err = s.board.WriteImage(ctx, img)
		if err != nil {
			return nil, fmt.Errorf("failed to write image: %w", err)
		}
	case store.DataTypeFile:
		paths, err := payload.DecodeFiles(rec.Content)
		if err != nil {
			return nil, err
		}
		if err := s.board.WriteText(ctx, strings.Join(paths, "\n")); err != nil {
			return nil, fmt.Errorf("failed to write paths: %w", err)
		}
	default:
		if err := s.board.WriteText(ctx, rec.Content); err != nil {
			return nil, fmt.Errorf("failed to write text: %w", err)
		}
	}

	return rec, nil
}

// enrich resolves each distinct source once per call.
func (s *Service) enrich(ctx context.Context, records []*store.Record) []*Entry {
	cache := make(map[string]string)
	entries := make([]*Entry, len(records))

	for i, rec := range records {
		icon, ok := cache[rec.Source]
		if !ok {
			if rec.Source != "" {
				// Icons are cosmetic; a failed lookup leaves the entry bare.
				icon, _ = s.icons.Icon(ctx, rec.Source)
			}
			cache[rec.Source] = icon
		}
		entries[i] = &Entry{Record: rec, AppIcon: icon}
	}

	return entries
}

// IconResolver looks up an application icon by source label. It returns
// base64 image data, or "" when there is no icon.
type IconResolver interface {
	Icon(ctx context.Context, source string) (string, error)
}

// NoIcons resolves nothing.
type NoIcons struct{}

// Icon implements IconResolver
func (NoIcons) Icon(context.Context, string) (string, error) { return "", nil }

// DirIcons reads <dir>/<source>.png, the layout an external icon extractor
// writes.
type DirIcons string

// Icon implements IconResolver
func (d DirIcons) Icon(_ context.Context, source string) (string, error) {
	name := iconFileName(source)
	if d == "" || name == "" {
		return "", nil
	}

	data, err := os.ReadFile(filepath.Join(string(d), name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read icon: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// iconFileName maps a label to a safe file name.
func iconFileName(source string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, strings.TrimSpace(source))
	if name == "" || name == "." || name == ".." {
		return ""
	}
	return name + ".png"
}

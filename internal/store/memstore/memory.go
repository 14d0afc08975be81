// Package memstore provides an in-memory implementation of store.RecordStore.
// It is used by tests and by `lark watch --memory`; nothing is persisted.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yiblet/lark/internal/store"
)

type identity struct {
	fingerprint string
	dataType    store.DataType
}

// MemoryStore is an in-memory implementation of store.RecordStore.
// It uses maps for storage and is thread-safe via a RWMutex.
type MemoryStore struct {
	mu         sync.RWMutex
	records    map[uint]*store.Record
	byIdentity map[identity]uint
	nextID     uint
	hysteresis int
	now        func() time.Time
}

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithClock overrides the time source used for created_at.
func WithClock(now func() time.Time) Option {
	return func(m *MemoryStore) { m.now = now }
}

// WithHysteresis sets the eviction slack. Negative values are ignored.
func WithHysteresis(n int) Option {
	return func(m *MemoryStore) {
		if n >= 0 {
			m.hysteresis = n
		}
	}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	m := &MemoryStore{
		records:    make(map[uint]*store.Record),
		byIdentity: make(map[identity]uint),
		nextID:     1,
		hysteresis: store.DefaultHysteresis,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// InsertIfNotExist stores rec or touches the record sharing its identity.
func (m *MemoryStore) InsertIfNotExist(_ context.Context, rec *store.Record) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UnixMilli()
	key := identity{rec.Fingerprint, rec.DataType}

	if id, ok := m.byIdentity[key]; ok {
		m.records[id].CreatedAt = now
		rec.ID = id
		rec.CreatedAt = now
		return false, nil
	}

	stored := *rec
	stored.ID = m.nextID
	stored.CreatedAt = now
	if rec.ContentPreview != nil {
		p := *rec.ContentPreview
		stored.ContentPreview = &p
	}
	m.nextID++

	m.records[stored.ID] = &stored
	m.byIdentity[key] = stored.ID
	rec.ID = stored.ID
	rec.CreatedAt = now
	return true, nil
}

// FindRecent returns records newest first without content.
func (m *MemoryStore) FindRecent(_ context.Context, limit, offset int) ([]*store.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return page(m.sorted(nil), limit, offset), nil
}

// FindByID returns a copy of the record including content.
func (m *MemoryStore) FindByID(_ context.Context, id uint) (*store.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("record %d: %w", id, store.ErrNotFound)
	}
	cp := *rec
	return &cp, nil
}

// Search filters records the same way the SQLite store does.
func (m *MemoryStore) Search(_ context.Context, q *store.SearchQuery) ([]*store.Record, error) {
	if q == nil {
		q = &store.SearchQuery{}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if strings.TrimSpace(q.Keyword) == "" {
		return page(m.sorted(nil), q.Limit, q.Offset), nil
	}
	keyword := strings.ToLower(q.Keyword)

	match := func(rec *store.Record) bool {
		if strings.Contains(strings.ToLower(rec.Source), keyword) {
			return true
		}
		if rec.DataType == store.DataTypeImage {
			return false
		}
		return strings.Contains(strings.ToLower(rec.Content), keyword) ||
			strings.Contains(strings.ToLower(rec.Preview()), keyword)
	}

	return page(m.sorted(match), q.Limit, q.Offset), nil
}

// DeleteOverLimit evicts the oldest records once count reaches limit plus
// hysteresis.
func (m *MemoryStore) DeleteOverLimit(_ context.Context, limit int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := store.ShouldEvict(len(m.records), limit, m.hysteresis)
	if n == 0 {
		return false, nil
	}

	all := m.sorted(nil)
	for _, rec := range all[len(all)-n:] {
		victim := m.records[rec.ID]
		delete(m.byIdentity, identity{victim.Fingerprint, victim.DataType})
		delete(m.records, rec.ID)
	}
	return true, nil
}

// Count returns the number of records.
func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}

// sorted returns listing copies (no content) newest first, optionally
// filtered. Caller must hold the lock.
func (m *MemoryStore) sorted(keep func(*store.Record) bool) []*store.Record {
	out := make([]*store.Record, 0, len(m.records))
	for _, rec := range m.records {
		if keep != nil && !keep(rec) {
			continue
		}
		cp := *rec
		cp.Content = ""
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func page(records []*store.Record, limit, offset int) []*store.Record {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(records) {
		return []*store.Record{}
	}
	records = records[offset:]
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	return records
}

package dbstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yiblet/lark/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// dsnParams puts the database in WAL mode so listings never wait on the
// sampler's writes, and makes write transactions take the lock up front.
const dsnParams = "_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate"

// SQLiteStore is a SQLite-backed implementation of store.RecordStore
type SQLiteStore struct {
	db         *gorm.DB
	dbPath     string
	hysteresis int
	now        func() time.Time
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithClock overrides the time source used for created_at.
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStore) { s.now = now }
}

// WithHysteresis sets the eviction slack. Negative values are ignored.
func WithHysteresis(n int) Option {
	return func(s *SQLiteStore) {
		if n >= 0 {
			s.hysteresis = n
		}
	}
}

// NewSQLiteStore opens (or creates) the record database at dbPath and
// migrates its schema. Every caller gets its own handle, so the sampler and
// foreground readers should each call this.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(dsn(dbPath)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&RecordModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	s := &SQLiteStore{
		db:         db,
		dbPath:     dbPath,
		hysteresis: store.DefaultHysteresis,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + dsnParams
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// InsertIfNotExist stores rec or touches the existing record with the same
// identity, in a single transaction.
func (s *SQLiteStore) InsertIfNotExist(ctx context.Context, rec *store.Record) (bool, error) {
	now := s.now().UnixMilli()
	var (
		id       uint
		inserted bool
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing RecordModel
		err := tx.Select("id").
			Where("fingerprint = ? AND data_type = ?", rec.Fingerprint, string(rec.DataType)).
			Take(&existing).Error

		switch {
		case err == nil:
			if err := tx.Model(&RecordModel{}).
				Where("id = ?", existing.ID).
				Update("created_at", now).Error; err != nil {
				return fmt.Errorf("failed to touch record: %w", err)
			}
			id = existing.ID
		case errors.Is(err, gorm.ErrRecordNotFound):
			model := fromRecord(rec)
			model.CapturedAt = now
			if err := tx.Create(model).Error; err != nil {
				return fmt.Errorf("failed to create record: %w", err)
			}
			id = model.ID
			inserted = true
		default:
			return fmt.Errorf("failed to look up record: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	rec.ID = id
	rec.CreatedAt = now
	return inserted, nil
}

// FindRecent returns records newest first without their full content
func (s *SQLiteStore) FindRecent(ctx context.Context, limit, offset int) ([]*store.Record, error) {
	var models []*RecordModel

	query := s.db.WithContext(ctx).
		Select(listColumns).
		Order("created_at DESC, id DESC")
	query = paginate(query, limit, offset)

	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	return toRecords(models), nil
}

// FindByID retrieves a single record including its content
func (s *SQLiteStore) FindByID(ctx context.Context, id uint) (*store.Record, error) {
	var model RecordModel

	if err := s.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("record %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	return model.ToRecord(), nil
}

// Search matches the keyword against text and file-list payloads and the
// record source. Image payloads are base64 and never matched by content.
func (s *SQLiteStore) Search(ctx context.Context, q *store.SearchQuery) ([]*store.Record, error) {
	if q == nil {
		q = &store.SearchQuery{}
	}
	if strings.TrimSpace(q.Keyword) == "" {
		return s.FindRecent(ctx, q.Limit, q.Offset)
	}

	pattern := "%" + escapeLike(q.Keyword) + "%"
	searchable := []string{string(store.DataTypeText), string(store.DataTypeFile)}

	var models []*RecordModel
	query := s.db.WithContext(ctx).
		Select(listColumns).
		Where(
			s.db.Where("data_type IN ?", searchable).
				Where(s.db.Where(`content LIKE ? ESCAPE '\'`, pattern).
					Or(`content_preview LIKE ? ESCAPE '\'`, pattern)),
		).
		Or(`source LIKE ? ESCAPE '\'`, pattern).
		Order("created_at DESC, id DESC")
	query = paginate(query, q.Limit, q.Offset)

	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to search records: %w", err)
	}

	return toRecords(models), nil
}

// DeleteOverLimit evicts the oldest records by created_at once the count
// reaches limit plus hysteresis
func (s *SQLiteStore) DeleteOverLimit(ctx context.Context, limit int) (bool, error) {
	if limit <= 0 {
		return false, nil
	}

	evicted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&RecordModel{}).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count records: %w", err)
		}

		n := store.ShouldEvict(int(count), limit, s.hysteresis)
		if n == 0 {
			return nil
		}

		var ids []uint
		if err := tx.Model(&RecordModel{}).
			Order("created_at ASC, id ASC").
			Limit(n).
			Pluck("id", &ids).Error; err != nil {
			return fmt.Errorf("failed to find oldest records: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}

		if err := tx.Delete(&RecordModel{}, ids).Error; err != nil {
			return fmt.Errorf("failed to delete records: %w", err)
		}
		evicted = true
		return nil
	})

	return evicted, err
}

// Count returns the total number of records
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&RecordModel{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return int(count), nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func paginate(query *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}

func toRecords(models []*RecordModel) []*store.Record {
	records := make([]*store.Record, len(models))
	for i, model := range models {
		records[i] = model.ToRecord()
	}
	return records
}

// escapeLike escapes LIKE wildcards so the keyword matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

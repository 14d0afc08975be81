package dbstore

import (
	"github.com/yiblet/lark/internal/store"
)

// RecordModel represents a clipboard record in the database.
// CapturedAt maps to created_at but is not named CreatedAt so that gorm does
// not manage it; the store sets it explicitly on insert and touch.
type RecordModel struct {
	ID             uint    `gorm:"primaryKey;autoIncrement"`
	Content        string  `gorm:"type:text;not null"`                                           // Full payload
	ContentPreview *string `gorm:"type:text"`                                                    // Bounded display form
	DataType       string  `gorm:"size:20;not null;uniqueIndex:idx_records_identity,priority:2"` // text, image or file
	Fingerprint    string  `gorm:"size:64;not null;uniqueIndex:idx_records_identity,priority:1"` // Content hash
	Source         string  `gorm:"size:255;not null;default:''"`                                 // Foreground app label
	CapturedAt     int64   `gorm:"column:created_at;not null;index:idx_records_created_at,sort:desc"`
}

// TableName returns the table name for RecordModel
func (RecordModel) TableName() string {
	return "records"
}

// listColumns are the columns loaded for listings. Content is left out so
// large payloads never leave the database on a list call.
var listColumns = []string{"id", "content_preview", "data_type", "fingerprint", "source", "created_at"}

// ToRecord converts the GORM model to a store.Record
func (m *RecordModel) ToRecord() *store.Record {
	return &store.Record{
		ID:             m.ID,
		Content:        m.Content,
		ContentPreview: m.ContentPreview,
		DataType:       store.DataType(m.DataType),
		Fingerprint:    m.Fingerprint,
		Source:         m.Source,
		CreatedAt:      m.CapturedAt,
	}
}

func fromRecord(rec *store.Record) *RecordModel {
	return &RecordModel{
		Content:        rec.Content,
		ContentPreview: rec.ContentPreview,
		DataType:       string(rec.DataType),
		Fingerprint:    rec.Fingerprint,
		Source:         rec.Source,
	}
}

package store

import (
	"fmt"
	"time"
)

// DataType determines how a record's content and preview are encoded.
type DataType string

const (
	// DataTypeText holds raw text in Content.
	DataTypeText DataType = "text"
	// DataTypeImage holds {"width","height","base64"} JSON with PNG data in
	// Content and JPEG data in ContentPreview.
	DataTypeImage DataType = "image"
	// DataTypeFile holds a JSON array of paths.
	DataTypeFile DataType = "file"
)

// ParseDataType validates a data type name.
func ParseDataType(s string) (DataType, error) {
	switch DataType(s) {
	case DataTypeText, DataTypeImage, DataTypeFile:
		return DataType(s), nil
	}
	return "", fmt.Errorf("unknown data type %q", s)
}

// Record is one clipboard observation.
type Record struct {
	// ID is assigned by the store.
	ID uint `json:"id"`

	// Content is the full payload. Listing calls leave it empty.
	Content string `json:"content,omitempty"`

	// ContentPreview is a bounded representation for display.
	ContentPreview *string `json:"content_preview,omitempty"`

	DataType DataType `json:"data_type"`

	// Fingerprint is the content hash, unique together with DataType.
	Fingerprint string `json:"fingerprint"`

	// Source is the foreground application at capture time, if known.
	Source string `json:"source"`

	// CreatedAt is the capture or last-seen time in milliseconds since epoch.
	CreatedAt int64 `json:"created_at"`
}

// CapturedTime returns CreatedAt as a time.Time.
func (r *Record) CapturedTime() time.Time {
	return time.UnixMilli(r.CreatedAt)
}

// Preview returns the preview if set, otherwise the content.
func (r *Record) Preview() string {
	if r.ContentPreview != nil {
		return *r.ContentPreview
	}
	return r.Content
}

// SearchQuery contains parameters for searching records.
type SearchQuery struct {
	// Keyword is matched case-insensitively as a substring of text and
	// file-list content, and of the record source.
	Keyword string

	// Limit is the maximum number of results. 0 means no limit.
	Limit int

	// Offset skips this many results.
	Offset int
}

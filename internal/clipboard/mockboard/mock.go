// Package mockboard provides a scriptable clipboard for tests.
package mockboard

import (
	"context"
	"sync"

	"github.com/yiblet/lark/internal/clipboard"
)

// MockClipboard implements clipboard.Clipboard in memory. Each read can be
// made to fail by setting the matching error.
type MockClipboard struct {
	mu    sync.Mutex
	text  string
	img   *clipboard.Image
	files []clipboard.FileEntry

	TextErr  error
	ImageErr error
	FilesErr error

	reads int
}

// New creates an empty MockClipboard
func New() *MockClipboard {
	return &MockClipboard{}
}

// ReadText implements clipboard.Clipboard
func (m *MockClipboard) ReadText(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.TextErr != nil {
		return "", m.TextErr
	}
	return m.text, nil
}

// ReadImage implements clipboard.Clipboard
func (m *MockClipboard) ReadImage(_ context.Context) (*clipboard.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.ImageErr != nil {
		return nil, m.ImageErr
	}
	return m.img, nil
}

// ReadFileList implements clipboard.Clipboard
func (m *MockClipboard) ReadFileList(_ context.Context) ([]clipboard.FileEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.FilesErr != nil {
		return nil, m.FilesErr
	}
	return m.files, nil
}

// WriteText replaces the mock contents with text, like a real clipboard.
func (m *MockClipboard) WriteText(_ context.Context, text string) error {
	m.SetText(text)
	return nil
}

// WriteImage replaces the mock contents with an image.
func (m *MockClipboard) WriteImage(_ context.Context, img *clipboard.Image) error {
	m.SetImage(img)
	return nil
}

// SetText sets clipboard text and clears other representations (for testing)
func (m *MockClipboard) SetText(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text, m.img, m.files = text, nil, nil
}

// SetImage sets the clipboard image and clears other representations (for testing)
func (m *MockClipboard) SetImage(img *clipboard.Image) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text, m.img, m.files = "", img, nil
}

// SetFiles sets a file list and clears other representations (for testing)
func (m *MockClipboard) SetFiles(entries ...clipboard.FileEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text, m.img, m.files = "", nil, entries
}

// SetAll sets every representation at once, as some platforms expose text
// alongside a file drop (for testing)
func (m *MockClipboard) SetAll(text string, img *clipboard.Image, files []clipboard.FileEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text, m.img, m.files = text, img, files
}

// Text returns the current clipboard text (for testing)
func (m *MockClipboard) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}

// Image returns the current clipboard image (for testing)
func (m *MockClipboard) Image() *clipboard.Image {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.img
}

// Reads returns how many read calls were made (for testing)
func (m *MockClipboard) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

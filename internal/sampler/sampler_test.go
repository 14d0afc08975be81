package sampler

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yiblet/lark/internal/clipboard"
	"github.com/yiblet/lark/internal/clipboard/mockboard"
	"github.com/yiblet/lark/internal/notify"
	"github.com/yiblet/lark/internal/retention"
	"github.com/yiblet/lark/internal/store"
	"github.com/yiblet/lark/internal/store/memstore"
)

func steppingClock() func() time.Time {
	var mu sync.Mutex
	ms := int64(1_700_000_000_000)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		ms++
		return time.UnixMilli(ms)
	}
}

type countingLookup struct {
	mu    sync.Mutex
	calls int
}

func (c *countingLookup) ActiveAppLabel(context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return "Editor", nil
}

type harness struct {
	board  *mockboard.MockClipboard
	store  *memstore.MemoryStore
	signal *notify.Signal
	s      *Sampler
}

func newHarness(t *testing.T, limit int) *harness {
	t.Helper()
	h := &harness{
		board:  mockboard.New(),
		store:  memstore.NewMemoryStore(memstore.WithClock(steppingClock())),
		signal: notify.New(),
	}
	h.s = New(Deps{
		Clipboard: h.board,
		Store:     h.store,
		Retention: retention.New(h.store, limit),
		Notifier:  h.signal,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, DefaultOptions())
	return h
}

func (h *harness) records(t *testing.T) []*store.Record {
	t.Helper()
	recs, err := h.store.FindRecent(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("FindRecent() error = %v", err)
	}
	return recs
}

func testImage(shade byte) *clipboard.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = shade
	}
	return clipboard.FromImage(img)
}

func TestSampler_EndToEnd(t *testing.T) {
	h := newHarness(t, 100)
	ctx := context.Background()
	var seen lastSeen

	h.board.SetText("hello")
	if !h.s.cycle(ctx, &seen) {
		t.Error("first observation should raise the change signal")
	}

	recs := h.records(t)
	if len(recs) != 1 {
		t.Fatalf("records = %d, want 1", len(recs))
	}
	full, _ := h.store.FindByID(ctx, recs[0].ID)
	if full.DataType != store.DataTypeText || full.Content != "hello" || full.Preview() != "hello" {
		t.Errorf("record = %+v", full)
	}
	firstSeen := full.CreatedAt

	// Same value on the next cycle is short-circuited by the loop.
	if h.s.cycle(ctx, &seen) {
		t.Error("unchanged clipboard should not raise the change signal")
	}

	// A fresh loop sees "hello" again and touches the existing row.
	var restarted lastSeen
	if h.s.cycle(ctx, &restarted) {
		t.Error("a touch should not raise the change signal")
	}
	recs = h.records(t)
	if len(recs) != 1 {
		t.Fatalf("records = %d, want 1", len(recs))
	}
	if recs[0].CreatedAt <= firstSeen {
		t.Errorf("created_at = %d, want > %d", recs[0].CreatedAt, firstSeen)
	}

	h.board.SetText("world")
	if !h.s.cycle(ctx, &restarted) {
		t.Error("new text should raise the change signal")
	}
	recs = h.records(t)
	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2", len(recs))
	}
	if recs[0].Preview() != "world" || recs[1].Preview() != "hello" {
		t.Errorf("order = %q, %q; want world, hello", recs[0].Preview(), recs[1].Preview())
	}

	if h.signal.Raised() != 2 {
		t.Errorf("Raised() = %d, want 2", h.signal.Raised())
	}
}

func TestSampler_WhitespaceNeverStored(t *testing.T) {
	h := newHarness(t, 100)
	var seen lastSeen

	for _, text := range []string{"   ", "\n\t", ""} {
		h.board.SetText(text)
		h.s.cycle(context.Background(), &seen)
	}

	if n, _ := h.store.Count(context.Background()); n != 0 {
		t.Errorf("Count() = %d, want 0", n)
	}
}

func TestSampler_UntrimmedIdentity(t *testing.T) {
	h := newHarness(t, 100)
	var seen lastSeen

	h.board.SetText("hello")
	h.s.cycle(context.Background(), &seen)
	h.board.SetText("hello\n")
	h.s.cycle(context.Background(), &seen)

	if n, _ := h.store.Count(context.Background()); n != 2 {
		t.Errorf("Count() = %d, want 2 distinct records", n)
	}
}

func TestSampler_LongTextPreview(t *testing.T) {
	h := newHarness(t, 100)
	var seen lastSeen

	h.board.SetText(strings.Repeat("z", 5000))
	h.s.cycle(context.Background(), &seen)

	recs := h.records(t)
	if len(recs) != 1 {
		t.Fatalf("records = %d, want 1", len(recs))
	}
	full, _ := h.store.FindByID(context.Background(), recs[0].ID)
	if len(full.Content) != 5000 {
		t.Errorf("content length = %d, want 5000", len(full.Content))
	}
	if len(*full.ContentPreview) != 1000 {
		t.Errorf("preview length = %d, want 1000", len(*full.ContentPreview))
	}
}

func TestSampler_FileListTakesPriority(t *testing.T) {
	h := newHarness(t, 100)
	var seen lastSeen

	h.board.SetAll("/tmp/b\n/tmp/a", testImage(9), []clipboard.FileEntry{
		{Path: "/tmp/b", Kind: "file"},
		{Path: "/tmp/a", Kind: "file"},
	})
	h.s.cycle(context.Background(), &seen)

	recs := h.records(t)
	if len(recs) != 1 {
		t.Fatalf("records = %d, want only the file list", len(recs))
	}
	if recs[0].DataType != store.DataTypeFile {
		t.Errorf("DataType = %s, want file", recs[0].DataType)
	}
	full, _ := h.store.FindByID(context.Background(), recs[0].ID)
	if full.Content != `["/tmp/a","/tmp/b"]` {
		t.Errorf("content = %s, want canonical order", full.Content)
	}
}

func TestSampler_TextAndImageSameCycle(t *testing.T) {
	h := newHarness(t, 100)
	var seen lastSeen

	h.board.SetAll("caption", testImage(200), nil)
	h.s.cycle(context.Background(), &seen)

	recs := h.records(t)
	if len(recs) != 2 {
		t.Fatalf("records = %d, want text and image", len(recs))
	}
	if h.signal.Raised() != 1 {
		t.Errorf("Raised() = %d, want one signal per cycle", h.signal.Raised())
	}
}

func TestSampler_ImageDedupByPixels(t *testing.T) {
	h := newHarness(t, 100)
	var seen lastSeen

	h.board.SetImage(testImage(50))
	h.s.cycle(context.Background(), &seen)

	// A restarted loop re-reads identical pixels: touch, not insert.
	var restarted lastSeen
	h.board.SetImage(testImage(50))
	h.s.cycle(context.Background(), &restarted)

	h.board.SetImage(testImage(51))
	h.s.cycle(context.Background(), &restarted)

	recs := h.records(t)
	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2", len(recs))
	}
	for _, rec := range recs {
		if rec.DataType != store.DataTypeImage {
			t.Errorf("DataType = %s, want image", rec.DataType)
		}
	}
}

func TestSampler_ReadFailureDoesNotAbortCycle(t *testing.T) {
	h := newHarness(t, 100)
	var seen lastSeen

	h.board.SetAll("still captured", nil, nil)
	h.board.FilesErr = errors.New("clipboard busy")
	h.board.ImageErr = errors.New("decode failed")
	h.s.cycle(context.Background(), &seen)

	recs := h.records(t)
	if len(recs) != 1 || recs[0].Preview() != "still captured" {
		t.Errorf("records = %+v, want the text record", recs)
	}
}

type flakyStore struct {
	*memstore.MemoryStore
	failures int
}

func (f *flakyStore) InsertIfNotExist(ctx context.Context, rec *store.Record) (bool, error) {
	if f.failures > 0 {
		f.failures--
		return false, errors.New("database is locked")
	}
	return f.MemoryStore.InsertIfNotExist(ctx, rec)
}

func TestSampler_StoreFailureRetriesNextCycle(t *testing.T) {
	st := &flakyStore{MemoryStore: memstore.NewMemoryStore(), failures: 1}
	board := mockboard.New()
	s := New(Deps{
		Clipboard: board,
		Store:     st,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, DefaultOptions())
	var seen lastSeen

	board.SetText("retry me")
	if s.cycle(context.Background(), &seen) {
		t.Error("failed insert should not report a change")
	}
	if !s.cycle(context.Background(), &seen) {
		t.Error("next cycle should retry and insert")
	}
	if n, _ := st.Count(context.Background()); n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}
}

func TestSampler_EvictionRaisesSignal(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	// Fill to limit+hysteresis-1 without the sampler.
	for i := 0; i < 10; i++ {
		h.store.InsertIfNotExist(ctx, &store.Record{DataType: store.DataTypeText, Fingerprint: string(rune('a' + i))})
	}

	var seen lastSeen
	h.board.SetText("eleventh")
	if !h.s.cycle(ctx, &seen) {
		t.Fatal("expected change signal")
	}
	if n, _ := h.store.Count(ctx); n != 1 {
		t.Errorf("Count() = %d, want 1 after eviction", n)
	}

	recs := h.records(t)
	if recs[0].Preview() != "eleventh" {
		t.Errorf("survivor = %q, want the newest record", recs[0].Preview())
	}
}

func TestSampler_CaptureSwitches(t *testing.T) {
	board := mockboard.New()
	st := memstore.NewMemoryStore()
	opts := DefaultOptions()
	opts.CaptureText = false
	opts.CaptureFiles = false
	s := New(Deps{Clipboard: board, Store: st, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}, opts)
	var seen lastSeen

	board.SetAll("ignored", testImage(1), []clipboard.FileEntry{{Path: "/ignored"}})
	s.cycle(context.Background(), &seen)

	recs, _ := st.FindRecent(context.Background(), 0, 0)
	if len(recs) != 1 || recs[0].DataType != store.DataTypeImage {
		t.Errorf("records = %+v, want only the image", recs)
	}
}

func TestSampler_SourceLookedUpOncePerCycle(t *testing.T) {
	board := mockboard.New()
	st := memstore.NewMemoryStore()
	lookup := &countingLookup{}
	s := New(Deps{
		Clipboard:  board,
		Store:      st,
		Foreground: lookup,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, DefaultOptions())
	var seen lastSeen

	board.SetAll("text", testImage(3), nil)
	s.cycle(context.Background(), &seen)
	s.cycle(context.Background(), &seen) // nothing new, no lookup

	if lookup.calls != 1 {
		t.Errorf("lookups = %d, want 1", lookup.calls)
	}
	recs, _ := st.FindRecent(context.Background(), 0, 0)
	for _, rec := range recs {
		if rec.Source != "Editor" {
			t.Errorf("Source = %q, want Editor", rec.Source)
		}
	}
}

func TestSampler_RunStopsOnCancel(t *testing.T) {
	h := newHarness(t, 100)
	h.s.opts.Interval = 5 * time.Millisecond
	h.board.SetText("background")

	changes, cancelSub := h.signal.Subscribe()
	defer cancelSub()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.s.Run(ctx) }()

	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("sampler never raised a change")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}

	if n, _ := h.store.Count(context.Background()); n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}
}

package history

import (
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/yiblet/lark/internal/clipboard"
	"github.com/yiblet/lark/internal/clipboard/mockboard"
	"github.com/yiblet/lark/internal/payload"
	"github.com/yiblet/lark/internal/store"
	"github.com/yiblet/lark/internal/store/memstore"
)

type countingIcons struct {
	lookups map[string]int
}

func (c *countingIcons) Icon(_ context.Context, source string) (string, error) {
	c.lookups[source]++
	return "icon-" + source, nil
}

func seed(t *testing.T, st *memstore.MemoryStore, recs ...*store.Record) {
	t.Helper()
	for _, rec := range recs {
		if _, err := st.InsertIfNotExist(context.Background(), rec); err != nil {
			t.Fatalf("InsertIfNotExist() error = %v", err)
		}
	}
}

func textRec(text, source string) *store.Record {
	b := payload.NewBuilder(0, 0, 0)
	content, preview := b.Text(text)
	return &store.Record{
		Content:        content,
		ContentPreview: preview,
		DataType:       store.DataTypeText,
		Fingerprint:    "fp-" + text,
		Source:         source,
	}
}

func TestService_ListRecentCachesIcons(t *testing.T) {
	st := memstore.NewMemoryStore()
	seed(t, st,
		textRec("a", "Terminal"),
		textRec("b", "Terminal"),
		textRec("c", "Firefox"),
		textRec("d", ""),
	)

	icons := &countingIcons{lookups: map[string]int{}}
	svc := NewService(st, nil, icons, 0)

	entries, err := svc.ListRecent(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("ListRecent() = %d entries, want 4", len(entries))
	}
	if icons.lookups["Terminal"] != 1 || icons.lookups["Firefox"] != 1 {
		t.Errorf("lookups = %v, want one per source", icons.lookups)
	}
	if _, ok := icons.lookups[""]; ok {
		t.Error("empty source should not be looked up")
	}
	for _, e := range entries {
		want := ""
		if e.Source != "" {
			want = "icon-" + e.Source
		}
		if e.AppIcon != want {
			t.Errorf("entry %d icon = %q, want %q", e.ID, e.AppIcon, want)
		}
	}
}

func TestService_SearchUsesPageSize(t *testing.T) {
	st := memstore.NewMemoryStore()
	for _, s := range []string{"match 1", "match 2", "match 3", "other"} {
		seed(t, st, textRec(s, ""))
	}
	svc := NewService(st, nil, nil, 2)

	first, err := svc.Search(context.Background(), "match", 0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	second, err := svc.Search(context.Background(), "match", 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(first) != 2 || len(second) != 1 {
		t.Errorf("pages = %d, %d; want 2, 1", len(first), len(second))
	}
}

func TestService_GetMissing(t *testing.T) {
	svc := NewService(memstore.NewMemoryStore(), nil, nil, 0)
	if _, err := svc.Get(context.Background(), 7); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestService_RestoreText(t *testing.T) {
	st := memstore.NewMemoryStore()
	seed(t, st, textRec("  hello\n", ""))
	board := mockboard.New()
	svc := NewService(st, board, nil, 0)

	entries, _ := svc.ListRecent(context.Background(), 1, 0)
	if _, err := svc.Restore(context.Background(), entries[0].ID); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if board.Text() != "  hello\n" {
		t.Errorf("clipboard = %q, want the untrimmed content", board.Text())
	}
}

func TestService_RestoreImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	for i := range src.Pix {
		src.Pix[i] = 255
	}
	src.SetNRGBA(1, 1, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	img := clipboard.FromImage(src)

	content, preview, err := payload.NewBuilder(0, 0, 0).Image(img)
	if err != nil {
		t.Fatalf("Image() error = %v", err)
	}

	st := memstore.NewMemoryStore()
	rec := &store.Record{Content: content, ContentPreview: preview, DataType: store.DataTypeImage, Fingerprint: "img"}
	seed(t, st, rec)

	board := mockboard.New()
	svc := NewService(st, board, nil, 0)
	if _, err := svc.Restore(context.Background(), rec.ID); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	got := board.Image()
	if got == nil || got.Width != 4 || got.Height != 3 {
		t.Fatalf("clipboard image = %+v", got)
	}
	if string(got.Pixels) != string(img.Pixels) {
		t.Error("restored pixels differ from the original")
	}
}

func TestService_RestoreFiles(t *testing.T) {
	content, preview, _ := payload.NewBuilder(0, 0, 0).Files([]string{"/a", "/b"})
	st := memstore.NewMemoryStore()
	rec := &store.Record{Content: content, ContentPreview: preview, DataType: store.DataTypeFile, Fingerprint: "files"}
	seed(t, st, rec)

	board := mockboard.New()
	svc := NewService(st, board, nil, 0)
	if _, err := svc.Restore(context.Background(), rec.ID); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if board.Text() != "/a\n/b" {
		t.Errorf("clipboard = %q", board.Text())
	}
}

func TestService_RestoreWithoutClipboard(t *testing.T) {
	st := memstore.NewMemoryStore()
	seed(t, st, textRec("x", ""))
	svc := NewService(st, nil, nil, 0)
	if _, err := svc.Restore(context.Background(), 1); err == nil {
		t.Error("expected error without a clipboard")
	}
}

func TestDirIcons(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Firefox.png"), []byte("png-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	icons := DirIcons(dir)
	ctx := context.Background()

	got, err := icons.Icon(ctx, "Firefox")
	if err != nil {
		t.Fatalf("Icon() error = %v", err)
	}
	if got != base64.StdEncoding.EncodeToString([]byte("png-bytes")) {
		t.Errorf("Icon() = %q", got)
	}

	for _, source := range []string{"Missing", "..", "../Firefox", ""} {
		got, err := icons.Icon(ctx, source)
		if err != nil || got != "" {
			t.Errorf("Icon(%q) = %q, %v; want empty", source, got, err)
		}
	}
}

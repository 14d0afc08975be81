// Package sampler polls the OS clipboard and records each new observation.
//
// One cycle reads the clipboard (file list first, then text and image),
// skips anything equal to what the loop saw last, stores the rest with
// insert-or-touch semantics, enforces retention, and raises the change
// signal if a row was added or evicted. Cycles never overlap; the sleep
// between them is the only suspension point.
package sampler

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/yiblet/lark/internal/clipboard"
	"github.com/yiblet/lark/internal/fingerprint"
	"github.com/yiblet/lark/internal/foreground"
	"github.com/yiblet/lark/internal/payload"
	"github.com/yiblet/lark/internal/store"
)

// DefaultInterval is the pause between cycles.
const DefaultInterval = time.Second

// Inserter is the write side of the record store.
type Inserter interface {
	InsertIfNotExist(ctx context.Context, rec *store.Record) (bool, error)
}

// Enforcer trims the store after each cycle.
type Enforcer interface {
	Enforce(ctx context.Context) (bool, error)
}

// Notifier receives one signal per cycle that changed the store.
type Notifier interface {
	Raise()
}

// Deps are the collaborators of a Sampler. Foreground, Retention and
// Notifier are optional.
type Deps struct {
	Clipboard  clipboard.Clipboard
	Store      Inserter
	Retention  Enforcer
	Foreground foreground.Lookup
	Notifier   Notifier
	Builder    payload.Builder
	Logger     *slog.Logger
}

// Options controls what is captured and how often.
type Options struct {
	Interval     time.Duration
	CaptureText  bool
	CaptureImage bool
	CaptureFiles bool
}

// DefaultOptions captures every type once per second.
func DefaultOptions() Options {
	return Options{
		Interval:     DefaultInterval,
		CaptureText:  true,
		CaptureImage: true,
		CaptureFiles: true,
	}
}

// Sampler is the clipboard polling loop.
type Sampler struct {
	deps Deps
	opts Options
	log  *slog.Logger
}

// New creates a Sampler.
func New(deps Deps, opts Options) *Sampler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if deps.Builder == (payload.Builder{}) {
		deps.Builder = payload.NewBuilder(0, 0, 0)
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Sampler{
		deps: deps,
		opts: opts,
		log:  log.With("component", "sampler"),
	}
}

// lastSeen holds the fingerprints of the previous observation per type.
// It is owned by a single Run call.
type lastSeen struct {
	text  fingerprint.Fingerprint
	image fingerprint.Fingerprint
	files fingerprint.Fingerprint
}

// Run samples the clipboard until ctx is cancelled.
func (s *Sampler) Run(ctx context.Context) error {
	s.log.Info("sampler started", "interval", s.opts.Interval)

	var seen lastSeen
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("sampler stopped")
			return nil
		case <-timer.C:
		}

		s.cycle(ctx, &seen)
		timer.Reset(s.opts.Interval)
	}
}

// cycleState is per-cycle scratch: what changed and the lazily resolved
// foreground label.
type cycleState struct {
	inserted     bool
	sourceLoaded bool
	source       string
}

// cycle runs one sampling pass and reports whether the change signal was
// raised.
func (s *Sampler) cycle(ctx context.Context, seen *lastSeen) bool {
	var cs cycleState

	files := s.readFiles(ctx)
	if len(files) > 0 {
		s.observeFiles(ctx, seen, &cs, files)
	} else {
		if s.opts.CaptureText {
			s.observeText(ctx, seen, &cs)
		}
		if s.opts.CaptureImage {
			s.observeImage(ctx, seen, &cs)
		}
	}

	evicted := false
	if s.deps.Retention != nil {
		var err error
		evicted, err = s.deps.Retention.Enforce(ctx)
		if err != nil {
			s.log.Warn("retention failed", "err", err)
		}
	}

	if !cs.inserted && !evicted {
		return false
	}
	if s.deps.Notifier != nil {
		s.deps.Notifier.Raise()
	}
	return true
}

func (s *Sampler) readFiles(ctx context.Context) []string {
	if !s.opts.CaptureFiles {
		return nil
	}
	entries, err := s.deps.Clipboard.ReadFileList(ctx)
	if err != nil {
		s.log.Debug("file list read failed", "err", err)
		return nil
	}
	return clipboard.Paths(entries)
}

func (s *Sampler) observeFiles(ctx context.Context, seen *lastSeen, cs *cycleState, paths []string) {
	fp, canonical := fingerprint.FileList(paths)
	if fp == seen.files {
		return
	}

	content, preview, err := s.deps.Builder.Files(canonical)
	if err != nil {
		s.log.Warn("file list encode failed", "err", err)
		return
	}

	rec := &store.Record{
		Content:        content,
		ContentPreview: preview,
		DataType:       store.DataTypeFile,
		Fingerprint:    fp.String(),
	}
	if s.save(ctx, cs, rec) {
		seen.files = fp
	}
}

func (s *Sampler) observeText(ctx context.Context, seen *lastSeen, cs *cycleState) {
	text, err := s.deps.Clipboard.ReadText(ctx)
	if err != nil {
		s.log.Debug("text read failed", "err", err)
		return
	}
	if strings.TrimSpace(text) == "" {
		return
	}

	fp := fingerprint.Text(text)
	if fp == seen.text {
		return
	}

	content, preview := s.deps.Builder.Text(text)
	rec := &store.Record{
		Content:        content,
		ContentPreview: preview,
		DataType:       store.DataTypeText,
		Fingerprint:    fp.String(),
	}
	if s.save(ctx, cs, rec) {
		seen.text = fp
	}
}

func (s *Sampler) observeImage(ctx context.Context, seen *lastSeen, cs *cycleState) {
	img, err := s.deps.Clipboard.ReadImage(ctx)
	if err != nil {
		s.log.Debug("image read failed", "err", err)
		return
	}
	if !img.Valid() {
		return
	}

	fp := fingerprint.Image(img.Pixels)
	if fp == seen.image {
		return
	}

	// Encoding is deferred until the pixels are known to be new.
	content, preview, err := s.deps.Builder.Image(img)
	if err != nil {
		s.log.Warn("image encode failed", "err", err)
		return
	}

	rec := &store.Record{
		Content:        content,
		ContentPreview: preview,
		DataType:       store.DataTypeImage,
		Fingerprint:    fp.String(),
	}
	if s.save(ctx, cs, rec) {
		seen.image = fp
	}
}

// save stores rec and reports whether the store accepted it (insert or
// touch). A failure leaves the last-seen value alone so the next cycle
// retries.
func (s *Sampler) save(ctx context.Context, cs *cycleState, rec *store.Record) bool {
	rec.Source = s.source(ctx, cs)

	inserted, err := s.deps.Store.InsertIfNotExist(ctx, rec)
	if err != nil {
		s.log.Warn("failed to store observation", "type", rec.DataType, "err", err)
		return false
	}

	if inserted {
		cs.inserted = true
		s.log.Debug("recorded", "type", rec.DataType, "id", rec.ID, "source", rec.Source)
	} else {
		s.log.Debug("touched", "type", rec.DataType, "id", rec.ID)
	}
	return true
}

func (s *Sampler) source(ctx context.Context, cs *cycleState) string {
	if cs.sourceLoaded || s.deps.Foreground == nil {
		return cs.source
	}
	cs.sourceLoaded = true

	label, err := s.deps.Foreground.ActiveAppLabel(ctx)
	if err != nil {
		s.log.Debug("foreground lookup failed", "err", err)
		return ""
	}
	cs.source = label
	return label
}

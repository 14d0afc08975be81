// Package api exposes clipboard history to a UI shell over local HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yiblet/lark/internal/history"
	"github.com/yiblet/lark/internal/notify"
	"github.com/yiblet/lark/internal/store"
)

const (
	defaultListLimit   = 50
	defaultPollTimeout = 25 * time.Second
	maxPollTimeout     = 60 * time.Second
)

// Deps are the handler's collaborators. Changes is optional; without it
// /changes always times out.
type Deps struct {
	History *history.Service
	Changes *notify.Signal
}

// NewHandler builds the router.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/records", handleListRecent(deps))
	r.Get("/records/search", handleSearch(deps))
	r.Get("/records/{id}", handleGetRecord(deps))
	r.Post("/records/{id}/restore", handleRestore(deps))
	r.Get("/changes", handleChanges(deps))

	return r
}

// Serve runs the HTTP server on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("api shutdown: %w", err)
		}
		return nil
	}
}

func handleListRecent(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, ok := intParam(w, r, "limit", defaultListLimit)
		if !ok {
			return
		}
		offset, ok := intParam(w, r, "offset", 0)
		if !ok {
			return
		}

		entries, err := deps.History.ListRecent(r.Context(), limit, offset)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list records: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, entries)
	}
}

func handleSearch(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, ok := intParam(w, r, "offset", 0)
		if !ok {
			return
		}

		entries, err := deps.History.Search(r.Context(), r.URL.Query().Get("q"), offset)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to search records: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, entries)
	}
}

func handleGetRecord(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}

		rec, err := deps.History.Get(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "record not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get record: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, rec)
	}
}

func handleRestore(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}

		_, err := deps.History.Restore(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "record not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to restore record: %v", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// handleChanges blocks until the change signal fires or the timeout passes.
func handleChanges(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		timeout := defaultPollTimeout
		if v := r.URL.Query().Get("timeout"); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil || d <= 0 {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid timeout %q", v)
				return
			}
			timeout = min(d, maxPollTimeout)
		}

		var changes <-chan struct{}
		if deps.Changes != nil {
			ch, cancel := deps.Changes.Subscribe()
			defer cancel()
			changes = ch
		}

		timer := time.NewTimer(timeout)
		defer timer.Stop()

		changed := false
		select {
		case <-changes:
			changed = true
		case <-timer.C:
		case <-r.Context().Done():
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"changed": changed})
	}
}

func idParam(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid record id %q", raw)
		return 0, false
	}
	return uint(id), true
}

func intParam(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid %s %q", name, raw)
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

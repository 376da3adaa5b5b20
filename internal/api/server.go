package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"finedb/internal/common"
	"finedb/internal/db"
)

// MaxValueBytes bounds request bodies accepted by PUT.
const MaxValueBytes = 16 << 20

// Store is the part of *db.DB the HTTP layer needs.
type Store interface {
	Put(ctx context.Context, key, value []byte) error
	Delete(ctx context.Context, key []byte) error
	Get(key []byte) ([]byte, error)
	Stats() db.Stats
}

// NewServer exposes a Store over HTTP. Mutations are fire-and-forget: a 202
// means the write was queued, not that it reached the engine.
func NewServer(store Store) http.Handler {
	h := &handler{store: store}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/stats", h.stats)
	r.Get("/kv/{key}", h.get)
	r.Put("/kv/{key}", h.put)
	r.Delete("/kv/{key}", h.delete)

	return r
}

type handler struct {
	store Store
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	value, err := h.store.Get([]byte(chi.URLParam(r, "key")))
	if errors.Is(err, common.ErrKeyNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(value)
}

func (h *handler) put(w http.ResponseWriter, r *http.Request) {
	value, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxValueBytes))
	if err != nil {
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	}
	h.accepted(w, h.store.Put(r.Context(), []byte(chi.URLParam(r, "key")), value))
}

func (h *handler) delete(w http.ResponseWriter, r *http.Request) {
	h.accepted(w, h.store.Delete(r.Context(), []byte(chi.URLParam(r, "key"))))
}

func (h *handler) accepted(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		w.WriteHeader(http.StatusAccepted)
	case errors.Is(err, common.ErrQueueClosed):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, common.ErrEnqueueTimeout):
		w.Header().Set("Retry-After", "1")
		http.Error(w, err.Error(), http.StatusTooManyRequests)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type statsResponse struct {
	State         string `json:"state"`
	Applied       uint64 `json:"applied"`
	Failed        uint64 `json:"failed"`
	QueueDepth    int    `json:"queue_depth"`
	QueueCapacity int    `json:"queue_capacity"`
	QueueMaxDepth uint64 `json:"queue_max_depth"`
	Enqueued      uint64 `json:"enqueued"`
	Dequeued      uint64 `json:"dequeued"`
	Rejected      uint64 `json:"rejected"`
	Discarded     uint64 `json:"discarded"`
	Blocked       uint64 `json:"blocked"`
	BlockedMillis int64  `json:"blocked_ms"`
	CachedValues  int    `json:"cached_values"`
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	s := h.store.Stats()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(statsResponse{
		State:         s.Writer.State.String(),
		Applied:       s.Writer.Applied,
		Failed:        s.Writer.Failed,
		QueueDepth:    s.Queue.Depth,
		QueueCapacity: s.Queue.Capacity,
		QueueMaxDepth: s.Queue.MaxDepth,
		Enqueued:      s.Queue.Enqueued,
		Dequeued:      s.Queue.Dequeued,
		Rejected:      s.Queue.Rejected,
		Discarded:     s.Queue.Discarded,
		Blocked:       s.Queue.Blocked,
		BlockedMillis: s.Queue.BlockedTime.Milliseconds(),
		CachedValues:  s.CacheLen,
	})
}

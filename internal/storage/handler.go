package storage

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"flixtube/internal/platform/logger"
	"flixtube/internal/platform/metrics"
)

// Handler exposes an Adapter as the storage service: GET /video?path=.
type Handler struct {
	adapter Adapter
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewHandler returns a Handler serving from adapter. Metrics may be nil.
func NewHandler(adapter Adapter, log *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{adapter: adapter, log: log, metrics: m}
}

// GetVideo handles GET /video?path=<storage path>.
func (h *Handler) GetVideo(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Query().Get("path")
	if p == "" {
		http.Error(w, "missing path", http.StatusBadRequest)
		return
	}
	log := logger.FromContext(r.Context(), h.log).With(slog.String("path", p))

	stream, err := h.adapter.Fetch(r.Context(), p)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Info("video not found")
			http.Error(w, "video not found", http.StatusNotFound)
			return
		}
		log.Error("fetch video failed", slog.String("error", err.Error()))
		h.metrics.IncBackendErrors("storage")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	defer stream.Body.Close()

	w.Header().Set("Content-Type", stream.ContentType)
	if stream.ContentLength >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(stream.ContentLength, 10))
	}
	w.WriteHeader(http.StatusOK)
	h.metrics.StreamStarted()

	n, err := io.Copy(w, stream.Body)
	h.metrics.StreamFinished(n)
	if err != nil && r.Context().Err() == nil {
		log.Warn("video copy interrupted", slog.Int64("bytes", n), slog.String("error", err.Error()))
		panic(http.ErrAbortHandler)
	}
}

package history

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"flixtube/internal/platform/logger"
)

const maxViewedBody = 64 << 10

// Handler exposes the history service: POST /viewed.
type Handler struct {
	recorder *Recorder
	log      *slog.Logger
}

// NewHandler returns a Handler that records views through recorder.
func NewHandler(recorder *Recorder, log *slog.Logger) *Handler {
	return &Handler{recorder: recorder, log: log}
}

// Viewed handles POST /viewed with body {"video_path": "..."}.
func (h *Handler) Viewed(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.log)

	var ev ViewEvent
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxViewedBody)).Decode(&ev); err != nil {
		log.Debug("invalid viewed body", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := h.recorder.Record(r.Context(), ev.VideoPath); err != nil {
		if errors.Is(err, ErrEmptyPath) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		log.Error("record view failed",
			slog.String("video_path", ev.VideoPath),
			slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	log.Info("view recorded", slog.String("video_path", ev.VideoPath))
	w.WriteHeader(http.StatusOK)
}

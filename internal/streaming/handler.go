package streaming

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"flixtube/internal/metadata"
	"flixtube/internal/platform/logger"
	"flixtube/internal/platform/metrics"
	"flixtube/internal/storage"
)

const copyBufferSize = 32 << 10

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, copyBufferSize)
		return &b
	},
}

// Handler exposes the gateway endpoint GET /video?id=.
type Handler struct {
	svc          *Service
	recorder     ViewRecorder
	log          *slog.Logger
	metrics      *metrics.Metrics
	writeTimeout time.Duration
}

// NewHandler returns a Handler that streams through svc and reports views to
// recorder. Metrics may be nil.
func NewHandler(svc *Service, recorder ViewRecorder, log *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		svc:          svc,
		recorder:     recorder,
		log:          log,
		metrics:      m,
		writeTimeout: svc.opts.ChunkTimeout,
	}
}

// GetVideo handles GET /video?id=<24 hex chars>.
func (h *Handler) GetVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rawID := r.URL.Query().Get("id")
	log := logger.FromContext(ctx, h.log).With(slog.String("id", rawID))

	pb, err := h.svc.Open(ctx, rawID)
	if err != nil {
		h.writeError(ctx, w, log, err)
		return
	}
	defer pb.Close()
	log = log.With(slog.String("path", pb.Video.Path))

	w.Header().Set("Content-Type", pb.ContentType)
	if pb.ContentLength >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(pb.ContentLength, 10))
	}
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		log.Debug("client gone before headers were sent", slog.String("error", err.Error()))
		return
	}

	h.recorder.NotifyViewed(ctx, pb.Video.Path)
	h.metrics.StreamStarted()

	n, err := h.copy(rc, w, pb)
	h.metrics.StreamFinished(n)
	if h.writeTimeout > 0 {
		// Deadlines outlive the handler on keep-alive connections.
		_ = rc.SetWriteDeadline(time.Time{})
	}
	if err == nil {
		log.Debug("video streamed", slog.Int64("bytes", n))
		return
	}
	if ctx.Err() != nil {
		log.Debug("client disconnected", slog.Int64("bytes", n))
		return
	}

	var unavailable *UnavailableError
	if errors.As(err, &unavailable) {
		h.metrics.IncBackendErrors(unavailable.Backend)
	}
	log.Error("stream interrupted", slog.Int64("bytes", n), slog.String("error", err.Error()))
	// The status line is gone; only aborting the connection tells the client
	// the body is incomplete.
	panic(http.ErrAbortHandler)
}

// copy forwards src to w one chunk at a time, flushing after every chunk so
// at most one buffer per request is held in memory.
func (h *Handler) copy(rc *http.ResponseController, w io.Writer, src io.Reader) (int64, error) {
	bp := bufPool.Get().(*[]byte)
	defer bufPool.Put(bp)
	buf := *bp

	var written int64
	for {
		nr, rerr := src.Read(buf)
		if nr > 0 {
			if h.writeTimeout > 0 {
				_ = rc.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			}
			nw, werr := w.Write(buf[:nr])
			written += int64(nw)
			if werr != nil {
				return written, werr
			}
			if nw != nr {
				return written, io.ErrShortWrite
			}
			if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
				return written, err
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, metadata.ErrInvalidID):
		log.Debug("invalid video id")
		http.Error(w, "invalid video id", http.StatusBadRequest)
	case errors.Is(err, metadata.ErrNotFound):
		log.Info("video not found")
		http.Error(w, "video not found", http.StatusNotFound)
	case errors.Is(err, storage.ErrNotFound):
		log.Warn("video missing from storage", slog.String("error", err.Error()))
		http.Error(w, "video not found", http.StatusNotFound)
	default:
		var unavailable *UnavailableError
		if errors.As(err, &unavailable) {
			log = log.With(slog.String("backend", unavailable.Backend))
			h.metrics.IncBackendErrors(unavailable.Backend)
		}
		if ctx.Err() != nil {
			log.Debug("request canceled before streaming", slog.String("error", err.Error()))
		} else {
			log.Error("open video failed", slog.String("error", err.Error()))
		}
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

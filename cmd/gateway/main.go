package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"flixtube/internal/history"
	"flixtube/internal/metadata"
	"flixtube/internal/platform/config"
	"flixtube/internal/platform/health"
	"flixtube/internal/platform/logger"
	"flixtube/internal/platform/metrics"
	"flixtube/internal/platform/middleware"
	"flixtube/internal/platform/server"
	"flixtube/internal/storage"
	"flixtube/internal/streaming"

	"github.com/go-chi/chi/v5"
)

const startupTimeout = 15 * time.Second

func main() {
	_ = config.Load()

	port := config.GetEnv("PORT", "8080")
	logLevel := config.GetEnv("LOG_LEVEL", "info")
	logFormat := config.GetEnv("LOG_FORMAT", "json")

	log := logger.New(logLevel, logFormat)

	var req config.Required
	metadataURI := req.Get("METADATA_URI")
	metadataDB := config.GetEnv("METADATA_DB", "video-streaming")

	storageCfg := storage.Config{Backend: config.GetEnv("STORAGE_BACKEND", storage.BackendHTTP)}
	switch storageCfg.Backend {
	case storage.BackendHTTP:
		storageCfg.URL = req.Get("VIDEO_STORAGE_URL")
	case storage.BackendLocal:
		storageCfg.Dir = req.Get("STORAGE_DIR")
	case storage.BackendS3:
		storageCfg.S3 = storage.S3Config{
			Bucket:   req.Get("S3_BUCKET"),
			Region:   config.GetEnv("S3_REGION", ""),
			Prefix:   config.GetEnv("S3_PREFIX", ""),
			Endpoint: config.GetEnv("S3_ENDPOINT", ""),
		}
	}

	transport := config.GetEnv("HISTORY_TRANSPORT", "http")
	var historyURL, natsURL string
	switch transport {
	case "http":
		historyURL = req.Get("HISTORY_URL")
	case "nats":
		natsURL = req.Get("NATS_URL")
	default:
		log.Error("unsupported history transport", "transport", transport)
		os.Exit(1)
	}

	if err := req.Err(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	opts := streaming.Options{
		LookupTimeout: config.GetEnvDuration("LOOKUP_TIMEOUT", streaming.DefaultLookupTimeout),
		FetchTimeout:  config.GetEnvDuration("FETCH_TIMEOUT", streaming.DefaultFetchTimeout),
		ChunkTimeout:  config.GetEnvDuration("CHUNK_TIMEOUT", streaming.DefaultChunkTimeout),
	}
	dispatchOpts := history.DispatcherOptions{
		Workers:   config.GetEnvInt("HISTORY_WORKERS", history.DefaultWorkers),
		QueueSize: config.GetEnvInt("HISTORY_QUEUE_SIZE", history.DefaultQueueSize),
		Timeout:   config.GetEnvDuration("NOTIFY_TIMEOUT", history.DefaultNotifyTimeout),
	}

	startCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	videos, closeVideos, err := metadata.Open(startCtx, metadataURI, metadataDB)
	if err != nil {
		log.Error("metadata store unavailable", "error", err)
		os.Exit(1)
	}

	adapter, err := storage.Open(startCtx, storageCfg)
	if err != nil {
		log.Error("storage backend unavailable", "backend", storageCfg.Backend, "error", err)
		os.Exit(1)
	}

	notifier, closeNotifier, err := newNotifier(transport, historyURL, natsURL, log)
	if err != nil {
		log.Error("history transport unavailable", "transport", transport, "error", err)
		os.Exit(1)
	}

	met := metrics.New()
	dispatcher := history.NewDispatcher(notifier, log, met, dispatchOpts)
	svc := streaming.NewService(videos, adapter, opts)
	h := streaming.NewHandler(svc, dispatcher, log, met)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Get("/", health.Handler)
	r.Handle("/metrics", met.Handler(nil))
	r.Get("/video", h.GetVideo)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("gateway starting",
		"port", port,
		"storage_backend", storageCfg.Backend,
		"history_transport", transport,
		"log_level", logLevel,
	)

	err = server.Run(srv, log,
		dispatcher.Close,
		closeNotifier,
		closeVideos,
	)
	if err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func newNotifier(transport, historyURL, natsURL string, log *slog.Logger) (history.Notifier, server.Cleanup, error) {
	if transport == "nats" {
		nc, err := history.ConnectNATS(natsURL, "flixtube-gateway", log)
		if err != nil {
			return nil, nil, err
		}
		return history.NewNATSNotifier(nc, history.ViewedSubject), func(context.Context) error {
			return nc.Drain()
		}, nil
	}
	return history.NewHTTPNotifier(historyURL, nil), func(context.Context) error { return nil }, nil
}

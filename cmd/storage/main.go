package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"flixtube/internal/platform/config"
	"flixtube/internal/platform/health"
	"flixtube/internal/platform/logger"
	"flixtube/internal/platform/metrics"
	"flixtube/internal/platform/middleware"
	"flixtube/internal/platform/server"
	"flixtube/internal/storage"

	"github.com/go-chi/chi/v5"
)

func main() {
	_ = config.Load()

	port := config.GetEnv("PORT", "8080")
	logLevel := config.GetEnv("LOG_LEVEL", "info")
	logFormat := config.GetEnv("LOG_FORMAT", "json")

	log := logger.New(logLevel, logFormat)

	var req config.Required
	cfg := storage.Config{Backend: config.GetEnv("STORAGE_BACKEND", storage.BackendLocal)}
	switch cfg.Backend {
	case storage.BackendLocal:
		cfg.Dir = req.Get("STORAGE_DIR")
	case storage.BackendS3:
		cfg.S3 = storage.S3Config{
			Bucket:   req.Get("S3_BUCKET"),
			Region:   config.GetEnv("S3_REGION", ""),
			Prefix:   config.GetEnv("S3_PREFIX", ""),
			Endpoint: config.GetEnv("S3_ENDPOINT", ""),
		}
	default:
		// The storage service is itself the http backend.
		log.Error("unsupported storage backend", "backend", cfg.Backend)
		os.Exit(1)
	}
	if err := req.Err(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	adapter, err := storage.Open(ctx, cfg)
	cancel()
	if err != nil {
		log.Error("storage backend unavailable", "backend", cfg.Backend, "error", err)
		os.Exit(1)
	}

	met := metrics.New()
	h := storage.NewHandler(adapter, log, met)

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

	log.Info("storage service starting",
		"port", port,
		"backend", cfg.Backend,
		"log_level", logLevel,
	)

	if err := server.Run(srv, log); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
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

	"github.com/go-chi/chi/v5"
)

const subscriberQueue = "history"

func main() {
	_ = config.Load()

	port := config.GetEnv("PORT", "8080")
	logLevel := config.GetEnv("LOG_LEVEL", "info")
	logFormat := config.GetEnv("LOG_FORMAT", "json")

	log := logger.New(logLevel, logFormat)

	var req config.Required
	dbURI := req.Get("HISTORY_DB_URI")
	dbName := config.GetEnv("HISTORY_DB", "history")
	natsURL := config.GetEnv("NATS_URL", "")
	recordTimeout := config.GetEnvDuration("RECORD_TIMEOUT", 5*time.Second)
	if err := req.Err(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	client, err := metadata.ConnectMongo(ctx, dbURI)
	cancel()
	if err != nil {
		log.Error("history database unavailable", "error", err)
		os.Exit(1)
	}

	met := metrics.New()
	recorder := history.NewRecorder(history.NewMongoStore(client.Database(dbName)), met)
	h := history.NewHandler(recorder, log)

	cleanup := []server.Cleanup{}
	if natsURL != "" {
		nc, err := history.ConnectNATS(natsURL, "flixtube-history", log)
		if err != nil {
			log.Error("nats unavailable", "error", err)
			os.Exit(1)
		}
		sub, err := history.Subscribe(nc, history.ViewedSubject, subscriberQueue, recorder, log, recordTimeout)
		if err != nil {
			log.Error("nats subscribe failed", "error", err)
			os.Exit(1)
		}
		cleanup = append(cleanup,
			func(context.Context) error { return sub.Close() },
			func(context.Context) error { return nc.Drain() },
		)
	}
	cleanup = append(cleanup, client.Disconnect)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Get("/", health.Handler)
	r.Handle("/metrics", met.Handler(nil))
	r.Post("/viewed", h.Viewed)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("history service starting",
		"port", port,
		"database", dbName,
		"nats", natsURL != "",
		"log_level", logLevel,
	)

	if err := server.Run(srv, log, cleanup...); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

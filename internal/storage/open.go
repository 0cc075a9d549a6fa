package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Backend kinds accepted by Open.
const (
	BackendHTTP  = "http"
	BackendLocal = "local"
	BackendS3    = "s3"
)

// Config selects and configures one Adapter.
type Config struct {
	Backend string
	// URL of the storage service, for BackendHTTP.
	URL string
	// Dir holding the videos, for BackendLocal.
	Dir string
	S3  S3Config
	// Client is used by BackendHTTP. Nil uses a default client.
	Client *http.Client
}

// Open builds the Adapter named by cfg.Backend.
func Open(ctx context.Context, cfg Config) (Adapter, error) {
	switch cfg.Backend {
	case BackendHTTP:
		if cfg.URL == "" {
			return nil, errors.New("storage url cannot be empty")
		}
		return NewRemote(cfg.URL, cfg.Client), nil
	case BackendLocal:
		if cfg.Dir == "" {
			return nil, errors.New("storage dir cannot be empty")
		}
		return NewLocal(cfg.Dir), nil
	case BackendS3:
		return NewS3FromConfig(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}

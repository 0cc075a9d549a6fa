package streaming

import (
	"context"
	"fmt"
)

// Backend names used in logs and metrics.
const (
	BackendMetadata = "metadata"
	BackendStorage  = "storage"
)

// ViewRecorder accepts fire-and-forget view notifications. NotifyViewed must
// return without waiting for delivery; only the values of ctx may be used.
type ViewRecorder interface {
	NotifyViewed(ctx context.Context, videoPath string)
}

// UnavailableError reports that a backend could not answer for Key (a video
// id for metadata, a storage path for storage).
type UnavailableError struct {
	Backend string
	Key     string
	Err     error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable for %q: %v", e.Backend, e.Key, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

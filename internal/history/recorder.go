package history

import (
	"context"
	"fmt"
	"time"

	"flixtube/internal/platform/metrics"
)

// Recorder stamps incoming view notifications and persists them.
type Recorder struct {
	store   Store
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewRecorder returns a Recorder writing to store. Metrics may be nil.
func NewRecorder(store Store, m *metrics.Metrics) *Recorder {
	return &Recorder{store: store, metrics: m, now: time.Now}
}

// Record persists a view of videoPath at the current time.
func (r *Recorder) Record(ctx context.Context, videoPath string) error {
	if videoPath == "" {
		return ErrEmptyPath
	}
	ev := ViewEvent{VideoPath: videoPath, ViewedAt: r.now().UTC()}
	if err := r.store.Record(ctx, ev); err != nil {
		return fmt.Errorf("record view of %q: %w", videoPath, err)
	}
	r.metrics.IncViewsRecorded()
	return nil
}

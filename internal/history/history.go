// Package history records that a video was viewed. The gateway side submits
// notifications through a Dispatcher; the history service side persists them
// through a Recorder and a Store.
package history

import (
	"context"
	"errors"
	"time"
)

// ViewedSubject is the NATS subject view notifications are published on.
const ViewedSubject = "video.viewed"

// ErrEmptyPath is returned when a view notification carries no video path.
var ErrEmptyPath = errors.New("video_path is required")

// ViewEvent records that VideoPath was viewed at ViewedAt. On the wire only
// video_path is sent; the history service stamps ViewedAt on receipt.
type ViewEvent struct {
	VideoPath string    `json:"video_path" bson:"video_path"`
	ViewedAt  time.Time `json:"-" bson:"viewed_at"`
}

// Store persists view events. Implementations must be safe for concurrent use.
type Store interface {
	Record(ctx context.Context, ev ViewEvent) error
}

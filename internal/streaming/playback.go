package streaming

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"flixtube/internal/metadata"
	"flixtube/internal/storage"
)

// Playback is an open video stream for one response. Each Read is bounded by
// the chunk timeout; when it expires the fetch context is canceled, which
// aborts the backend read. Close releases the stream and its context.
type Playback struct {
	Video         metadata.Video
	ContentType   string
	ContentLength int64

	stream   *storage.Stream
	cancel   context.CancelFunc
	timeout  time.Duration
	watchdog *time.Timer
	timedOut atomic.Bool
}

func newPlayback(video metadata.Video, stream *storage.Stream, cancel context.CancelFunc, chunkTimeout time.Duration) *Playback {
	p := &Playback{
		Video:         video,
		ContentType:   stream.ContentType,
		ContentLength: stream.ContentLength,
		stream:        stream,
		cancel:        cancel,
		timeout:       chunkTimeout,
	}
	p.watchdog = time.AfterFunc(chunkTimeout, func() {
		p.timedOut.Store(true)
		cancel()
	})
	p.watchdog.Stop()
	return p
}

// Read reads the next chunk from the storage backend.
func (p *Playback) Read(b []byte) (int, error) {
	p.watchdog.Reset(p.timeout)
	n, err := p.stream.Body.Read(b)
	p.watchdog.Stop()
	if err != nil && p.timedOut.Load() {
		err = &UnavailableError{
			Backend: BackendStorage,
			Key:     p.Video.Path,
			Err:     fmt.Errorf("chunk read exceeded %s: %w", p.timeout, context.DeadlineExceeded),
		}
	}
	return n, err
}

// Close stops the stream and cancels any in-flight backend read.
func (p *Playback) Close() error {
	p.watchdog.Stop()
	p.cancel()
	return p.stream.Body.Close()
}

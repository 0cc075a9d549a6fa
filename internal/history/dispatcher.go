package history

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"flixtube/internal/platform/logger"
	"flixtube/internal/platform/metrics"
)

// Dispatcher defaults.
const (
	DefaultWorkers       = 4
	DefaultQueueSize     = 256
	DefaultNotifyTimeout = 5 * time.Second
)

// DispatcherOptions sizes the worker pool. Zero values select the defaults.
type DispatcherOptions struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

type notification struct {
	ctx       context.Context
	videoPath string
}

// Dispatcher delivers view notifications on its own worker pool so that
// request handlers never wait for the history service. Each delivery is
// attempted once; failures and drops are logged and counted.
type Dispatcher struct {
	notifier Notifier
	log      *slog.Logger
	metrics  *metrics.Metrics
	timeout  time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan notification
	wg     sync.WaitGroup
}

// NewDispatcher starts opts.Workers goroutines draining a queue of
// opts.QueueSize notifications. Metrics may be nil.
func NewDispatcher(n Notifier, log *slog.Logger, m *metrics.Metrics, opts DispatcherOptions) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultNotifyTimeout
	}

	d := &Dispatcher{
		notifier: n,
		log:      log,
		metrics:  m,
		timeout:  opts.Timeout,
		queue:    make(chan notification, opts.QueueSize),
	}
	d.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go d.worker()
	}
	return d
}

// NotifyViewed enqueues a notification and returns immediately. Only the values
// of ctx (such as the request ID) are kept; its cancellation is ignored.
func (d *Dispatcher) NotifyViewed(ctx context.Context, videoPath string) {
	n := notification{ctx: context.WithoutCancel(ctx), videoPath: videoPath}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(n, "dispatcher closed")
		return
	}
	select {
	case d.queue <- n:
	default:
		d.drop(n, "queue full")
	}
}

func (d *Dispatcher) drop(n notification, reason string) {
	logger.FromContext(n.ctx, d.log).Warn("view notification dropped",
		slog.String("video_path", n.videoPath),
		slog.String("reason", reason))
	d.metrics.IncViewNotifications(metrics.NotifyDropped)
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for n := range d.queue {
		d.deliver(n)
	}
}

func (d *Dispatcher) deliver(n notification) {
	log := logger.FromContext(n.ctx, d.log).With(slog.String("video_path", n.videoPath))

	ctx, cancel := context.WithTimeout(n.ctx, d.timeout)
	defer cancel()

	err := d.safeNotify(ctx, n.videoPath)
	if err != nil {
		log.Warn("view notification failed", slog.String("error", err.Error()))
		d.metrics.IncViewNotifications(metrics.NotifyFailed)
		return
	}
	log.Debug("view notification sent")
	d.metrics.IncViewNotifications(metrics.NotifySent)
}

// safeNotify keeps a panicking Notifier from taking down its worker.
func (d *Dispatcher) safeNotify(ctx context.Context, videoPath string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panic: %v", r)
		}
	}()
	return d.notifier.Notify(ctx, videoPath)
}

// Close stops accepting notifications and waits until the queued ones have
// been delivered or ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// publisher is the subset of *nats.Conn used by NATSNotifier.
type publisher interface {
	Publish(subject string, data []byte) error
}

// NATSNotifier publishes view notifications to a NATS subject. Publishing is
// fire-and-forget: a nil error means the message was buffered by the client.
type NATSNotifier struct {
	pub     publisher
	subject string
}

var _ Notifier = (*NATSNotifier)(nil)

// NewNATSNotifier publishes on subject, or ViewedSubject when empty.
func NewNATSNotifier(nc *nats.Conn, subject string) *NATSNotifier {
	if subject == "" {
		subject = ViewedSubject
	}
	return &NATSNotifier{pub: nc, subject: subject}
}

// Notify implements Notifier.
func (n *NATSNotifier) Notify(ctx context.Context, videoPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(ViewEvent{VideoPath: videoPath})
	if err != nil {
		return fmt.Errorf("marshal view event: %w", err)
	}
	if err := n.pub.Publish(n.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", n.subject, err)
	}
	return nil
}

// ConnectNATS connects with reconnect settings suited to long-running services.
func ConnectNATS(url, name string, log *slog.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", slog.String("error", err.Error()))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("nats reconnected", slog.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return nc, nil
}

// Subscriber records view notifications received over NATS.
type Subscriber struct {
	recorder *Recorder
	log      *slog.Logger
	timeout  time.Duration
	sub      *nats.Subscription
}

// Subscribe joins queue group queue on subject so that each notification is
// recorded by exactly one history instance.
func Subscribe(nc *nats.Conn, subject, queue string, recorder *Recorder, log *slog.Logger, timeout time.Duration) (*Subscriber, error) {
	s := &Subscriber{recorder: recorder, log: log, timeout: timeout}
	sub, err := nc.QueueSubscribe(subject, queue, s.handle)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	s.sub = sub
	return s, nil
}

func (s *Subscriber) handle(msg *nats.Msg) {
	var ev ViewEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		s.log.Warn("invalid viewed message", slog.String("subject", msg.Subject), slog.String("error", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.recorder.Record(ctx, ev.VideoPath); err != nil {
		s.log.Error("record view failed",
			slog.String("video_path", ev.VideoPath),
			slog.String("error", err.Error()))
	}
}

// Close drains the subscription, letting in-flight messages finish.
func (s *Subscriber) Close() error {
	if s.sub == nil {
		return nil
	}
	return s.sub.Drain()
}

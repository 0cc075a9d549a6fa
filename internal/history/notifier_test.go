package history

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flixtube/internal/platform/middleware"
)

func TestHTTPNotifier_Notify(t *testing.T) {
	var (
		gotBody   map[string]any
		gotMethod string
		gotPath   string
		gotCT     string
		gotID     string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		gotCT = r.Header.Get("Content-Type")
		gotID = r.Header.Get(middleware.RequestIDHeader)
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx := middleware.WithRequestID(context.Background(), "rid-1")
	err := NewHTTPNotifier(srv.URL+"/", nil).Notify(ctx, "sample.mp4")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/viewed", gotPath)
	assert.Equal(t, "application/json", gotCT)
	assert.Equal(t, "rid-1", gotID)
	assert.Equal(t, map[string]any{"video_path": "sample.mp4"}, gotBody)
}

func TestHTTPNotifier_non_200_is_error(t *testing.T) {
	for _, status := range []int{http.StatusCreated, http.StatusBadRequest, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		err := NewHTTPNotifier(srv.URL, nil).Notify(context.Background(), "sample.mp4")
		assert.Error(t, err, "status %d", status)
		srv.Close()
	}
}

func TestHTTPNotifier_unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewHTTPNotifier(url, nil).Notify(context.Background(), "sample.mp4")
	assert.Error(t, err)
}

func TestHTTPNotifier_respects_deadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := NewHTTPNotifier(srv.URL, nil).Notify(ctx, "sample.mp4")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type fakePublisher struct {
	subject string
	data    []byte
	err     error
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	p.subject, p.data = subject, data
	return p.err
}

func TestNATSNotifier_Notify(t *testing.T) {
	pub := &fakePublisher{}
	n := &NATSNotifier{pub: pub, subject: ViewedSubject}

	require.NoError(t, n.Notify(context.Background(), "sample.mp4"))
	assert.Equal(t, "video.viewed", pub.subject)
	assert.JSONEq(t, `{"video_path":"sample.mp4"}`, string(pub.data))
}

func TestNATSNotifier_errors(t *testing.T) {
	pub := &fakePublisher{err: nats.ErrConnectionClosed}
	n := &NATSNotifier{pub: pub, subject: ViewedSubject}
	assert.ErrorIs(t, n.Notify(context.Background(), "sample.mp4"), nats.ErrConnectionClosed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pub = &fakePublisher{}
	n = &NATSNotifier{pub: pub, subject: ViewedSubject}
	assert.ErrorIs(t, n.Notify(ctx, "sample.mp4"), context.Canceled)
	assert.Empty(t, pub.subject, "canceled notify must not publish")
}

func TestSubscriber_handle_records(t *testing.T) {
	store := NewInMemoryStore()
	s := &Subscriber{recorder: NewRecorder(store, nil), log: discardLogger(), timeout: time.Second}

	s.handle(&nats.Msg{Subject: ViewedSubject, Data: []byte(`{"video_path":"sample.mp4"}`)})
	s.handle(&nats.Msg{Subject: ViewedSubject, Data: []byte(`not json`)})
	s.handle(&nats.Msg{Subject: ViewedSubject, Data: []byte(`{"video_path":""}`)})

	events := store.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "sample.mp4", events[0].VideoPath)
}

type failingStore struct{ err error }

func (f failingStore) Record(ctx context.Context, ev ViewEvent) error { return f.err }

func TestSubscriber_handle_store_failure_does_not_panic(t *testing.T) {
	s := &Subscriber{recorder: NewRecorder(failingStore{err: errors.New("mongo down")}, nil), log: discardLogger(), timeout: time.Second}
	s.handle(&nats.Msg{Subject: ViewedSubject, Data: []byte(`{"video_path":"sample.mp4"}`)})
}

func TestSubscriber_Close_without_subscription(t *testing.T) {
	assert.NoError(t, (&Subscriber{}).Close())
}

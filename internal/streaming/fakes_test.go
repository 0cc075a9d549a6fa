package streaming

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"flixtube/internal/metadata"
	"flixtube/internal/storage"

	"github.com/go-chi/chi/v5"
)

const samplePath = "sample.mp4"

func mustID(t *testing.T, hex string) metadata.VideoID {
	t.Helper()
	id, err := metadata.ParseID(hex)
	if err != nil {
		t.Fatalf("parse id %q: %v", hex, err)
	}
	return id
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(svc *Service, rec ViewRecorder) *chi.Mux {
	h := NewHandler(svc, rec, testLogger(), nil)
	r := chi.NewRouter()
	r.Get("/video", h.GetVideo)
	return r
}

// fakeVideos counts lookups and can block until the lookup context ends.
type fakeVideos struct {
	mu    sync.Mutex
	calls int
	video metadata.Video
	err   error
	block bool
}

func (f *fakeVideos) FindVideo(ctx context.Context, id metadata.VideoID) (metadata.Video, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return metadata.Video{}, ctx.Err()
	}
	if f.err != nil {
		return metadata.Video{}, f.err
	}
	if f.video.ID != id {
		return metadata.Video{}, metadata.ErrNotFound
	}
	return f.video, nil
}

func (f *fakeVideos) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// chunkBody yields one chunk per Read. With stall set it blocks after the
// last chunk until its context is canceled.
type chunkBody struct {
	ctx    context.Context
	chunks [][]byte
	stall  bool
	closed chan struct{}
	once   sync.Once
}

func (b *chunkBody) Read(p []byte) (int, error) {
	for len(b.chunks) > 0 && len(b.chunks[0]) == 0 {
		b.chunks = b.chunks[1:]
	}
	if len(b.chunks) == 0 {
		if b.stall {
			<-b.ctx.Done()
			return 0, b.ctx.Err()
		}
		return 0, io.EOF
	}
	n := copy(p, b.chunks[0])
	b.chunks[0] = b.chunks[0][n:]
	return n, nil
}

func (b *chunkBody) Close() error {
	b.once.Do(func() { close(b.closed) })
	return nil
}

type fakeAdapter struct {
	mu          sync.Mutex
	calls       int
	chunks      [][]byte
	contentType string
	length      int64
	err         error
	blockFetch  bool
	stall       bool
	fetchCtx    context.Context
	body        *chunkBody
}

func newFakeAdapter(chunks ...[]byte) *fakeAdapter {
	return &fakeAdapter{chunks: chunks, contentType: "video/mp4", length: -1}
}

func (a *fakeAdapter) Fetch(ctx context.Context, p string) (*storage.Stream, error) {
	a.mu.Lock()
	a.calls++
	a.fetchCtx = ctx
	a.mu.Unlock()
	if a.blockFetch {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if a.err != nil {
		return nil, a.err
	}
	body := &chunkBody{
		ctx:    ctx,
		chunks: append([][]byte(nil), a.chunks...),
		stall:  a.stall,
		closed: make(chan struct{}),
	}
	a.mu.Lock()
	a.body = body
	a.mu.Unlock()
	return &storage.Stream{Body: body, ContentType: a.contentType, ContentLength: a.length}, nil
}

func (a *fakeAdapter) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

func (a *fakeAdapter) lastBody() *chunkBody {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.body
}

func (a *fakeAdapter) lastCtx() context.Context {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fetchCtx
}

type fakeRecorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *fakeRecorder) NotifyViewed(ctx context.Context, videoPath string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, videoPath)
}

func (r *fakeRecorder) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

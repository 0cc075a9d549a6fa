package streaming

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"flixtube/internal/metadata"
	"flixtube/internal/storage"
)

func TestService_Open(t *testing.T) {
	id := mustID(t, "64b7f0c2a1e4b5d6c7f80911")
	videos := &fakeVideos{video: metadata.Video{ID: id, Path: samplePath}}
	adapter := newFakeAdapter([]byte("abc"), []byte("def"))
	svc := NewService(videos, adapter, Options{})

	pb, err := svc.Open(context.Background(), id.Hex())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if pb.Video.Path != samplePath || pb.ContentType != "video/mp4" || pb.ContentLength != -1 {
		t.Errorf("unexpected playback: %+v", pb)
	}
	b, err := io.ReadAll(pb)
	if err != nil || string(b) != "abcdef" {
		t.Errorf("read: %q, %v", b, err)
	}
	if err := pb.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
	if adapter.lastCtx().Err() == nil {
		t.Error("expected fetch context to be canceled on close")
	}
}

func TestService_Open_defaults_content_type(t *testing.T) {
	id := mustID(t, "64b7f0c2a1e4b5d6c7f80911")
	videos := &fakeVideos{video: metadata.Video{ID: id, Path: samplePath}}
	adapter := newFakeAdapter()
	adapter.contentType = ""
	svc := NewService(videos, adapter, Options{})

	pb, err := svc.Open(context.Background(), id.Hex())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer pb.Close()
	if pb.ContentType != storage.DefaultContentType {
		t.Errorf("expected %s, got %s", storage.DefaultContentType, pb.ContentType)
	}
}

func TestService_Open_classifies_errors(t *testing.T) {
	id := mustID(t, "64b7f0c2a1e4b5d6c7f80911")
	found := metadata.Video{ID: id, Path: samplePath}

	tests := []struct {
		name        string
		rawID       string
		videos      *fakeVideos
		adapterErr  error
		wantIs      error
		wantBackend string
	}{
		{name: "malformed", rawID: "nope", videos: &fakeVideos{video: found}, wantIs: metadata.ErrInvalidID},
		{name: "unknown", rawID: "000000000000000000000000", videos: &fakeVideos{video: found}, wantIs: metadata.ErrNotFound},
		{name: "metadata down", rawID: id.Hex(), videos: &fakeVideos{err: errors.New("conn refused")}, wantBackend: BackendMetadata},
		{name: "storage missing", rawID: id.Hex(), videos: &fakeVideos{video: found}, adapterErr: storage.ErrNotFound, wantIs: storage.ErrNotFound},
		{name: "storage down", rawID: id.Hex(), videos: &fakeVideos{video: found}, adapterErr: errors.New("503"), wantBackend: BackendStorage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := newFakeAdapter()
			adapter.err = tt.adapterErr
			svc := NewService(tt.videos, adapter, Options{})

			_, err := svc.Open(context.Background(), tt.rawID)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("expected %v, got %v", tt.wantIs, err)
			}
			if tt.wantBackend != "" {
				var unavailable *UnavailableError
				if !errors.As(err, &unavailable) || unavailable.Backend != tt.wantBackend {
					t.Errorf("expected unavailable %s, got %v", tt.wantBackend, err)
				}
			}
		})
	}
}

func TestService_Open_fetch_timeout(t *testing.T) {
	id := mustID(t, "64b7f0c2a1e4b5d6c7f80911")
	videos := &fakeVideos{video: metadata.Video{ID: id, Path: samplePath}}
	adapter := newFakeAdapter()
	adapter.blockFetch = true
	svc := NewService(videos, adapter, Options{FetchTimeout: 20 * time.Millisecond})

	start := time.Now()
	_, err := svc.Open(context.Background(), id.Hex())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("fetch timeout was not applied")
	}
	if adapter.lastCtx().Err() == nil {
		t.Error("expected fetch context to be canceled")
	}
}

func TestService_fetch_timeout_does_not_limit_stream(t *testing.T) {
	id := mustID(t, "64b7f0c2a1e4b5d6c7f80911")
	videos := &fakeVideos{video: metadata.Video{ID: id, Path: samplePath}}
	adapter := newFakeAdapter([]byte("late"))
	svc := NewService(videos, adapter, Options{FetchTimeout: 10 * time.Millisecond})

	pb, err := svc.Open(context.Background(), id.Hex())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer pb.Close()
	time.Sleep(30 * time.Millisecond)

	b, err := io.ReadAll(pb)
	if err != nil || string(b) != "late" {
		t.Errorf("stream should outlive the fetch timeout: %q, %v", b, err)
	}
}

func TestPlayback_chunk_timeout(t *testing.T) {
	id := mustID(t, "64b7f0c2a1e4b5d6c7f80911")
	videos := &fakeVideos{video: metadata.Video{ID: id, Path: samplePath}}
	adapter := newFakeAdapter([]byte("first"))
	adapter.stall = true
	svc := NewService(videos, adapter, Options{ChunkTimeout: 20 * time.Millisecond})

	pb, err := svc.Open(context.Background(), id.Hex())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer pb.Close()

	b, err := io.ReadAll(pb)
	if string(b) != "first" {
		t.Errorf("expected first chunk, got %q", b)
	}
	var unavailable *UnavailableError
	if !errors.As(err, &unavailable) || unavailable.Backend != BackendStorage {
		t.Fatalf("expected storage unavailable, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

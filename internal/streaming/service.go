package streaming

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flixtube/internal/metadata"
	"flixtube/internal/storage"
)

// Default per-stage timeouts.
const (
	DefaultLookupTimeout = 5 * time.Second
	DefaultFetchTimeout  = 10 * time.Second
	DefaultChunkTimeout  = 30 * time.Second
)

// Options bounds each backend call independently. Zero values select the
// defaults.
type Options struct {
	// LookupTimeout bounds the metadata lookup.
	LookupTimeout time.Duration
	// FetchTimeout bounds the time until the storage backend returns a stream,
	// not the lifetime of the stream.
	FetchTimeout time.Duration
	// ChunkTimeout bounds every single read from the stream.
	ChunkTimeout time.Duration
}

// Service resolves video ids to open storage streams.
type Service struct {
	videos  metadata.Store
	storage storage.Adapter
	opts    Options
}

// NewService returns a Service using the shared videos and storage handles.
func NewService(videos metadata.Store, adapter storage.Adapter, opts Options) *Service {
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = DefaultLookupTimeout
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.ChunkTimeout <= 0 {
		opts.ChunkTimeout = DefaultChunkTimeout
	}
	return &Service{videos: videos, storage: adapter, opts: opts}
}

// Open validates rawID, looks it up and starts fetching the video. The
// returned Playback lives until Close or until ctx is canceled.
//
// Errors: metadata.ErrInvalidID for malformed ids (no backend is called),
// metadata.ErrNotFound or storage.ErrNotFound when the video is missing, and
// *UnavailableError when a backend fails or times out.
func (s *Service) Open(ctx context.Context, rawID string) (*Playback, error) {
	id, err := metadata.ParseID(rawID)
	if err != nil {
		return nil, err
	}

	video, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	streamCtx, cancel := context.WithCancel(ctx)
	stream, err := s.fetch(streamCtx, cancel, video.Path)
	if err != nil {
		cancel()
		return nil, err
	}
	return newPlayback(video, stream, cancel, s.opts.ChunkTimeout), nil
}

func (s *Service) lookup(ctx context.Context, id metadata.VideoID) (metadata.Video, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.LookupTimeout)
	defer cancel()

	video, err := s.videos.FindVideo(ctx, id)
	if err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			return metadata.Video{}, err
		}
		return metadata.Video{}, &UnavailableError{Backend: BackendMetadata, Key: id.Hex(), Err: err}
	}
	return video, nil
}

// fetch applies FetchTimeout by canceling streamCtx if the backend has not
// produced a stream in time. A deadline on streamCtx itself would also end
// the body transfer.
func (s *Service) fetch(streamCtx context.Context, cancel context.CancelFunc, path string) (*storage.Stream, error) {
	timer := time.AfterFunc(s.opts.FetchTimeout, cancel)
	stream, err := s.storage.Fetch(streamCtx, path)
	if !timer.Stop() {
		if err == nil {
			stream.Body.Close()
		}
		return nil, &UnavailableError{
			Backend: BackendStorage,
			Key:     path,
			Err:     fmt.Errorf("fetch exceeded %s: %w", s.opts.FetchTimeout, context.DeadlineExceeded),
		}
	}
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		return nil, &UnavailableError{Backend: BackendStorage, Key: path, Err: err}
	}
	if stream.ContentType == "" {
		stream.ContentType = storage.DefaultContentType
	}
	return stream, nil
}

package metadata

import (
	"context"
	"sync"
)

// InMemoryStore is a map-backed Store for tests and local development.
type InMemoryStore struct {
	mu     sync.RWMutex
	videos map[VideoID]Video
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore returns a store pre-populated with videos.
func NewInMemoryStore(videos ...Video) *InMemoryStore {
	s := &InMemoryStore{videos: make(map[VideoID]Video, len(videos))}
	for _, v := range videos {
		s.videos[v.ID] = v
	}
	return s
}

// Put adds or replaces a video.
func (s *InMemoryStore) Put(v Video) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videos[v.ID] = v
}

// FindVideo implements Store.FindVideo.
func (s *InMemoryStore) FindVideo(ctx context.Context, id VideoID) (Video, error) {
	if err := ctx.Err(); err != nil {
		return Video{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.videos[id]
	if !ok {
		return Video{}, ErrNotFound
	}
	return v, nil
}

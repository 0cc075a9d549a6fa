package history

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InMemoryStore keeps view events in a slice.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []ViewEvent
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore returns an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Record implements Store.Record.
func (s *InMemoryStore) Record(ctx context.Context, ev ViewEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

// Events returns a copy of the recorded events in arrival order.
func (s *InMemoryStore) Events() []ViewEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ViewEvent, len(s.events))
	copy(out, s.events)
	return out
}

const historyCollection = "history"

// inserter is the subset of *mongo.Collection used by MongoStore.
type inserter interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

// MongoStore appends view events to the "history" collection.
type MongoStore struct {
	history inserter
}

var _ Store = (*MongoStore)(nil)

// NewMongoStore uses the history collection of db.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{history: db.Collection(historyCollection)}
}

// Record implements Store.Record.
func (s *MongoStore) Record(ctx context.Context, ev ViewEvent) error {
	if _, err := s.history.InsertOne(ctx, ev); err != nil {
		return fmt.Errorf("insert view event: %w", err)
	}
	return nil
}

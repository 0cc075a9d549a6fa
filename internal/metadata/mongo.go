package metadata

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const videosCollection = "videos"

// finder is the subset of *mongo.Collection used by MongoStore.
type finder interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
}

// MongoStore looks videos up in the "videos" collection.
type MongoStore struct {
	videos finder
}

var _ Store = (*MongoStore)(nil)

// NewMongoStore uses the videos collection of db.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{videos: db.Collection(videosCollection)}
}

// FindVideo implements Store.FindVideo.
func (s *MongoStore) FindVideo(ctx context.Context, id VideoID) (Video, error) {
	var v Video
	err := s.videos.FindOne(ctx, bson.M{"_id": id}).Decode(&v)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Video{}, ErrNotFound
		}
		return Video{}, fmt.Errorf("find video %s: %w", id.Hex(), err)
	}
	return v, nil
}

// ConnectMongo opens a client for uri and verifies it with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return client, nil
}

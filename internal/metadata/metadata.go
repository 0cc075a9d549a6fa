// Package metadata resolves video identifiers to storage paths.
package metadata

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VideoID is the identifier clients use to request a video. It is a Mongo
// ObjectID regardless of which Store backs the lookup.
type VideoID = primitive.ObjectID

// Video is the read-only record the gateway needs: where the bytes live.
type Video struct {
	ID   VideoID `bson:"_id"`
	Path string  `bson:"videoPath"`
}

var (
	// ErrInvalidID is returned for identifiers that are not 24 hex characters.
	ErrInvalidID = errors.New("invalid video id")

	// ErrNotFound is returned when no video exists for a well-formed id.
	ErrNotFound = errors.New("video not found")
)

// Store looks videos up by id. Implementations must be safe for concurrent use.
type Store interface {
	// FindVideo returns ErrNotFound when the id is unknown. Any other error
	// means the store could not answer.
	FindVideo(ctx context.Context, id VideoID) (Video, error)
}

// ParseID validates raw and converts it into a VideoID.
func ParseID(raw string) (VideoID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return id, nil
}

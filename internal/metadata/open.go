package metadata

import (
	"context"
	"fmt"
	"net/url"
)

// Open picks a Store from the scheme of uri: mongodb / mongodb+srv use
// database dbName, postgres / postgresql use the database named in the URI.
// The returned close function releases the underlying connection pool.
func Open(ctx context.Context, uri, dbName string) (Store, func(context.Context) error, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, nil, fmt.Errorf("parse metadata uri: %w", err)
	}

	switch u.Scheme {
	case "mongodb", "mongodb+srv":
		client, err := ConnectMongo(ctx, uri)
		if err != nil {
			return nil, nil, err
		}
		return NewMongoStore(client.Database(dbName)), client.Disconnect, nil
	case "postgres", "postgresql":
		pool, err := ConnectPostgres(ctx, uri)
		if err != nil {
			return nil, nil, err
		}
		return NewPostgresStore(pool), func(context.Context) error {
			pool.Close()
			return nil
		}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported metadata uri scheme %q", u.Scheme)
	}
}

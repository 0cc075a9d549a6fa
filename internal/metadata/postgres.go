package metadata

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// rowQuerier is the subset of *pgxpool.Pool used by PostgresStore.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore looks videos up in a videos(id, video_path) table where id is
// the 24-hex form of the VideoID.
type PostgresStore struct {
	db rowQuerier
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore wraps an open pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: pool}
}

// FindVideo implements Store.FindVideo.
func (s *PostgresStore) FindVideo(ctx context.Context, id VideoID) (Video, error) {
	v := Video{ID: id}
	err := s.db.QueryRow(ctx, "SELECT video_path FROM videos WHERE id = $1", id.Hex()).Scan(&v.Path)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Video{}, ErrNotFound
		}
		return Video{}, fmt.Errorf("query video %s: %w", id.Hex(), err)
	}
	return v, nil
}

// ConnectPostgres opens a pool for connString and verifies it with a ping.
func ConnectPostgres(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return pool, nil
}

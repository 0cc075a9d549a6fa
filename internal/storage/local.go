package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Local serves files from a base directory.
type Local struct {
	baseDir string
}

var _ Adapter = (*Local)(nil)

// NewLocal returns an Adapter rooted at baseDir.
func NewLocal(baseDir string) *Local {
	return &Local{baseDir: baseDir}
}

// Fetch implements Adapter.Fetch. Paths that escape the base directory or
// name a directory are reported as ErrNotFound.
func (l *Local) Fetch(ctx context.Context, p string) (*Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, &BackendError{Backend: "local", Path: p, Err: err}
	}

	full, ok := l.resolve(p)
	if !ok {
		return nil, ErrNotFound
	}

	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, &BackendError{Backend: "local", Path: p, Err: err}
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &BackendError{Backend: "local", Path: p, Err: err}
	}
	if info.IsDir() {
		f.Close()
		return nil, ErrNotFound
	}

	return &Stream{
		Body:          &ctxReadCloser{ctx: ctx, rc: f},
		ContentType:   contentTypeByExt(p),
		ContentLength: info.Size(),
	}, nil
}

func (l *Local) resolve(p string) (string, bool) {
	if p == "" {
		return "", false
	}
	rel := filepath.Clean(filepath.FromSlash("/" + p))
	rel = strings.TrimPrefix(rel, string(filepath.Separator))
	if rel == "" || rel == "." {
		return "", false
	}
	return filepath.Join(l.baseDir, rel), true
}

// ctxReadCloser stops reading once ctx is done. File reads do not observe
// contexts on their own.
type ctxReadCloser struct {
	ctx context.Context
	rc  io.ReadCloser
}

func (r *ctxReadCloser) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.rc.Read(p)
}

func (r *ctxReadCloser) Close() error {
	return r.rc.Close()
}

// Package storage turns a storage path into a byte stream plus content
// metadata. Local files, S3 objects and a remote storage service are variants
// of the same Adapter.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
)

// DefaultContentType is used when a backend cannot tell what it is serving.
const DefaultContentType = "application/octet-stream"

// ErrNotFound is returned when the object at the requested path does not exist.
var ErrNotFound = errors.New("video not found in storage")

// Stream is a single-consumer handle to a video's bytes. The caller must close
// Body. ContentLength is -1 when the backend does not know it.
type Stream struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// Adapter fetches videos by storage path. Implementations must be safe for
// concurrent use; each Fetch returns an independent Stream. Canceling ctx must
// abort reads from the returned Body.
type Adapter interface {
	Fetch(ctx context.Context, path string) (*Stream, error)
}

// BackendError reports a failure to reach or read from a backend, as opposed
// to the object being absent.
type BackendError struct {
	Backend string
	Path    string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s backend: fetch %q: %v", e.Backend, e.Path, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// videoTypes covers extensions that the system MIME tables often lack.
var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".ts":   "video/mp2t",
	".m3u8": "application/vnd.apple.mpegurl",
	".mpd":  "application/dash+xml",
}

// contentTypeByExt maps a file extension to a MIME type, falling back to
// DefaultContentType.
func contentTypeByExt(p string) string {
	ext := strings.ToLower(path.Ext(p))
	if ct, ok := videoTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return DefaultContentType
}

func orDefaultContentType(ct string) string {
	if ct == "" {
		return DefaultContentType
	}
	return ct
}

package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Remote fetches videos from a storage service speaking
// GET /video?path=<path>.
type Remote struct {
	baseURL string
	client  *http.Client
}

var _ Adapter = (*Remote)(nil)

// NewRemote returns an Adapter for the storage service at baseURL. A nil client
// uses a client without an overall timeout, since a whole-response timeout
// would cut off long videos; callers bound the fetch with ctx instead.
func NewRemote(baseURL string, client *http.Client) *Remote {
	if client == nil {
		client = &http.Client{}
	}
	return &Remote{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// Fetch implements Adapter.Fetch. 404 maps to ErrNotFound, any other non-200
// status or transport failure to *BackendError.
func (r *Remote) Fetch(ctx context.Context, p string) (*Stream, error) {
	target := r.baseURL + "/video?" + url.Values{"path": {p}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &BackendError{Backend: "remote", Path: p, Err: err}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &BackendError{Backend: "remote", Path: p, Err: err}
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return &Stream{
			Body:          resp.Body,
			ContentType:   orDefaultContentType(resp.Header.Get("Content-Type")),
			ContentLength: resp.ContentLength,
		}, nil
	case http.StatusNotFound:
		drainAndClose(resp.Body)
		return nil, ErrNotFound
	default:
		drainAndClose(resp.Body)
		return nil, &BackendError{
			Backend: "remote",
			Path:    p,
			Err:     fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}
}

// drainAndClose reads a small error body so the connection can be reused.
func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4<<10))
	_ = body.Close()
}

package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"flixtube/internal/platform/middleware"
)

// Notifier makes one delivery attempt of a view notification.
type Notifier interface {
	Notify(ctx context.Context, videoPath string) error
}

// HTTPNotifier posts {"video_path": ...} to a history service's /viewed endpoint.
type HTTPNotifier struct {
	url    string
	client *http.Client
}

var _ Notifier = (*HTTPNotifier)(nil)

// NewHTTPNotifier targets the history service at baseURL. A nil client uses
// http.DefaultClient; per-call deadlines come from ctx.
func NewHTTPNotifier(baseURL string, client *http.Client) *HTTPNotifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPNotifier{url: strings.TrimRight(baseURL, "/") + "/viewed", client: client}
}

// Notify implements Notifier. Only a 200 response counts as accepted.
func (n *HTTPNotifier) Notify(ctx context.Context, videoPath string) error {
	body, err := json.Marshal(ViewEvent{VideoPath: videoPath})
	if err != nil {
		return fmt.Errorf("marshal view event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build viewed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if id := middleware.GetRequestID(ctx); id != "" {
		req.Header.Set(middleware.RequestIDHeader, id)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post viewed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("history service responded with status %d", resp.StatusCode)
	}
	return nil
}

// Package notify carries push-mode payloads to the external dispatcher.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fieldserve/jobrunner/internal/jobs"
)

// Notifier delivers one payload to the dispatcher. It exists as an
// interface so push mode can be exercised in tests without network I/O.
type Notifier interface {
	Dispatch(ctx context.Context, p jobs.JobPayload) error
}

// HTTPDispatcher POSTs payloads as JSON to the configured dispatcher
// endpoint, authenticated with a service credential.
type HTTPDispatcher struct {
	url    string
	token  string
	client *http.Client
}

func NewHTTPDispatcher(url, token string, timeout time.Duration) *HTTPDispatcher {
	return &HTTPDispatcher{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: timeout},
	}
}

var _ Notifier = (*HTTPDispatcher)(nil)

func (d *HTTPDispatcher) Dispatch(ctx context.Context, p jobs.JobPayload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build dispatch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.token)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("dispatch job: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("dispatcher returned status %d", resp.StatusCode)
	}
	return nil
}

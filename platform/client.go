// Package platform talks to the fleet platform that queued updates drain
// into. The platform is the authoritative server for shifts, deliveries
// and location history.
package platform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"courierd/config"
	"courierd/store"
)

// ErrDuplicate means the server already applied this update (idempotent
// resubmission). Callers treat it as acceptance.
var ErrDuplicate = errors.New("platform: update already applied")

// HTTPError is a non-2xx platform response. The server was reachable;
// whether a retry can help depends on the status code.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("platform HTTP %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the failure may clear on its own.
func (e *HTTPError) Retryable() bool {
	return e.StatusCode >= 500
}

// Client submits queued updates to the fleet platform.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a platform client.
func NewClient(cfg config.PlatformConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// pathFor maps a queue kind to its platform endpoint.
func pathFor(kind string) (string, error) {
	switch kind {
	case store.UpdateKindLocation:
		return "/driver/locations", nil
	case store.UpdateKindStatusChange:
		return "/driver/delivery-status", nil
	case store.UpdateKindShiftEvent:
		return "/driver/shift-events", nil
	}
	return "", fmt.Errorf("platform: unknown update kind %q", kind)
}

// SubmitUpdate posts one queued update. The payload is sent verbatim so
// the server receives exactly what was captured at enqueue time.
func (c *Client) SubmitUpdate(ctx context.Context, u *store.QueuedUpdate) error {
	path, err := pathFor(u.Kind)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(u.Payload))
	if err != nil {
		return fmt.Errorf("platform request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Driver-ID", u.DriverID)
	req.Header.Set("X-Update-ID", fmt.Sprintf("%d", u.ID))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("platform POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	// The server-side state machine rejects a status it has already
	// passed; that is an idempotent resubmission, not a failure.
	if resp.StatusCode == http.StatusConflict && u.Kind == store.UpdateKindStatusChange {
		return ErrDuplicate
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
}

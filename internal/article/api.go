package article

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	ErrUnconfigured = errors.New("API key not configured")
	ErrUnauthorized = errors.New("authentication failed")
	ErrRateLimited  = errors.New("rate limited")
)

const defaultAPITimeout = 30 * time.Second

func newAPIClient(timeout time.Duration) (*http.Client, time.Duration) {
	if timeout <= 0 {
		timeout = defaultAPITimeout
	}
	return &http.Client{Timeout: timeout}, timeout
}

// callAPI performs req and returns the body of a 200 response. Other statuses
// become errors carrying the backend name and the response body.
func callAPI(client *http.Client, backend string, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", backend, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read response: %w", backend, err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("%s: %w: %s", backend, ErrUnauthorized, body)
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("%s: %w", backend, ErrRateLimited)
	default:
		return nil, fmt.Errorf("%s: HTTP %d: %s", backend, resp.StatusCode, body)
	}
}

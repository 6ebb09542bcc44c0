package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a single fetch. It is the only deadline a request
// has; there is no application-level retry.
const DefaultTimeout = 30 * time.Second

// DefaultMaxBodyBytes caps how much of a response body is read.
const DefaultMaxBodyBytes = 64 << 20

// ErrBodyTooLarge is the cause of a TransportError for a body over the limit.
var ErrBodyTooLarge = errors.New("response body too large")

// Fetcher performs one GET against the remote API and returns the body.
type Fetcher interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// HTTPFetcher fetches over HTTP from a base URL.
type HTTPFetcher struct {
	BaseURL    string
	HTTPClient *http.Client

	// MaxBodyBytes is the largest accepted body; 0 means DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

// NewHTTPFetcher creates a fetcher for baseURL (e.g. http://127.0.0.1:9090).
// A base without a scheme is treated as plain http.
func NewHTTPFetcher(baseURL string, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	return &HTTPFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch implements Fetcher. Any failure is returned as a *TransportError.
func (f *HTTPFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+path, nil)
	if err != nil {
		return nil, &TransportError{Path: path, Cause: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return nil, &TransportError{Path: path, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, f.maxBodyBytes()))
		return nil, &TransportError{Path: path, StatusCode: resp.StatusCode}
	}

	limit := f.maxBodyBytes()
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, &TransportError{Path: path, Cause: fmt.Errorf("reading body: %w", err)}
	}
	if int64(len(body)) > limit {
		return nil, &TransportError{Path: path, Cause: fmt.Errorf("%w: over %d bytes", ErrBodyTooLarge, limit)}
	}
	return body, nil
}

func (f *HTTPFetcher) maxBodyBytes() int64 {
	if f.MaxBodyBytes > 0 {
		return f.MaxBodyBytes
	}
	return DefaultMaxBodyBytes
}

// Close releases idle connections held by the client.
func (f *HTTPFetcher) Close() {
	f.HTTPClient.CloseIdleConnections()
}

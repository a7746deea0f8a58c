// Package fetch provides shared HTTP helpers for the source adapters.
// It centralizes client construction, JSON request execution, and the
// error classification the retry layer relies on.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout is the default HTTP request timeout for lookups.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; DeepDive/1.0)"

// TransportError wraps a network-level failure (connection refused, DNS,
// timeout). Transport failures are retryable.
type TransportError struct {
	URL   string
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// Retryable marks transport failures for the retry layer.
func (e *TransportError) Retryable() bool { return true }

// StatusError reports a non-2xx response. Like the transport case it is
// retryable: upstreams answer 5xx and 429 transiently.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request to %s returned status %d", e.URL, e.StatusCode)
}

// Retryable marks status failures for the retry layer.
func (e *StatusError) Retryable() bool { return true }

// NewClient builds the shared HTTP client used by the adapters.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// GetJSON issues a GET request with the given query parameters and returns
// the raw response body. Non-2xx responses become a *StatusError, network
// failures a *TransportError.
func GetJSON(ctx context.Context, client *http.Client, rawURL string, query url.Values) ([]byte, error) {
	reqURL := rawURL
	if len(query) > 0 {
		reqURL = rawURL + "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "application/json")

	return do(client, req, rawURL)
}

// PostJSON issues a POST request with a JSON-encoded body and optional extra
// headers, returning the raw response body. Error classification matches
// GetJSON.
func PostJSON(ctx context.Context, client *http.Client, rawURL string, headers map[string]string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body for %s: %w", rawURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return do(client, req, rawURL)
}

// GetHTML issues a GET request for an HTML page and returns the body. Error
// classification matches GetJSON.
func GetHTML(ctx context.Context, client *http.Client, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "text/html")

	data, err := do(client, req, rawURL)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func do(client *http.Client, req *http.Request, rawURL string) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode, Body: string(data)}
	}

	return data, nil
}

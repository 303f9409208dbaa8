// Package upstream holds the HTTP plumbing and error taxonomy shared by the
// hydrology and weather clients.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"riverwatch/internal/metrics"
)

// DefaultTimeout bounds a single upstream call.
const DefaultTimeout = 20 * time.Second

// FetchError reports a transport failure, a timeout or a non-2xx response.
// StatusCode is zero when no response was received.
type FetchError struct {
	Source     string
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s fetch: unexpected status %d: %v", e.Source, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s fetch: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports a response body that does not have the expected shape.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s parse: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var errStatus = errors.New("non-2xx response")

// maxErrorBody caps how much of a failed response body ends up in an error.
const maxErrorBody = 512

// Requester issues a single GET per call; there are no retries.
type Requester struct {
	client  *http.Client
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewRequester builds a Requester. A nil client gets DefaultTimeout, a nil
// logger uses slog.Default and m may be nil.
func NewRequester(client *http.Client, m *metrics.Metrics, logger *slog.Logger) *Requester {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Requester{client: client, metrics: m, logger: logger}
}

// GetJSON requests baseURL with query and decodes the JSON body into dst.
func (r *Requester) GetJSON(ctx context.Context, source, baseURL string, query url.Values, dst any) error {
	start := time.Now()
	err := r.getJSON(ctx, source, baseURL, query, dst)

	result := metrics.ResultOK
	var fetchErr *FetchError
	var parseErr *ParseError
	switch {
	case errors.As(err, &fetchErr):
		result = metrics.ResultFetchError
	case errors.As(err, &parseErr):
		result = metrics.ResultParseError
	}
	r.metrics.ObserveUpstream(source, result, time.Since(start))
	return err
}

func (r *Requester) getJSON(ctx context.Context, source, baseURL string, query url.Values, dst any) error {
	u, err := url.Parse(baseURL)
	if err != nil {
		return &FetchError{Source: source, URL: baseURL, Err: fmt.Errorf("parse base url: %w", err)}
	}
	u.RawQuery = query.Encode()
	target := u.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return &FetchError{Source: source, URL: target, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return &FetchError{Source: source, URL: target, Err: err}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			r.logger.Error("close upstream body", "source", source, "error", closeErr)
		}
	}()

	r.logger.Debug("upstream response",
		"source", source,
		"url", target,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &FetchError{
			Source:     source,
			URL:        target,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: %q", errStatus, snippet),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return &ParseError{Source: source, Err: fmt.Errorf("decode body: %w", err)}
	}
	return nil
}

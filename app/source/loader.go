package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPError reports a non-success response status from a source fetch.
type HTTPError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error fetching %s: %d %s", e.URL, e.StatusCode, e.Status)
}

// FormatError reports a response body that is not a valid source feed:
// either an HTML fallback page served at the feed path, or broken JSON.
type FormatError struct {
	URL    string
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid source feed at %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid source feed at %s: %s", e.URL, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

type Loader struct {
	httpClient *http.Client
	userAgent  string
}

func NewLoader(httpClient *http.Client, userAgent string) *Loader {
	return &Loader{
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

// Load fetches and decodes a source feed. The body is read as text
// first so that misconfigured hosts serving an HTML fallback page at
// the feed path are rejected with a FormatError instead of a JSON
// syntax error deep inside the decoder.
func (l *Loader) Load(ctx context.Context, url string, timeout time.Duration) (*Feed, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", l.userAgent)

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch source: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return l.Parse(url, data)
}

// Parse decodes raw feed bytes, applying the same HTML guard as Load.
func (l *Loader) Parse(url string, data []byte) (*Feed, error) {
	if looksLikeHTML(data) {
		return nil, &FormatError{URL: url, Reason: "response body is an HTML document, not a JSON feed"}
	}

	var feed Feed
	if err := json.Unmarshal(data, &feed); err != nil {
		return nil, &FormatError{URL: url, Reason: "failed to parse JSON", Err: err}
	}

	return &feed, nil
}

func looksLikeHTML(data []byte) bool {
	body := strings.ToLower(strings.TrimSpace(string(data)))
	return strings.HasPrefix(body, "<!doctype") || strings.HasPrefix(body, "<html")
}

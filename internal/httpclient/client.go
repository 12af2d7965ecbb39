// Package httpclient retrieves raw ICS payloads for calendar sources.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const defaultTimeout = 15 * time.Second

// maxPayloadBytes caps a single ICS payload read.
const maxPayloadBytes = 16 << 20

// Client fetches ICS payloads from http(s) URLs or local file paths.
type Client struct {
	client *http.Client
	logger *slog.Logger
}

// New creates a new Client with the given logger. A nil logger discards
// all output.
func New(client *http.Client, logger *slog.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{client: client, logger: logger}
}

// Fetch retrieves one ICS payload. Anything that does not look like an
// http(s) URL is read as a local file path.
func (c *Client) Fetch(ctx context.Context, source string) ([]byte, error) {
	if source == "" {
		return nil, fmt.Errorf("source is empty")
	}

	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("failed to read %q: %w", source, err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %q: %w", RedactURL(source), err)
	}
	req.Header.Set("Accept", "text/calendar")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", RedactURL(source), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", RedactURL(source), resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: read body: %w", RedactURL(source), err)
	}

	c.logger.Debug("fetched ics payload",
		"url", RedactURL(source),
		"bytes", len(body),
		"elapsed", time.Since(start))
	return body, nil
}

// RedactURL strips credentials and query strings from a URL for logging.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparseable url>"
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

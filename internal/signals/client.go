// Package signals fetches aggregated signal counts from the remote endpoint.
package signals

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sc "signal_chart"

	"github.com/google/uuid"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20 // 1 MB
	userAgent      = "signal-chart/1"
	queryType      = "process"
)

// Client is the HTTP fetcher for signal counts.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for baseURL. A non-positive timeout selects the default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "?&"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// RequestURL builds the query URL. Parameter order is type, mid, start, end.
func (c *Client) RequestURL(mid int, start, end string) string {
	sep := "?"
	if strings.Contains(c.baseURL, "?") {
		sep = "&"
	}
	return c.baseURL + sep +
		"type=" + queryType +
		"&mid=" + strconv.Itoa(mid) +
		"&start=" + EscapeDataString(start) +
		"&end=" + EscapeDataString(end)
}

// EscapeDataString percent-encodes s for use as a query value, encoding a
// space as %20 rather than '+'.
func EscapeDataString(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Fetch performs one GET and decodes the response. The body is read in full
// before decoding begins.
func (c *Client) Fetch(ctx context.Context, mid int, start, end string) (sc.SignalCounts, error) {
	u := c.RequestURL(mid, start, end)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return sc.SignalCounts{}, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return sc.SignalCounts{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return sc.SignalCounts{}, &StatusCodeError{StatusCode: resp.StatusCode, URL: u}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return sc.SignalCounts{}, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}
	return Decode(raw)
}

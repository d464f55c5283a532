// Package fetch performs the HTTP GET requests of a scrape run and turns
// responses into parsed HTML trees.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// DefaultUserAgent is sent when no User-Agent header is configured.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:132.0) Gecko/20100101 Firefox/132.0"

// DefaultTimeout bounds a single request when the caller passes zero.
const DefaultTimeout = 30 * time.Second

// StatusError is returned when a server answers with a non-200 status.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error: %s returned %s", e.URL, e.Status)
}

// Response is a fully read HTTP response body.
type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// Client issues GET requests with a fixed header set and timeout.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
}

// NewClient creates a client sending headers with every request. A zero
// timeout falls back to DefaultTimeout.
func NewClient(headers map[string]string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	// Header names are case-insensitive; keep one canonical key each
	h := make(map[string]string, len(headers)+1)
	for k, v := range headers {
		h[http.CanonicalHeaderKey(k)] = v
	}
	if _, ok := h["User-Agent"]; !ok {
		h["User-Agent"] = DefaultUserAgent
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: h,
	}
}

// Get fetches url and returns its raw body. Any status other than 200 is
// reported as a *StatusError.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	// Create request
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	// Perform the request
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	// Check for HTTP errors
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}

	// Read the body
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		URL:         url,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// Fetch fetches url and parses it as HTML. Bodies in a legacy encoding such
// as windows-1251 are converted to UTF-8 first, using the Content-Type
// header or the document's meta tags.
func (c *Client) Fetch(ctx context.Context, url string) (*html.Node, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	return Parse(resp.Body, resp.ContentType)
}

// Parse decodes body according to contentType and builds an HTML tree.
func Parse(body []byte, contentType string) (*html.Node, error) {
	// Fall back to the raw bytes if the encoding is unknown
	var r io.Reader = bytes.NewReader(body)
	utf8Reader, err := charset.NewReader(r, contentType)
	if err == nil {
		r = utf8Reader
	} else {
		r = bytes.NewReader(body)
	}

	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

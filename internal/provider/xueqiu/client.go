package xueqiu

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
)

const defaultBaseURL = "https://stock.xueqiu.com"

// sessionURL is fetched once before the first API call; the response sets the
// xq_a_token session cookie the API endpoints require.
const defaultSessionURL = "https://xueqiu.com"

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=xueqiu_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// APIClient is a client for the Xueqiu quote API.
type APIClient struct {
	// baseURL is the base URL for the API.
	baseURL string
	// sessionURL is fetched once to obtain the session cookie.
	sessionURL string
	// httpClient performs the requests. It must carry a cookie jar for the
	// session bootstrap to take effect.
	httpClient HTTPClient
	// header contains additional headers sent with each request.
	header http.Header

	sessionMu sync.Mutex
	sessionOK bool
}

// APIClientOption is a configuration option for the API client.
type APIClientOption func(*APIClient)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) APIClientOption {
	return func(c *APIClient) {
		c.baseURL = baseURL
	}
}

// WithSessionURL sets the URL fetched to bootstrap the session cookie.
func WithSessionURL(sessionURL string) APIClientOption {
	return func(c *APIClient) {
		c.sessionURL = sessionURL
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) APIClientOption {
	return func(c *APIClient) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) APIClientOption {
	return func(c *APIClient) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// NewAPIClient creates a new Xueqiu API client.
func NewAPIClient(options ...APIClientOption) *APIClient {
	client := &APIClient{
		baseURL:    defaultBaseURL,
		sessionURL: defaultSessionURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
	}
	for _, option := range options {
		option(client)
	}
	return client
}

// ensureSession fetches the session page once so subsequent API calls carry
// the cookie. Failures are returned to the caller and retried on the next
// call.
func (c *APIClient) ensureSession(ctx context.Context) error {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	if c.sessionOK || c.sessionURL == "" {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.sessionURL, http.NoBody)
	if err != nil {
		return err
	}
	c.applyHeader(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("session bootstrap: %w", err)
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("session bootstrap: GET %s -> %d", c.sessionURL, resp.StatusCode)
	}
	c.sessionOK = true
	return nil
}

// get performs an authenticated GET against path with query values and
// returns the raw body.
func (c *APIClient) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.ensureSession(ctx); err != nil {
		return nil, err
	}
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, err
	}
	c.applyHeader(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("GET %s -> %d", u, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 4<<20))
}

func (c *APIClient) applyHeader(req *http.Request) {
	for key, values := range c.header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
}

package httpx

import (
    "context"
    "net"
    "net/http"
    "net/http/cookiejar"
    "time"
)

// Client is a small wrapper around http.Client with sane defaults.
// Headers are applied to every request unless the request already sets them,
// which is how the provider adapters carry their User-Agent and Referer.
type Client struct {
    HTTP      *http.Client
    UserAgent string
    Headers   map[string]string
}

func New(timeout time.Duration) *Client {
    transport := &http.Transport{
        Proxy: http.ProxyFromEnvironment,
        DialContext: (&net.Dialer{Timeout: 3 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
        MaxIdleConns:          100,
        MaxIdleConnsPerHost:   20,
        MaxConnsPerHost:       20,
        ForceAttemptHTTP2:     true,
        IdleConnTimeout:       90 * time.Second,
        TLSHandshakeTimeout:   3 * time.Second,
        ExpectContinueTimeout: 1 * time.Second,
        ResponseHeaderTimeout: 10 * time.Second,
    }
    return &Client{HTTP: &http.Client{Timeout: timeout, Transport: transport}, UserAgent: "stocksim/1.0"}
}

// WithJar attaches a cookie jar so session cookies set by an upstream
// survive across requests (the Xueqiu endpoints require this).
func (c *Client) WithJar() *Client {
    jar, err := cookiejar.New(nil)
    if err == nil { c.HTTP.Jar = jar }
    return c
}

func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
    if c.UserAgent != "" && req.Header.Get("User-Agent") == "" {
        req.Header.Set("User-Agent", c.UserAgent)
    }
    for k, v := range c.Headers {
        if req.Header.Get(k) == "" {
            req.Header.Set(k, v)
        }
    }
    return c.HTTP.Do(req)
}

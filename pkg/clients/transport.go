package clients

import (
	"net"
	"net/http"
	"time"
)

// DefaultTransport returns an HTTP transport with per-host connection caps, so a
// stalled model provider or upstream cannot pile up unbounded connections.
func DefaultTransport() *http.Transport {
	return &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		MaxConnsPerHost: 100,

		MaxIdleConnsPerHost: 10,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,

		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,

		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// NewHTTPClient builds a client on DefaultTransport. A zero timeout leaves the
// deadline to the caller's context.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: DefaultTransport(),
		Timeout:   timeout,
	}
}

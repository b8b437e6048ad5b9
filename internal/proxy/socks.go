// Package proxy builds the HTTP client shared by the cloud backends.
package proxy

import (
	"context"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/proxy"
)

const DefaultTimeout = 120 * time.Second

// NewClient returns a plain client when socksAddr is empty, otherwise one
// that tunnels every request through the SOCKS5 proxy.
func NewClient(socksAddr string) (*http.Client, error) {
	if socksAddr == "" {
		return &http.Client{Timeout: DefaultTimeout}, nil
	}

	dialer, err := proxy.SOCKS5("tcp", socksAddr, nil, proxy.Direct)
	if err != nil {
		return nil, err
	}

	dial := func(ctx context.Context, network, addr string) (net.Conn, error) {
		return dialer.Dial(network, addr)
	}
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		dial = cd.DialContext
	}

	return &http.Client{
		Transport: &http.Transport{DialContext: dial},
		Timeout:   DefaultTimeout,
	}, nil
}

// SetDefault routes http.DefaultTransport through c. Libraries that build
// their own clients then share the proxy. A direct client changes nothing.
func SetDefault(c *http.Client) {
	if c == nil || c.Transport == nil {
		return
	}
	http.DefaultTransport = c.Transport
}

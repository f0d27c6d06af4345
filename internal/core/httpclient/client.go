// Package httpclient configures outbound HTTP clients.
package httpclient

import (
	"net"
	"net/http"
	"time"
)

type Options struct {
	Timeout         time.Duration
	MaxIdleConns    int
	MaxConnsPerHost int
}

// NewOutbound creates a new outbound http client. Zero options fall back to
// defaults sized for a single API host.
func NewOutbound(o Options) *http.Client {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.MaxIdleConns <= 0 {
		o.MaxIdleConns = 256
	}
	if o.MaxConnsPerHost <= 0 {
		o.MaxConnsPerHost = 128
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          o.MaxIdleConns,
		MaxIdleConnsPerHost:   o.MaxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   o.Timeout,
	}
}

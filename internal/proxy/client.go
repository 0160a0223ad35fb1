package proxy

import (
	"net"
	"net/http"
	"time"

	"github.com/wudi/apiproxy/internal/config"
)

// ClientConfig configures the shared outbound HTTP client.
type ClientConfig struct {
	ConnectTimeout      time.Duration
	RequestTimeout      time.Duration
	KeepAlive           time.Duration
	MaxIdleConnsPerHost int

	// Timeouts below are not exposed in the YAML config; defaults apply.
	TLSHandshakeTimeout   time.Duration
	ExpectContinueTimeout time.Duration
	IdleConnTimeout       time.Duration
}

// DefaultClientConfig provides default outbound client settings.
var DefaultClientConfig = ClientConfig{
	ConnectTimeout:        10 * time.Second,
	RequestTimeout:        3600 * time.Second,
	KeepAlive:             60 * time.Second,
	MaxIdleConnsPerHost:   20,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	IdleConnTimeout:       90 * time.Second,
}

// ClientConfigFrom maps the YAML proxy section onto a ClientConfig,
// falling back to defaults for unset fields.
func ClientConfigFrom(cfg config.ProxyConfig) ClientConfig {
	c := DefaultClientConfig
	if cfg.ConnectTimeout > 0 {
		c.ConnectTimeout = cfg.ConnectTimeout
	}
	if cfg.RequestTimeout > 0 {
		c.RequestTimeout = cfg.RequestTimeout
	}
	if cfg.KeepAlive > 0 {
		c.KeepAlive = cfg.KeepAlive
	}
	if cfg.MaxIdleConnsPerHost > 0 {
		c.MaxIdleConnsPerHost = cfg.MaxIdleConnsPerHost
	}
	return c
}

// NewClient builds the shared outbound client. It is constructed once at
// startup and reused by every request handler; the transport's connection
// pool is internally safe for concurrent use.
func NewClient(cfg ClientConfig) *http.Client {
	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: cfg.KeepAlive,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ExpectContinueTimeout: cfg.ExpectContinueTimeout,
		ForceAttemptHTTP2:     true,
		// Keep the relay byte-transparent: never inject Accept-Encoding or
		// transparently decompress upstream bodies.
		DisableCompression: true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.RequestTimeout,
		// The proxy relays upstream redirects verbatim instead of following them.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

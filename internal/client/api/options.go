package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "newscoin-cli"
	maxRedirects     = 10
)

type options struct {
	httpClient      *http.Client
	logger          *slog.Logger
	userAgent       string
	timeout         time.Duration
	coalesceRefresh bool
}

// Option configures a Pipeline or Client
type Option func(*options)

func defaultOptions() options {
	return options{
		httpClient: &http.Client{
			Timeout:       defaultTimeout,
			CheckRedirect: checkRedirect,
		},
		logger:    slog.Default(),
		userAgent: defaultUserAgent,
	}
}

// checkRedirect ограничивает число редиректов и переносит Authorization
// только на тот же host:port. На другой хост http.Client сам не передает
// заголовок.
func checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	if len(via) == 0 || req.URL.Host != via[0].URL.Host {
		return nil
	}
	if auth := via[0].Header.Get("Authorization"); auth != "" {
		req.Header.Set("Authorization", auth)
	}
	return nil
}

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithTimeout sets the per-attempt HTTP timeout
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}

// WithCoalescedRefresh makes concurrent 401s holding the same refresh
// token share a single refresh call
func WithCoalescedRefresh(enabled bool) Option {
	return func(o *options) {
		o.coalesceRefresh = enabled
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.timeout > 0 {
		hc := *o.httpClient
		hc.Timeout = o.timeout
		o.httpClient = &hc
	}
	return o
}

// Package netx builds the single outbound HTTP transport used by remote store
// clients: optional proxy (manual URL or system-detected) and optional TLS
// verification bypass.
package netx

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/dmitrijs2005/docsync/internal/logging"
	"golang.org/x/net/http/httpproxy"
)

type ProxyMode string

const (
	ProxyNone   ProxyMode = "none"
	ProxyManual ProxyMode = "manual"
	ProxySystem ProxyMode = "system"
)

// Options is the network part of a sync configuration.
type Options struct {
	ProxyMode          ProxyMode `json:"proxyMode,omitempty"`
	ProxyURL           string    `json:"proxyUrl,omitempty"`
	InsecureSkipVerify bool      `json:"insecureSkipVerify,omitempty"`
}

// proxyFromEnvironment is a test seam for httpproxy.FromEnvironment.
var proxyFromEnvironment = httpproxy.FromEnvironment

// BuildTransport returns a transport configured from o. It starts from a clone
// of http.DefaultTransport so pooling and timeouts stay at library defaults.
func BuildTransport(o Options) (*http.Transport, error) {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return nil, fmt.Errorf("default transport is %T", http.DefaultTransport)
	}
	t := base.Clone()

	switch o.ProxyMode {
	case "", ProxyNone:
		t.Proxy = nil
	case ProxyManual:
		if o.ProxyURL == "" {
			return nil, fmt.Errorf("manual proxy mode requires a proxy URL")
		}
		u, err := url.Parse(o.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("proxy url %q must include scheme and host", o.ProxyURL)
		}
		t.Proxy = http.ProxyURL(u)
	case ProxySystem:
		proxyFunc := proxyFromEnvironment().ProxyFunc()
		t.Proxy = func(r *http.Request) (*url.URL, error) {
			return proxyFunc(r.URL)
		}
	default:
		return nil, fmt.Errorf("unknown proxy mode %q", o.ProxyMode)
	}

	if o.InsecureSkipVerify {
		cfg := &tls.Config{}
		if t.TLSClientConfig != nil {
			cfg = t.TLSClientConfig.Clone()
		}
		cfg.InsecureSkipVerify = true
		t.TLSClientConfig = cfg
	}

	return t, nil
}

// Lazy is an http.RoundTripper whose underlying transport is resolved on first
// use and never changes afterwards. A build failure degrades to
// http.DefaultTransport and is logged once.
type Lazy struct {
	resolve func() http.RoundTripper
}

// NewLazy defers BuildTransport(o) to the first request.
func NewLazy(o Options, log logging.Logger) *Lazy {
	return &Lazy{resolve: sync.OnceValue(func() http.RoundTripper {
		t, err := BuildTransport(o)
		if err != nil {
			log.Warn(context.Background(), "custom transport unavailable, using default",
				"proxy_mode", string(o.ProxyMode), "err", err)
			return http.DefaultTransport
		}
		return t
	})}
}

// Transport returns the resolved transport, building it if needed.
func (l *Lazy) Transport() http.RoundTripper {
	return l.resolve()
}

func (l *Lazy) RoundTrip(req *http.Request) (*http.Response, error) {
	return l.resolve().RoundTrip(req)
}

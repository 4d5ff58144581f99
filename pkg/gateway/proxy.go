// Package gateway runs a reverse proxy in front of an agentic service,
// gating every inbound request on the badge authority's verdict. It is the
// deployment shape for services that cannot embed the middleware directly.
package gateway

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"go.uber.org/zap"
)

// Proxy forwards allowed requests to the upstream service.
type Proxy struct {
	target *url.URL
	proxy  *httputil.ReverseProxy
	logger *zap.Logger
}

// NewProxy builds a single-host reverse proxy for the upstream URL.
func NewProxy(targetURL string, logger *zap.Logger) (*Proxy, error) {
	target, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream URL %q: %w", targetURL, err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("upstream URL %q must be absolute", targetURL)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	proxy := httputil.NewSingleHostReverseProxy(target)

	originalDirector := proxy.Director
	proxy.Director = func(req *http.Request) {
		host := req.Host
		originalDirector(req)
		req.Header.Set("X-Forwarded-Host", host)
		req.Host = target.Host
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error("upstream request failed",
			zap.String("path", r.URL.Path),
			zap.String("upstream", target.Host),
			zap.Error(err),
		)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"bad_gateway","reason":"upstream unavailable"}`))
	}

	// Streaming upstreams need responses flushed as they arrive.
	proxy.FlushInterval = -1

	return &Proxy{target: target, proxy: proxy, logger: logger}, nil
}

// ServeHTTP implements http.Handler.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.proxy.ServeHTTP(w, r)
}

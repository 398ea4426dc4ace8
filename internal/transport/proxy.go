// Package transport provides the outbound HTTP transport shared by the
// content-store and social clients. Proxying is a scoped http.RoundTripper
// handed to each client at construction; nothing global is mutated.
package transport

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/choneas/atelier/internal/config"
)

// Upstream hosts the proxy knows how to substitute.
const (
	NotionAPIHost   = "www.notion.so"
	NotionAssetHost = "file.notion.so"
)

// Proxy rewrites requests to known upstream hosts onto configured mirror
// hosts. If the proxied attempt fails with a transport error or a 5xx
// status, the original URL is tried once before giving up.
type Proxy struct {
	base     http.RoundTripper
	logger   *zap.Logger
	enabled  bool
	rewrites map[string]string
}

func NewProxy(cfg *config.ProxyConfig, base http.RoundTripper, logger *zap.Logger) *Proxy {
	if base == nil {
		base = defaultTransport()
	}

	rewrites := make(map[string]string)
	if cfg.Enabled {
		if cfg.APIHost != "" {
			rewrites[NotionAPIHost] = cfg.APIHost
		}
		if cfg.AssetHost != "" {
			rewrites[NotionAssetHost] = cfg.AssetHost
		}
	}

	return &Proxy{
		base:     base,
		logger:   logger,
		enabled:  cfg.Enabled,
		rewrites: rewrites,
	}
}

func defaultTransport() *http.Transport {
	return &http.Transport{
		IdleConnTimeout:       120 * time.Second,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   10,
		TLSHandshakeTimeout:   20 * time.Second,
		ResponseHeaderTimeout: 20 * time.Second,
	}
}

func (p *Proxy) RoundTrip(req *http.Request) (*http.Response, error) {
	proxyHost, ok := p.rewrites[req.URL.Host]
	if !p.enabled || !ok {
		return p.base.RoundTrip(req)
	}

	proxied := req.Clone(req.Context())
	proxied.URL.Host = proxyHost
	proxied.Host = proxyHost
	if req.Body != nil && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		proxied.Body = body
	}

	resp, err := p.base.RoundTrip(proxied)
	if err == nil && resp.StatusCode < http.StatusInternalServerError {
		return resp, nil
	}

	if err != nil {
		p.logger.Warn("Proxied request failed, retrying direct",
			zap.String("proxy_host", proxyHost),
			zap.String("url", req.URL.String()),
			zap.Error(err))
	} else {
		resp.Body.Close()
		p.logger.Warn("Proxied request returned server error, retrying direct",
			zap.String("proxy_host", proxyHost),
			zap.String("url", req.URL.String()),
			zap.Int("status", resp.StatusCode))
	}

	direct := req.Clone(req.Context())
	if req.Body != nil && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		direct.Body = body
	}

	return p.base.RoundTrip(direct)
}

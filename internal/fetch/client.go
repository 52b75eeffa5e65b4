// Package fetch acquires package artifacts over HTTP and hands back
// verified files from the local artifact cache.
package fetch

import (
	"cellar/internal/config"
	"cellar/internal/utils"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"
)

const (
	maxIdleConns          = 100
	maxConnsPerHost       = 16
	idleConnTimeout       = 90 * time.Second
	tlsHandshakeTimeout   = 10 * time.Second
	responseHeaderTimeout = 30 * time.Second
	expectContinueTimeout = 1 * time.Second
	dialTimeout           = 30 * time.Second
	keepAlivePeriod       = 30 * time.Second
)

const (
	protocolStandard = "standard"
	protocolHTTP3    = "http/3"
)

type protocolClient struct {
	name   string
	client *http.Client
}

// Client issues artifact requests over a preferred protocol chain.
// With HTTP/3 enabled the chain is http/3 then the standard transport;
// otherwise only the standard transport is used.
type Client struct {
	primary        protocolClient
	fallbacks      []protocolClient
	http3Transport *http3.Transport
	userAgent      string
}

// NewClient builds the protocol chain for the given settings.
func NewClient(settings *config.Settings) *Client {
	standard := protocolClient{name: protocolStandard, client: newHTTPClient(buildTransport())}

	c := &Client{primary: standard, userAgent: settings.Network.UserAgent}
	if settings.Network.PreferHTTP3 {
		h3Transport := &http3.Transport{
			TLSClientConfig: &tls.Config{
				NextProtos: []string{"h3"},
			},
			QUICConfig: &quic.Config{
				HandshakeIdleTimeout: tlsHandshakeTimeout,
				MaxIdleTimeout:       idleConnTimeout,
				KeepAlivePeriod:      keepAlivePeriod,
			},
		}
		c.http3Transport = h3Transport
		c.primary = protocolClient{name: protocolHTTP3, client: newHTTPClient(h3Transport)}
		c.fallbacks = []protocolClient{standard}
	}
	utils.Debug("Transport selection: chain=%s", c.chainNames())
	return c
}

func buildTransport() *http.Transport {
	return &http.Transport{
		MaxIdleConns:        maxIdleConns,
		MaxIdleConnsPerHost: maxConnsPerHost,
		MaxConnsPerHost:     maxConnsPerHost,
		Proxy:               http.ProxyFromEnvironment,

		IdleConnTimeout:       idleConnTimeout,
		TLSHandshakeTimeout:   tlsHandshakeTimeout,
		ResponseHeaderTimeout: responseHeaderTimeout,
		ExpectContinueTimeout: expectContinueTimeout,

		// Artifacts are already compressed archives.
		DisableCompression: true,
		ForceAttemptHTTP2:  true,

		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: keepAlivePeriod,
		}).DialContext,
	}
}

func newHTTPClient(transport http.RoundTripper) *http.Client {
	return &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("stopped after 10 redirects")
			}
			return nil
		},
	}
}

func (c *Client) chainNames() string {
	names := c.primary.name
	for _, fallback := range c.fallbacks {
		names += " -> " + fallback.name
	}
	return names
}

// Get issues a GET for rawURL, walking the protocol chain until one
// transport produces a response. An HTTP error status is returned as an
// error without trying the next protocol; the server answered, the
// transport is fine. The caller owns resp.Body on success.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	var lastErr error
	for _, pc := range append([]protocolClient{c.primary}, c.fallbacks...) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request for %s: %w", rawURL, err)
		}
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := pc.client.Do(req)
		if err != nil {
			utils.Debug("GET %s over %s failed: %v", rawURL, pc.name, err)
			lastErr = err
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			resp.Body.Close()
			return nil, fmt.Errorf("server returned %s for %s", resp.Status, rawURL)
		}
		return resp, nil
	}
	return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, lastErr)
}

// Close releases the HTTP/3 transport, if one was built.
func (c *Client) Close() {
	if c == nil || c.http3Transport == nil {
		return
	}
	if err := c.http3Transport.Close(); err != nil {
		utils.Debug("Error closing HTTP/3 transport: %v", err)
	}
}

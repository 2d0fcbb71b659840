package fetch

import (
	"errors"
	"net"
	"net/http"
	"net/http/cookiejar"

	"github.com/sirupsen/logrus"

	"notice-watcher/pkg/config"
)

// NewClient creates the shared HTTP client based on the provided configuration.
// One client serves both the listing and every detail fetch: connections are
// amortized and session cookies set on the initial page load are replayed on
// subsequent requests against the same origin.
func NewClient(cfg config.HTTPClientConfig, log *logrus.Logger) *http.Client {
	log.Debug("Initializing HTTP client...")

	dialer := &net.Dialer{
		Timeout:   cfg.DialerTimeout,
		KeepAlive: cfg.DialerKeepAlive,
	}

	transport := &http.Transport{
		Proxy:                  http.ProxyFromEnvironment,
		DialContext:            dialer.DialContext,
		ForceAttemptHTTP2:      true,
		MaxIdleConns:           cfg.MaxIdleConns,
		MaxIdleConnsPerHost:    cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:        cfg.IdleConnTimeout,
		TLSHandshakeTimeout:    cfg.TLSHandshakeTimeout,
		MaxResponseHeaderBytes: 1 << 20, // 1MB max header size
	}

	// Cookie jar is what makes the session "warm": the listing origin sets
	// cookies on the first page load and expects them back on detail fetches.
	jar, err := cookiejar.New(nil)
	if err != nil {
		// cookiejar.New with nil options cannot actually fail; log and continue bare
		log.Warnf("Could not create cookie jar: %v", err)
		jar = nil
	}

	client := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
		Jar:       jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// Default Go behavior is 10 redirects max
			if len(via) >= 10 {
				return errors.New("stopped after 10 redirects")
			}
			log.Debugf("Redirecting: %s -> %s (hop %d)", via[len(via)-1].URL, req.URL, len(via))
			return nil
		},
	}
	return client
}

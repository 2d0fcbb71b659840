package config

import (
	"fmt"
	"net/url"
	"time"

	"notice-watcher/pkg/utils"
)

// DefaultUserAgent mimics a desktop browser. The listing origin applies
// trivial bot filtering that rejects obvious non-browser agents.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	// Required: ListingURL
	if c.ListingURL == "" {
		return nil, fmt.Errorf("%w: listing_url is required", utils.ErrConfigValidation)
	}
	u, parseErr := url.Parse(c.ListingURL)
	if parseErr != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: listing_url %q is not an absolute HTTP URL", utils.ErrConfigValidation, c.ListingURL)
	}

	// BaseDomain defaults to the listing origin
	if c.BaseDomain == "" {
		c.BaseDomain = u.Scheme + "://" + u.Host
		warnings = append(warnings, fmt.Sprintf("base_domain is empty, defaulting to listing origin %q", c.BaseDomain))
	}

	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}

	if c.DataDir == "" {
		warnings = append(warnings, "data_dir is empty, defaulting to './data'")
		c.DataDir = "./data"
	}
	if c.ProcessedDir == "" {
		warnings = append(warnings, "processed_dir is empty, defaulting to './data/processed-json'")
		c.ProcessedDir = "./data/processed-json"
	}
	if c.StateDir == "" {
		warnings = append(warnings, "state_dir is empty, defaulting to './state'")
		c.StateDir = "./state"
	}

	warnings = append(warnings, c.Extract.validate()...)
	warnings = append(warnings, c.Batch.validate()...)
	warnings = append(warnings, c.Cleaner.validate()...)
	c.validateHTTPClientSettings()

	return warnings, nil
}

func (c *ExtractConfig) validate() (warnings []string) {
	if c.StandardDelay < 0 {
		warnings = append(warnings, "extract.standard_delay cannot be negative, setting to 0")
		c.StandardDelay = 0
	}
	if c.StandardDelay == 0 && c.HighLoadDelay == 0 && c.MaxRetries == 0 {
		// Untouched section: apply the full production defaults
		c.StandardDelay = 500 * time.Millisecond
		c.HighLoadDelay = 2 * time.Second
		c.MaxRetries = 3
		c.RetryDelay = 1 * time.Second
	}
	if c.HighLoadDelay < c.StandardDelay {
		warnings = append(warnings, fmt.Sprintf(
			"extract.high_load_delay (%v) below standard_delay (%v), raising to standard_delay",
			c.HighLoadDelay, c.StandardDelay))
		c.HighLoadDelay = c.StandardDelay
	}
	if c.HighLoadSegment == "" {
		c.HighLoadSegment = "node"
	}
	if c.MaxRetries < 1 {
		warnings = append(warnings, "extract.max_retries must be at least 1, defaulting to 3")
		c.MaxRetries = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 1 * time.Second
	}
	if c.MinContentLen <= 0 {
		c.MinContentLen = 50
	}
	return warnings
}

func (c *BatchConfig) validate() (warnings []string) {
	if c.Size <= 0 {
		warnings = append(warnings, "batch.size should be > 0, defaulting to 10")
		c.Size = 10
	}
	if c.Pause < 0 {
		warnings = append(warnings, "batch.pause cannot be negative, setting to 0")
		c.Pause = 0
	} else if c.Pause == 0 {
		c.Pause = 5 * time.Second
	}
	return warnings
}

func (c *CleanerConfig) validate() (warnings []string) {
	if c.LookaheadLines < 0 {
		warnings = append(warnings, "cleaner.lookahead_lines cannot be negative, using default")
		c.LookaheadLines = 0
	}
	if c.LookaheadLines == 0 {
		// Deliberately generous: real pages interleave blank lines between
		// a cutoff sentence and the dosing table it must not swallow.
		c.LookaheadLines = 15
	}
	return warnings
}

// validateHTTPClientSettings applies defaults to HTTP client settings.
func (c *AppConfig) validateHTTPClientSettings() {
	h := &c.HTTP
	if h.Timeout <= 0 {
		h.Timeout = 20 * time.Second
	}
	if h.MaxIdleConns <= 0 {
		h.MaxIdleConns = 100
	}
	if h.MaxIdleConnsPerHost <= 0 {
		h.MaxIdleConnsPerHost = 2
	}
	if h.IdleConnTimeout <= 0 {
		h.IdleConnTimeout = 90 * time.Second
	}
	if h.TLSHandshakeTimeout <= 0 {
		h.TLSHandshakeTimeout = 10 * time.Second
	}
	if h.DialerTimeout <= 0 {
		h.DialerTimeout = 15 * time.Second
	}
	if h.DialerKeepAlive <= 0 {
		h.DialerKeepAlive = 30 * time.Second
	}
}

package config

import "time"

// AppConfig holds the global application configuration
type AppConfig struct {
	ListingURL string `yaml:"listing_url"` // Master listing endpoint
	BaseDomain string `yaml:"base_domain"` // Origin used to resolve relative detail links
	UserAgent  string `yaml:"user_agent,omitempty"`

	DataDir      string `yaml:"data_dir,omitempty"`      // Intermediate artifacts + master store
	ProcessedDir string `yaml:"processed_dir,omitempty"` // Per-record cleaned documents
	StateDir     string `yaml:"state_dir,omitempty"`     // Watch state + drift index

	Extract ExtractConfig    `yaml:"extract,omitempty"`
	Batch   BatchConfig      `yaml:"batch,omitempty"`
	Cleaner CleanerConfig    `yaml:"cleaner,omitempty"`
	HTTP    HTTPClientConfig `yaml:"http_client_settings,omitempty"`
}

// ExtractConfig controls deep-extraction pacing and retry behavior.
// Everything here is injected, not read from globals, so tests can run
// with near-zero delays.
type ExtractConfig struct {
	StandardDelay   time.Duration `yaml:"standard_delay,omitempty"`    // Pre-request pause for ordinary URLs
	HighLoadDelay   time.Duration `yaml:"high_load_delay,omitempty"`   // Pre-request pause for high-load-path URLs
	HighLoadSegment string        `yaml:"high_load_segment,omitempty"` // Path segment marking a high-load URL ("node")
	MaxRetries      int           `yaml:"max_retries,omitempty"`       // Attempts for connection errors
	RetryDelay      time.Duration `yaml:"retry_delay,omitempty"`       // Backoff base, doubled each attempt
	MinContentLen   int           `yaml:"min_content_len,omitempty"`   // Extracted text at or below this is "no content"
}

// BatchConfig controls how the delta set is partitioned during a run.
type BatchConfig struct {
	Size  int           `yaml:"size,omitempty"`  // Records per batch
	Pause time.Duration `yaml:"pause,omitempty"` // Pause between batches (not after the last)
}

// CleanerConfig controls the boilerplate-removal pass.
type CleanerConfig struct {
	LookaheadLines int `yaml:"lookahead_lines,omitempty"` // How far past a cutoff line to scan for dosage content
}

// HTTPClientConfig holds settings for the shared HTTP client
type HTTPClientConfig struct {
	Timeout             time.Duration `yaml:"timeout,omitempty"`                 // Overall request timeout
	MaxIdleConns        int           `yaml:"max_idle_conns,omitempty"`          // Max total idle connections
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host,omitempty"` // Max idle connections per host
	IdleConnTimeout     time.Duration `yaml:"idle_conn_timeout,omitempty"`       // Timeout for idle connections
	TLSHandshakeTimeout time.Duration `yaml:"tls_handshake_timeout,omitempty"`   // Timeout for TLS handshake
	DialerTimeout       time.Duration `yaml:"dialer_timeout,omitempty"`          // Connection dial timeout
	DialerKeepAlive     time.Duration `yaml:"dialer_keep_alive,omitempty"`       // TCP keep-alive interval
}

// InitialLoadPath returns the intermediate artifact path for a bootstrap run.
func (c *AppConfig) InitialLoadPath() string {
	return c.DataDir + "/initial_load.json"
}

// DeltaUpdatePath returns the intermediate artifact path for a delta run.
func (c *AppConfig) DeltaUpdatePath() string {
	return c.DataDir + "/delta_update.json"
}

// MasterStorePath returns the path of the persisted record store.
func (c *AppConfig) MasterStorePath() string {
	return c.DataDir + "/master_records.csv"
}

package models

// FetchOutcome classifies the terminal result of one deep-extraction
// attempt chain. It is transient: used only for retry decisions, batch
// statistics, and the problematic-records list, never persisted.
type FetchOutcome string

const (
	OutcomeUnset      FetchOutcome = ""            // Zero value = not yet attempted
	OutcomeSuccess    FetchOutcome = "success"     // Substantial text extracted
	OutcomeEmpty      FetchOutcome = "empty"       // 200 but no substantial content (≤ threshold)
	OutcomeForbidden  FetchOutcome = "http_403"    // Deliberate block; at most one extended retry
	OutcomeNotFound   FetchOutcome = "http_404"    // Terminal, never retried
	OutcomeHTTPError  FetchOutcome = "http_error"  // Any other non-2xx status
	OutcomeConnError  FetchOutcome = "conn_error"  // Network failure after all backoff retries
	OutcomeBadURL     FetchOutcome = "bad_url"     // Non-HTTP target, rejected before any request
	OutcomePDF        FetchOutcome = "pdf"         // PDF target, placeholder stored instead
	OutcomeCancelled  FetchOutcome = "cancelled"   // Context cancelled mid-extraction
)

// String implements fmt.Stringer for logging
func (o FetchOutcome) String() string {
	if o == "" {
		return "unset"
	}
	return string(o)
}

// Extracted reports whether the outcome carries usable record text
// (real content or the PDF placeholder).
func (o FetchOutcome) Extracted() bool {
	return o == OutcomeSuccess || o == OutcomePDF
}

package models

import "time"

// PDFPlaceholder is stored as the raw text of records whose detail URL
// points at a PDF. Those documents go through the separate OCR pipeline;
// the marker keeps the record visible downstream without pretending the
// page was extracted.
const PDFPlaceholder = "[PDF CONTENT - REQUIRES OCR]"

// CandidateRecord is one listing-page entry. It is created by the listing
// fetcher, enriched in place by the deep extractor (RawText), and either
// promoted into the master store or discarded as a duplicate.
type CandidateRecord struct {
	ID          string `json:"id"`          // Content-addressable identifier ("" = unidentifiable)
	Title       string `json:"title"`       // Listing column 1
	DetailURL   string `json:"url"`         // Resolved link from column 1 ("" if the row had none)
	Description string `json:"description"` // Listing column 2
	Date        string `json:"date"`        // Listing column 3, plain text as published
	RawText     string `json:"raw_text"`    // Deep-extracted body text ("" until extraction)
	FetchedAt   string `json:"fetched_at"`  // Timestamp of the run that produced this record
}

// HasURL reports whether the record carries a detail URL worth extracting.
func (r *CandidateRecord) HasURL() bool {
	return r.DetailURL != ""
}

// CleanedDocument is the immutable per-record artifact handed to indexing.
// It carries the candidate's canonical fields plus the cleaned corpus and
// its content hash; raw text and fetch timestamp are dropped.
type CleanedDocument struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	DetailURL   string `json:"url"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Corpus      string `json:"corpus"`
	CorpusHash  string `json:"corpus_hash"` // xxhash of Corpus, for drift detection between runs
}

// ProblematicRecord identifies a delta-set record whose extraction came
// back empty. The list is a required output of a batch run: it is the
// hand-off surface for the manual review step that precedes cleaning.
type ProblematicRecord struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	DetailURL string `json:"url"`
	Reason    string `json:"reason"`
}

// RunStats aggregates the outcome of one batch-scheduled extraction run.
type RunStats struct {
	RunID           string              `json:"run_id"`
	Attempted       int                 `json:"attempted"`
	Succeeded       int                 `json:"succeeded"`
	Failed          int                 `json:"failed"`
	HighLoadSuccess int                 `json:"high_load_success"` // Successes on high-load-path URLs
	HighLoadFailure int                 `json:"high_load_failure"` // Failures on high-load-path URLs
	Batches         int                 `json:"batches"`
	Elapsed         time.Duration       `json:"elapsed"`
	Problematic     []ProblematicRecord `json:"problematic"`
}

// SuccessRate returns the percentage of attempted extractions that
// produced text. Zero attempts yields 0.
func (s *RunStats) SuccessRate() float64 {
	if s.Attempted == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.Attempted) * 100
}

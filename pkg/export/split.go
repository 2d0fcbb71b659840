// Package export turns intermediate run artifacts into the per-record
// cleaned documents handed to indexing, and combines those documents
// into a single JSONL feed.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/sirupsen/logrus"

	"notice-watcher/pkg/clean"
	"notice-watcher/pkg/models"
	"notice-watcher/pkg/store"
	"notice-watcher/pkg/utils"
)

// SplitResult describes one cleaned document written by SplitAndClean.
type SplitResult struct {
	ID         string `json:"id"`
	File       string `json:"file"`
	CorpusHash string `json:"corpus_hash"`
}

// Splitter converts an intermediate artifact into per-record cleaned
// documents. The drift index is optional; without it corpus drift is
// simply not tracked.
type Splitter struct {
	cleaner *clean.Cleaner
	drift   *store.DriftIndex
	log     *logrus.Logger
}

// NewSplitter creates a Splitter. drift may be nil.
func NewSplitter(cleaner *clean.Cleaner, drift *store.DriftIndex, log *logrus.Logger) *Splitter {
	return &Splitter{cleaner: cleaner, drift: drift, log: log}
}

// SplitAndClean reads the JSON array of candidate records at inputPath,
// cleans each record's raw text, and writes one `<identifier>.json`
// cleaned document per identifiable record into outDir. Records without
// an identifier are skipped with a warning. The returned results carry
// each document's path and corpus hash.
func (s *Splitter) SplitAndClean(inputPath, outDir string) ([]SplitResult, error) {
	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading artifact %s: %v", utils.ErrFilesystem, inputPath, err)
	}

	var records []models.CandidateRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: decoding artifact %s: %v", utils.ErrParsing, inputPath, err)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating output dir %s: %v", utils.ErrFilesystem, outDir, err)
	}

	s.log.WithFields(logrus.Fields{"input": inputPath, "records": len(records)}).Info("Splitting and cleaning records")

	results := make([]SplitResult, 0, len(records))
	skipped := 0

	for _, rec := range records {
		if rec.ID == "" {
			skipped++
			s.log.WithField("title", rec.Title).Warn("Skipping record without identifier")
			continue
		}

		corpus := s.cleaner.Clean(rec.RawText)
		hash := CorpusHash(corpus)

		doc := models.CleanedDocument{
			ID:          rec.ID,
			Title:       rec.Title,
			DetailURL:   rec.DetailURL,
			Description: rec.Description,
			Date:        rec.Date,
			Corpus:      corpus,
			CorpusHash:  hash,
		}

		path := filepath.Join(outDir, rec.ID+".json")
		if err := writeDocument(path, &doc); err != nil {
			return results, err
		}

		s.observeDrift(rec.ID, hash)
		results = append(results, SplitResult{ID: rec.ID, File: path, CorpusHash: hash})
	}

	s.log.WithFields(logrus.Fields{"written": len(results), "skipped": skipped, "out_dir": outDir}).
		Info("Split and clean complete")
	return results, nil
}

// CorpusHash returns the content hash used for drift detection.
func CorpusHash(corpus string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(corpus))
}

func writeDocument(path string, doc *models.CleanedDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding document %s: %v", utils.ErrParsing, doc.ID, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("%w: writing document %s: %v", utils.ErrFilesystem, path, err)
	}
	return nil
}

func (s *Splitter) observeDrift(id, hash string) {
	if s.drift == nil {
		return
	}
	state, err := s.drift.Observe(id, hash)
	if err != nil {
		s.log.WithError(err).WithField("id", id).Warn("Drift index update failed")
		return
	}
	s.log.WithFields(logrus.Fields{"id": id, "state": state}).Debug("Corpus drift state recorded")
}

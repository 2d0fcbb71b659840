// Package store persists the set of records already seen across runs and
// the corpus hashes used for drift detection.
package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"notice-watcher/pkg/models"
	"notice-watcher/pkg/utils"
)

// masterHeader is the column layout of the persisted store. Identifier
// first: it is the only column other tooling is promised.
var masterHeader = []string{"id", "title", "url", "description", "date", "raw_text", "fetched_at"}

// MasterStore is the persisted table of every record ever seen, newest
// first. It is read once at the start of a run and written once at the
// end; concurrent writers need an external lock, none is provided here.
type MasterStore struct {
	path string
	log  *logrus.Logger
}

// NewMasterStore creates a MasterStore backed by the CSV file at path.
func NewMasterStore(path string, log *logrus.Logger) *MasterStore {
	return &MasterStore{path: path, log: log}
}

// Diff splits candidates into records not yet present in the store.
// A missing store file means a genuine first run: every candidate is new
// and bootstrap is true. An unreadable or corrupt store degrades to the
// same bootstrap behavior rather than failing the run, but is logged
// distinctly so operators can tell recovery from a first run.
// Candidates with an empty identifier cannot be membership-tested and are
// always part of the returned delta.
func (s *MasterStore) Diff(candidates []models.CandidateRecord) (newRecords []models.CandidateRecord, bootstrap bool) {
	existing, err := s.load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.log.Info("No master store found, first execution (bootstrap) detected")
		} else {
			s.log.WithError(err).Warn("Master store unreadable, degrading to bootstrap mode (store-corruption recovery, NOT a first run)")
		}
		return candidates, true
	}

	seen := make(map[string]struct{}, len(existing))
	for _, rec := range existing {
		if rec.ID != "" {
			seen[rec.ID] = struct{}{}
		}
	}

	for _, cand := range candidates {
		if cand.ID == "" {
			s.log.WithField("title", cand.Title).Warn("Unidentifiable candidate always treated as new, flag for manual review")
			newRecords = append(newRecords, cand)
			continue
		}
		if _, ok := seen[cand.ID]; !ok {
			newRecords = append(newRecords, cand)
		}
	}

	s.log.Infof("Master store loaded: %d existing records, %d new", len(existing), len(newRecords))
	return newRecords, false
}

// Update persists the outcome of a run. On bootstrap the store becomes
// exactly newRecords; otherwise newRecords are prepended to the existing
// rows (newest-first ordering is a property of the store). Records with
// an empty identifier are never promoted: the store's identifier
// uniqueness invariant has no meaning for them.
func (s *MasterStore) Update(newRecords []models.CandidateRecord, bootstrap bool) error {
	var existing []models.CandidateRecord
	if !bootstrap {
		var err error
		existing, err = s.load()
		if err != nil {
			return fmt.Errorf("%w: reloading store for update: %w", utils.ErrStoreCorrupt, err)
		}
	}

	seen := make(map[string]struct{}, len(existing))
	for _, rec := range existing {
		seen[rec.ID] = struct{}{}
	}

	rows := make([]models.CandidateRecord, 0, len(newRecords)+len(existing))
	for _, rec := range newRecords {
		if rec.ID == "" {
			s.log.WithField("title", rec.Title).Warn("Dropping unidentifiable record from master store")
			continue
		}
		if _, dup := seen[rec.ID]; dup {
			s.log.WithField("id", rec.ID).Warn("Duplicate identifier in update, keeping stored row")
			continue
		}
		seen[rec.ID] = struct{}{}
		rows = append(rows, rec)
	}
	rows = append(rows, existing...)

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("%w: creating store directory: %w", utils.ErrFilesystem, err)
	}

	// Write to a temp file and rename so a crash mid-write never leaves a
	// truncated store behind.
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".master-*.csv")
	if err != nil {
		return fmt.Errorf("%w: creating temp store: %w", utils.ErrFilesystem, err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(masterHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: writing CSV header: %w", utils.ErrFilesystem, err)
	}
	for _, rec := range rows {
		row := []string{rec.ID, rec.Title, rec.DetailURL, rec.Description, rec.Date, rec.RawText, rec.FetchedAt}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("%w: writing CSV row: %w", utils.ErrFilesystem, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: flushing CSV: %w", utils.ErrFilesystem, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: closing temp store: %w", utils.ErrFilesystem, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("%w: replacing store: %w", utils.ErrFilesystem, err)
	}

	s.log.Infof("Master store updated: %s (%d total records)", s.path, len(rows))
	return nil
}

// Count returns the number of records currently persisted.
func (s *MasterStore) Count() (int, error) {
	recs, err := s.load()
	if err != nil {
		return 0, err
	}
	return len(recs), nil
}

// load reads all rows. os.ErrNotExist passes through unwrapped so Diff
// can tell "first run" from "corrupt store".
func (s *MasterStore) load() ([]models.CandidateRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(masterHeader)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: CSV read: %w", utils.ErrParsing, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: store file is empty", utils.ErrParsing)
	}
	if rows[0][0] != masterHeader[0] {
		return nil, fmt.Errorf("%w: unexpected CSV header %v", utils.ErrParsing, rows[0])
	}

	records := make([]models.CandidateRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, models.CandidateRecord{
			ID:          row[0],
			Title:       row[1],
			DetailURL:   row[2],
			Description: row[3],
			Date:        row[4],
			RawText:     row[5],
			FetchedAt:   row[6],
		})
	}
	return records, nil
}

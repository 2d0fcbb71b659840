package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"notice-watcher/pkg/log"
	"notice-watcher/pkg/utils"
)

const (
	corpusKeyPrefix = "corpus:"  // Prefix for corpus hash keys in DB
	driftDBDir      = "drift_db" // Subdirectory name within stateDir for Badger files
)

// CorpusState classifies a cleaned corpus against the drift index.
type CorpusState string

const (
	CorpusNew       CorpusState = "new"       // Identifier never cleaned before
	CorpusUnchanged CorpusState = "unchanged" // Same hash as the previous cleaning run
	CorpusDrifted   CorpusState = "drifted"   // Source content changed under an unchanged identifier
)

// DriftIndex persists corpus content hashes across cleaning runs so a
// re-extraction of an already-known record can be flagged when its text
// silently changed. Identity hashes answer "have we seen this entry";
// the drift index answers "has its content moved since we cleaned it".
type DriftIndex struct {
	db  *badger.DB
	log *logrus.Entry
}

// OpenDriftIndex opens (or creates) the drift index under stateDir.
func OpenDriftIndex(stateDir string, logger *logrus.Entry) (*DriftIndex, error) {
	dbPath := filepath.Join(stateDir, driftDBDir)
	if err := os.MkdirAll(dbPath, 0o755); err != nil {
		return nil, fmt.Errorf("%w: cannot create drift index directory %s: %w", utils.ErrFilesystem, dbPath, err)
	}

	opts := badger.DefaultOptions(dbPath).
		WithLogger(log.NewBadgerAdapter(logger.WithField("component", "driftdb"))).
		WithNumVersionsToKeep(1) // Only the latest hash matters

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open drift index at %s: %w", utils.ErrDatabase, dbPath, err)
	}

	logger.Debugf("Drift index opened at %s", dbPath)
	return &DriftIndex{db: db, log: logger}, nil
}

// Observe records the corpus hash for id and reports how it compares to
// the previously stored one.
func (d *DriftIndex) Observe(id, corpusHash string) (CorpusState, error) {
	if id == "" {
		return "", utils.ErrNoIdentifier
	}
	key := []byte(corpusKeyPrefix + id)

	var state CorpusState
	err := d.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			state = CorpusNew
		case err != nil:
			return err
		default:
			if copyErr := item.Value(func(val []byte) error {
				if string(val) == corpusHash {
					state = CorpusUnchanged
				} else {
					state = CorpusDrifted
				}
				return nil
			}); copyErr != nil {
				return copyErr
			}
		}
		return txn.Set(key, []byte(corpusHash))
	})
	if err != nil {
		return "", fmt.Errorf("%w: observing corpus hash for %s: %w", utils.ErrDatabase, id, err)
	}

	if state == CorpusDrifted {
		d.log.WithField("id", id).Warn("Corpus content drifted since previous cleaning run")
	}
	return state, nil
}

// Hash returns the stored corpus hash for id, if any.
func (d *DriftIndex) Hash(id string) (hash string, exists bool, err error) {
	key := []byte(corpusKeyPrefix + id)
	err = d.db.View(func(txn *badger.Txn) error {
		item, getErr := txn.Get(key)
		if errors.Is(getErr, badger.ErrKeyNotFound) {
			return nil
		}
		if getErr != nil {
			return getErr
		}
		exists = true
		return item.Value(func(val []byte) error {
			hash = string(val)
			return nil
		})
	})
	if err != nil {
		return "", false, fmt.Errorf("%w: reading corpus hash for %s: %w", utils.ErrDatabase, id, err)
	}
	return hash, exists, nil
}

// Close cleanly closes the underlying database.
func (d *DriftIndex) Close() error {
	return d.db.Close()
}

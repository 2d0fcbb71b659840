// Package pipeline wires the listing fetcher, change detection, batch
// extraction, and the master store into one run of the harvesting stage.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"notice-watcher/pkg/batch"
	"notice-watcher/pkg/config"
	"notice-watcher/pkg/extract"
	"notice-watcher/pkg/fetch"
	"notice-watcher/pkg/listing"
	"notice-watcher/pkg/models"
	"notice-watcher/pkg/store"
	"notice-watcher/pkg/utils"
)

// Process types reported on run results and in logs.
const (
	ProcessInitialLoad = "INITIAL LOAD"
	ProcessDeltaUpdate = "DELTA UPDATE"
)

// Result summarizes one pipeline run.
type Result struct {
	ProcessType  string          // ProcessInitialLoad or ProcessDeltaUpdate
	InSync       bool            // True when the listing brought nothing new
	ArtifactPath string          // Intermediate artifact written ("" when in sync)
	Stats        models.RunStats // Extraction statistics (zero when in sync)
	NewRecords   int
	TotalRecords int // Master store size after the run
}

// Pipeline executes the fetch+extract stage end to end.
type Pipeline struct {
	cfg     *config.AppConfig
	fetcher *listing.Fetcher
	runner  *batch.Runner
	master  *store.MasterStore
	log     *logrus.Logger
}

// New builds a Pipeline from cfg: one shared HTTP client with a cookie
// jar, the per-host politeness limiter, the deep extractor, and the
// master store under the configured data directory.
func New(cfg *config.AppConfig, log *logrus.Logger) *Pipeline {
	client := fetch.NewClient(cfg.HTTP, log)
	limiter := fetch.NewLimiter(log)
	extractor := extract.NewExtractor(client, cfg.Extract, cfg.UserAgent, limiter, log)

	return &Pipeline{
		cfg:     cfg,
		fetcher: listing.NewFetcher(client, cfg, log),
		runner:  batch.NewRunner(extractor, cfg.Batch, log),
		master:  store.NewMasterStore(cfg.MasterStorePath(), log),
		log:     log,
	}
}

// Run performs one harvesting cycle: warm the session, fetch the
// listing, diff against the master store, deep-extract the delta in
// batches, write the intermediate artifact, and fold the delta into the
// store. A listing failure aborts the run with the store untouched.
// When the listing brings nothing new, stale intermediate artifacts are
// removed so downstream steps cannot reprocess an old delta.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if err := p.fetcher.WarmSession(ctx); err != nil {
		p.log.WithError(err).Warn("Session warm-up failed, continuing without cookies")
	}

	candidates, err := p.fetcher.FetchListing(ctx)
	if err != nil {
		return nil, err
	}

	delta, bootstrap := p.master.Diff(candidates)

	result := &Result{ProcessType: ProcessDeltaUpdate, NewRecords: len(delta)}
	artifact := p.cfg.DeltaUpdatePath()
	if bootstrap {
		result.ProcessType = ProcessInitialLoad
		artifact = p.cfg.InitialLoadPath()
	}

	if len(delta) == 0 {
		p.log.Info("Everything synchronized, no new entries")
		result.InSync = true
		if !bootstrap {
			p.removeStaleArtifacts()
		}
		result.TotalRecords, _ = p.master.Count()
		return result, nil
	}

	p.log.WithFields(logrus.Fields{"process": result.ProcessType, "records": len(delta)}).
		Info("New records detected, starting deep extraction")

	stats, runErr := p.runner.Run(ctx, delta, p.cfg.ListingURL)
	result.Stats = stats
	if runErr != nil {
		return result, runErr
	}

	if err := p.writeArtifact(artifact, delta); err != nil {
		return result, err
	}
	result.ArtifactPath = artifact

	if err := p.master.Update(delta, bootstrap); err != nil {
		return result, err
	}

	result.TotalRecords, _ = p.master.Count()
	p.log.WithFields(logrus.Fields{
		"artifact":      artifact,
		"total_records": result.TotalRecords,
		"success_rate":  stats.SuccessRate(),
	}).Info("Run complete, review the artifact before cleaning")

	return result, nil
}

func (p *Pipeline) writeArtifact(path string, records []models.CandidateRecord) error {
	if err := os.MkdirAll(p.cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("%w: creating data dir: %v", utils.ErrFilesystem, err)
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding artifact: %v", utils.ErrParsing, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("%w: writing artifact %s: %v", utils.ErrFilesystem, path, err)
	}
	p.log.WithField("artifact", path).Info("Intermediate artifact written")
	return nil
}

// removeStaleArtifacts deletes leftover intermediate files from earlier
// runs. Called only on in-sync delta runs, never on bootstrap.
func (p *Pipeline) removeStaleArtifacts() {
	for _, path := range []string{p.cfg.InitialLoadPath(), p.cfg.DeltaUpdatePath()} {
		if err := os.Remove(path); err == nil {
			p.log.WithField("artifact", path).Info("Stale intermediate artifact removed")
		}
	}
}

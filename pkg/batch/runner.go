// Package batch drives deep extraction over a delta set in fixed-size
// batches with pauses in between, so a large bootstrap run does not
// hammer the upstream server. It enriches candidate records in place and
// reports run statistics plus the problematic records that need manual
// review before cleaning.
package batch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"notice-watcher/pkg/config"
	"notice-watcher/pkg/fetch"
	"notice-watcher/pkg/models"
)

// Reasons recorded on problematic records. Downstream review tooling
// matches on these strings, so they are fixed.
const (
	ReasonEmptyText = "Empty text field (403/404 or extraction failed)"
	ReasonNoURL     = "No URL available"
)

// TextExtractor is the page-level extraction dependency of the runner.
type TextExtractor interface {
	Extract(ctx context.Context, rawURL, referer string) (string, models.FetchOutcome)
	HighLoad(rawURL string) bool
}

// Runner executes one extraction run over a set of candidate records.
type Runner struct {
	extractor TextExtractor
	cfg       config.BatchConfig
	log       *logrus.Logger
}

// NewRunner creates a Runner using cfg for batch sizing and pacing.
func NewRunner(extractor TextExtractor, cfg config.BatchConfig, log *logrus.Logger) *Runner {
	return &Runner{extractor: extractor, cfg: cfg, log: log}
}

// Run extracts body text for every record in records, filling RawText in
// place. Records without a detail URL are skipped and reported as
// problematic; records whose extraction comes back empty are kept with
// empty text and reported as well. The pause between batches is skipped
// after the final batch. Run returns ctx.Err when cancelled mid-run,
// with the stats reflecting the work done so far.
func (r *Runner) Run(ctx context.Context, records []models.CandidateRecord, referer string) (models.RunStats, error) {
	stats := models.RunStats{
		RunID:     uuid.NewString(),
		Attempted: len(records),
	}
	if len(records) == 0 {
		return stats, nil
	}

	stats.Batches = (len(records) + r.cfg.Size - 1) / r.cfg.Size
	start := time.Now()

	runLog := r.log.WithFields(logrus.Fields{"run_id": stats.RunID, "records": len(records), "batches": stats.Batches})
	runLog.Info("Starting extraction run")

	for batch := 0; batch < stats.Batches; batch++ {
		lo := batch * r.cfg.Size
		hi := lo + r.cfg.Size
		if hi > len(records) {
			hi = len(records)
		}

		runLog.WithFields(logrus.Fields{"batch": batch + 1, "size": hi - lo}).Info("Processing batch")

		for i := lo; i < hi; i++ {
			if err := ctx.Err(); err != nil {
				stats.Elapsed = time.Since(start)
				return stats, err
			}
			r.processRecord(ctx, &records[i], referer, &stats)
		}

		if batch < stats.Batches-1 {
			runLog.Debugf("Pausing %s between batches", r.cfg.Pause)
			if err := fetch.Sleep(ctx, r.cfg.Pause); err != nil {
				stats.Elapsed = time.Since(start)
				return stats, err
			}
		}
	}

	stats.Elapsed = time.Since(start)
	runLog.WithFields(logrus.Fields{
		"succeeded":    stats.Succeeded,
		"failed":       stats.Failed,
		"success_rate": stats.SuccessRate(),
		"elapsed":      stats.Elapsed,
	}).Info("Extraction run complete")

	if len(stats.Problematic) > 0 {
		runLog.Warnf("%d problematic records need review before cleaning", len(stats.Problematic))
		for _, p := range stats.Problematic {
			r.log.WithFields(logrus.Fields{"id": p.ID, "reason": p.Reason}).Warn("Problematic record")
		}
	}

	return stats, nil
}

func (r *Runner) processRecord(ctx context.Context, rec *models.CandidateRecord, referer string, stats *models.RunStats) {
	if !rec.HasURL() {
		rec.RawText = ""
		stats.Failed++
		r.log.WithField("title", rec.Title).Warn("Record has no detail URL")
		stats.Problematic = append(stats.Problematic, models.ProblematicRecord{
			ID:        rec.ID,
			Title:     rec.Title,
			DetailURL: rec.DetailURL,
			Reason:    ReasonNoURL,
		})
		return
	}

	highLoad := r.extractor.HighLoad(rec.DetailURL)
	text, outcome := r.extractor.Extract(ctx, rec.DetailURL, referer)
	rec.RawText = text

	if outcome.Extracted() {
		stats.Succeeded++
		if highLoad {
			stats.HighLoadSuccess++
		}
		return
	}

	stats.Failed++
	if highLoad {
		stats.HighLoadFailure++
	}
	stats.Problematic = append(stats.Problematic, models.ProblematicRecord{
		ID:        rec.ID,
		Title:     rec.Title,
		DetailURL: rec.DetailURL,
		Reason:    ReasonEmptyText,
	})
}

// Package watch runs the harvest stage on a fixed interval. The daemon
// invokes the stage as a subprocess and looks only at its exit status
// and the intermediate artifact it leaves behind; the cleaning step is
// never triggered automatically because problematic records need a
// manual review pass first.
package watch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"notice-watcher/pkg/config"
)

// Scheduler manages periodic harvest runs.
type Scheduler struct {
	appCfg       *config.AppConfig
	argv         []string // Command invoked for each run
	interval     time.Duration
	log          *logrus.Entry
	stateManager *StateManager

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a watch scheduler. argv is the harvest command,
// typically this binary re-invoked with its run subcommand.
func NewScheduler(appCfg *config.AppConfig, argv []string, interval time.Duration, log *logrus.Entry) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		appCfg:       appCfg,
		argv:         argv,
		interval:     interval,
		log:          log,
		stateManager: NewStateManager(appCfg.StateDir),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Run starts the scheduler and blocks until stopped.
func (s *Scheduler) Run() error {
	if err := s.stateManager.Load(); err != nil {
		s.log.Warnf("Failed to load watch state: %v (starting fresh)", err)
	}

	s.log.Infof("Starting watch mode with interval %v", s.interval)
	s.logSchedule()

	s.runIfDue()

	ticker := time.NewTicker(s.calculateTickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.log.Info("Watch scheduler shutting down...")
			s.wg.Wait()
			return nil
		case <-ticker.C:
			s.runIfDue()
		}
	}
}

// Stop stops the watch scheduler.
func (s *Scheduler) Stop() {
	s.log.Info("Stopping watch scheduler...")
	s.cancel()
}

// runIfDue launches a harvest when the interval has elapsed.
func (s *Scheduler) runIfDue() {
	if !s.stateManager.ShouldRun(s.interval) {
		s.logNextRun()
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runOnce()

		if err := s.stateManager.Save(); err != nil {
			s.log.Errorf("Failed to save watch state: %v", err)
		}
		s.logNextRun()
	}()
}

// runOnce executes one harvest subprocess and records its outcome.
func (s *Scheduler) runOnce() {
	s.log.Infof("Launching harvest: %v", s.argv)

	cmd := exec.CommandContext(s.ctx, s.argv[0], s.argv[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	artifact := s.findArtifact()

	if err != nil {
		s.log.Errorf("Harvest run failed: %v", err)
		s.stateManager.RecordRun(false, artifact, err.Error())
		return
	}

	s.stateManager.RecordRun(true, artifact, "")
	if artifact != "" {
		s.log.Infof("Harvest produced %s", artifact)
		s.log.Info("Review the artifact and run the clean subcommand manually to produce documents")
	} else {
		s.log.Info("Harvest completed with no new entries")
	}
}

// findArtifact returns the intermediate artifact left by the last run,
// preferring the delta file over the bootstrap file.
func (s *Scheduler) findArtifact() string {
	for _, path := range []string{s.appCfg.DeltaUpdatePath(), s.appCfg.InitialLoadPath()} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// calculateTickInterval returns how often to check whether a run is due.
func (s *Scheduler) calculateTickInterval() time.Duration {
	// Check at least every minute, or every 1/10th of the interval
	checkInterval := s.interval / 10
	if checkInterval < time.Minute {
		checkInterval = time.Minute
	}
	if checkInterval > 10*time.Minute {
		checkInterval = 10 * time.Minute
	}
	return checkInterval
}

// logSchedule logs the current schedule.
func (s *Scheduler) logSchedule() {
	state, exists := s.stateManager.LastRun()
	if !exists {
		s.log.Info("Never run before, harvesting immediately")
		return
	}

	status := "success"
	if !state.LastRunSuccess {
		status = "failed"
	}
	nextRun := s.stateManager.NextRunTime(s.interval)
	s.log.Infof("Last run %v (%s), next run %v",
		state.LastRunTime.Format(time.RFC3339), status, nextRun.Format(time.RFC3339))
}

// logNextRun logs when the next run will occur.
func (s *Scheduler) logNextRun() {
	next := s.stateManager.NextRunTime(s.interval)
	until := time.Until(next)
	if until < 0 {
		until = 0
	}
	s.log.Infof("Next harvest in %v (at %s)", until.Round(time.Second), next.Format("15:04:05"))
}

// Status returns the daemon's current view of the last and next run.
type Status struct {
	LastRunTime    time.Time
	LastRunSuccess bool
	ArtifactPath   string
	ErrorMessage   string
	NextRunTime    time.Time
	NeverRun       bool
}

// GetStatus returns the current scheduler status.
func (s *Scheduler) GetStatus() Status {
	state, exists := s.stateManager.LastRun()
	return Status{
		LastRunTime:    state.LastRunTime,
		LastRunSuccess: state.LastRunSuccess,
		ArtifactPath:   state.ArtifactPath,
		ErrorMessage:   state.ErrorMessage,
		NextRunTime:    s.stateManager.NextRunTime(s.interval),
		NeverRun:       !exists,
	}
}

// FormatInterval formats a duration for display.
func FormatInterval(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		mins := int(d.Minutes()) % 60
		if mins > 0 {
			return fmt.Sprintf("%dh%dm", hours, mins)
		}
		return fmt.Sprintf("%dh", hours)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	if hours > 0 {
		return fmt.Sprintf("%dd%dh", days, hours)
	}
	return fmt.Sprintf("%dd", days)
}

// ParseInterval parses a duration string with support for days.
func ParseInterval(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err == nil {
		return d, nil
	}

	var days int
	var remaining string
	n, _ := fmt.Sscanf(s, "%dd%s", &days, &remaining)
	if n >= 1 {
		d = time.Duration(days) * 24 * time.Hour
		if remaining != "" {
			extra, err := time.ParseDuration(remaining)
			if err != nil {
				return 0, fmt.Errorf("invalid interval format: %s", s)
			}
			d += extra
		}
		return d, nil
	}

	return 0, fmt.Errorf("invalid interval format: %s (examples: 30m, 1h, 24h, 7d)", s)
}

package watch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const stateFileName = "watch_state.json"

// RunState contains the outcome of the most recent scheduled harvest.
type RunState struct {
	LastRunTime    time.Time `json:"last_run_time"`
	LastRunSuccess bool      `json:"last_run_success"`
	ArtifactPath   string    `json:"artifact_path,omitempty"` // Intermediate artifact the run produced, "" when in sync
	ErrorMessage   string    `json:"error_message,omitempty"`
}

// WatchState is the persistent state of the watch daemon.
type WatchState struct {
	LastRun   *RunState `json:"last_run,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StateManager persists and loads watch state under the state directory.
type StateManager struct {
	stateDir  string
	statePath string
	state     WatchState
	mu        sync.RWMutex
}

// NewStateManager creates a state manager rooted at stateDir.
func NewStateManager(stateDir string) *StateManager {
	return &StateManager{
		stateDir:  stateDir,
		statePath: filepath.Join(stateDir, stateFileName),
	}
}

// Load loads the state from disk. A missing state file is not an error;
// the daemon simply starts fresh.
func (m *StateManager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			m.state = WatchState{}
			return nil
		}
		return fmt.Errorf("failed to read state file: %w", err)
	}

	if err := json.Unmarshal(data, &m.state); err != nil {
		return fmt.Errorf("failed to parse state file: %w", err)
	}
	return nil
}

// Save saves the state to disk.
func (m *StateManager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.UpdatedAt = time.Now()

	if err := os.MkdirAll(m.stateDir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(m.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.WriteFile(m.statePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

// LastRun returns the most recent run state, if any.
func (m *StateManager) LastRun() (RunState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state.LastRun == nil {
		return RunState{}, false
	}
	return *m.state.LastRun, true
}

// RecordRun updates the state with the outcome of a harvest run.
func (m *StateManager) RecordRun(success bool, artifactPath, errorMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.LastRun = &RunState{
		LastRunTime:    time.Now(),
		LastRunSuccess: success,
		ArtifactPath:   artifactPath,
		ErrorMessage:   errorMsg,
	}
}

// ShouldRun reports whether a harvest is due given the interval.
func (m *StateManager) ShouldRun(interval time.Duration) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.state.LastRun == nil {
		return true
	}
	return time.Since(m.state.LastRun.LastRunTime) >= interval
}

// NextRunTime returns when the next harvest is due.
func (m *StateManager) NextRunTime(interval time.Duration) time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.state.LastRun == nil {
		return time.Now()
	}
	return m.state.LastRun.LastRunTime.Add(interval)
}

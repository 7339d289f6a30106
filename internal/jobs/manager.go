package jobs

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"media-translator/internal/domain"
)

var (
	// ErrJobAlreadyRunning rejects a second run while one is active.
	ErrJobAlreadyRunning = errors.New("job already running")
	// ErrNoRunningJob rejects cancel when nothing is active.
	ErrNoRunningJob = errors.New("no running job")
)

// Manager is the state machine behind the one-run-per-process rule.
// Status moves forward through the stages and ends in done, failed or
// cancelled; a finished job stays visible until the next Start.
type Manager struct {
	mu      sync.RWMutex
	current domain.Job
	now     func() time.Time
}

func NewManager() *Manager {
	return &Manager{
		current: domain.Job{Status: domain.JobStatusIdle},
		now:     time.Now,
	}
}

// Start claims the manager for a new job in the preprocessing stage.
func (m *Manager) Start(jobID string, input domain.InputSpec) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if isRunning(m.current.Status) {
		return ErrJobAlreadyRunning
	}

	job := domain.Job{
		ID:        jobID,
		Kind:      input.Kind,
		Status:    domain.JobStatusPreprocessing,
		StartedAt: m.now().UTC(),
	}
	if input.Path != "" {
		job.Input = filepath.Base(input.Path)
	}
	m.current = job
	return nil
}

// Transition moves the current job to status. Repeating the current status
// is a no-op; moving backwards is an error.
func (m *Manager) Transition(status domain.JobStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.ID == "" && status != domain.JobStatusIdle {
		return fmt.Errorf("transition to %s: no job started", status)
	}
	if status == m.current.Status {
		return nil
	}
	if !isValidTransition(m.current.Status, status) {
		return fmt.Errorf("invalid transition: %s -> %s", m.current.Status, status)
	}

	m.setStatus(status)
	return nil
}

// Current returns a copy of the current job.
func (m *Manager) Current() domain.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return isRunning(m.current.Status)
}

// Cancel marks the active job cancelled. The caller stops the work.
func (m *Manager) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !isRunning(m.current.Status) {
		return ErrNoRunningJob
	}
	m.setStatus(domain.JobStatusCancelled)
	return nil
}

func (m *Manager) setStatus(status domain.JobStatus) {
	m.current.Status = status
	if isTerminal(status) {
		finished := m.now().UTC()
		m.current.FinishedAt = &finished
	}
}

// stageOrder ranks active stages. Stages may be skipped but never revisited:
// documents skip transcription and an empty transcript skips the rest.
var stageOrder = map[domain.JobStatus]int{
	domain.JobStatusPreprocessing: 1,
	domain.JobStatusTranscribing:  2,
	domain.JobStatusTranslating:   3,
	domain.JobStatusExporting:     4,
}

func isRunning(status domain.JobStatus) bool {
	_, ok := stageOrder[status]
	return ok
}

func isTerminal(status domain.JobStatus) bool {
	switch status {
	case domain.JobStatusDone, domain.JobStatusFailed, domain.JobStatusCancelled:
		return true
	}
	return false
}

func isValidTransition(from, to domain.JobStatus) bool {
	if from == domain.JobStatusIdle || isTerminal(from) {
		// A new run goes through Start; Transition may only clear to idle.
		return to == domain.JobStatusIdle && isTerminal(from)
	}

	fromRank, ok := stageOrder[from]
	if !ok {
		return false
	}
	if isTerminal(to) {
		return true
	}
	toRank, ok := stageOrder[to]
	return ok && toRank > fromRank
}

package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"media-translator/internal/domain"
	"media-translator/internal/logger"
	"media-translator/internal/media"
	"media-translator/internal/transcribe"
)

// Pipeline runs one request end to end.
type Pipeline interface {
	Run(ctx context.Context, req transcribe.Request) (transcribe.Result, error)
}

// Runner executes at most one pipeline run at a time and narrates it as
// job events. A new run replaces the artifacts of the previous one.
type Runner struct {
	jobs     *Manager
	events   *EventBus
	pipeline Pipeline
	log      *logger.Logger
	newID    func() string

	mu          sync.Mutex
	activeJobID string
	cancel      context.CancelFunc
	done        chan struct{}
	last        *transcribe.Result
}

// NewRunner wires a pipeline to a fresh job manager and event bus.
func NewRunner(pipeline Pipeline, events *EventBus, log *logger.Logger) *Runner {
	if events == nil {
		events = NewEventBus(1000)
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Runner{
		jobs:     NewManager(),
		events:   events,
		pipeline: pipeline,
		log:      log.Named("jobs"),
		newID:    uuid.NewString,
	}
}

// Events exposes the bus for subscribers.
func (r *Runner) Events() *EventBus {
	return r.events
}

// Start creates a job and runs it asynchronously.
func (r *Runner) Start(input domain.InputSpec, settings domain.Settings) (domain.Job, error) {
	ctx, job, err := r.begin(context.Background(), input)
	if err != nil {
		return domain.Job{}, err
	}
	go r.execute(ctx, job.ID, transcribe.NewRequest(input, settings))
	return job, nil
}

// Process runs a job in the foreground and returns its result.
func (r *Runner) Process(ctx context.Context, input domain.InputSpec, settings domain.Settings) (domain.Job, transcribe.Result, error) {
	runCtx, job, err := r.begin(ctx, input)
	if err != nil {
		return domain.Job{}, transcribe.Result{}, err
	}
	result, err := r.execute(runCtx, job.ID, transcribe.NewRequest(input, settings))
	return r.jobs.Current(), result, err
}

// Cancel cancels the currently running job, if any.
func (r *Runner) Cancel() error {
	r.mu.Lock()
	cancel := r.cancel
	activeJobID := r.activeJobID
	r.mu.Unlock()

	if cancel == nil {
		return ErrNoRunningJob
	}

	cancel()
	if err := r.jobs.Cancel(); err != nil && !errors.Is(err, ErrNoRunningJob) {
		return err
	}

	if activeJobID != "" {
		r.publishStatus(activeJobID, domain.JobStatusCancelled, "Cancellation requested")
	}
	return nil
}

// Wait blocks until the active job finishes or ctx ends.
func (r *Runner) Wait(ctx context.Context) error {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Current returns current job metadata and status.
func (r *Runner) Current() domain.Job {
	return r.jobs.Current()
}

// Since returns all events with sequence greater than seq.
func (r *Runner) Since(seq int64) []Event {
	return r.events.Since(seq)
}

// LastResult returns the result of the most recent finished run.
func (r *Runner) LastResult() (transcribe.Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return transcribe.Result{}, false
	}
	return *r.last, true
}

// begin validates input, claims the manager, and installs cancellation.
func (r *Runner) begin(parent context.Context, input domain.InputSpec) (context.Context, domain.Job, error) {
	if _, ok := domain.ParseInputKind(string(input.Kind)); !ok {
		return nil, domain.Job{}, fmt.Errorf("unsupported input kind %q", input.Kind)
	}

	jobID := r.newID()
	if err := r.jobs.Start(jobID, input); err != nil {
		return nil, domain.Job{}, err
	}

	ctx, cancel := context.WithCancel(parent)
	r.mu.Lock()
	r.activeJobID = jobID
	r.cancel = cancel
	r.done = make(chan struct{})
	r.mu.Unlock()

	r.log.WithJob(jobID).Info("job started",
		logger.String("kind", string(input.Kind)),
		logger.String("input", input.Path),
	)
	r.publishStatus(jobID, domain.JobStatusPreprocessing, "Job started")
	return ctx, r.jobs.Current(), nil
}

// execute runs the pipeline and maps outcomes to job events.
func (r *Runner) execute(ctx context.Context, jobID string, req transcribe.Request) (result transcribe.Result, err error) {
	log := r.log.WithJob(jobID)
	defer r.clearActiveJob(jobID)
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pipeline panic: %v", rec)
			log.Error("job panicked", logger.Any("panic", rec))
			_ = r.jobs.Transition(domain.JobStatusFailed)
			r.publishStatus(jobID, domain.JobStatusFailed, "Job failed")
			r.publishEvent(Event{JobID: jobID, Type: EventTypeError, Status: domain.JobStatusFailed, Message: err.Error()})
		}
	}()

	req.OnStage = func(stage string) {
		status, ok := mapStageToStatus(stage)
		if !ok {
			return
		}
		if err := r.jobs.Transition(status); err == nil {
			r.publishStatus(jobID, status, "Running "+stage+" stage")
		}
	}
	req.OnLog = func(line string) {
		r.publishEvent(Event{JobID: jobID, Type: EventTypeLog, Message: line})
	}
	req.OnCommand = func(cmd media.CommandLog) {
		r.publishEvent(commandEvent(jobID, "Command completed", cmd))
	}

	result, err = r.pipeline.Run(ctx, req)
	r.storeResult(result)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			_ = r.jobs.Transition(domain.JobStatusCancelled)
			r.publishStatus(jobID, domain.JobStatusCancelled, "Job cancelled")
			log.Info("job cancelled")
			return result, err
		}
		_ = r.jobs.Transition(domain.JobStatusFailed)
		r.publishStatus(jobID, domain.JobStatusFailed, "Job failed")
		r.publishEvent(Event{JobID: jobID, Type: EventTypeError, Status: domain.JobStatusFailed, Message: err.Error()})
		log.Error("job failed", logger.Error(err))
		return result, err
	}

	for _, failure := range result.Failures {
		event := commandEvent(jobID, failure.Error(), failure.CommandLog)
		event.Type = EventTypeError
		event.Stage = failure.Stage
		event.FailureKind = failure.Kind
		r.publishEvent(event)
	}

	if result.PDFPath == "" {
		_ = r.jobs.Transition(domain.JobStatusFailed)
		r.publishStatus(jobID, domain.JobStatusFailed, failureSummary(result))
		log.Warn("job finished without pdf", logger.Int("failures", len(result.Failures)))
	} else if err := r.jobs.Transition(domain.JobStatusDone); err == nil {
		r.publishStatus(jobID, domain.JobStatusDone, "Job completed")
		log.Info("job completed", logger.String("pdf", result.PDFPath))
	}

	r.publishEvent(Event{
		JobID:          jobID,
		Type:           EventTypeResult,
		Status:         r.jobs.Current().Status,
		Message:        "Run finished",
		TranscriptPath: result.TranscriptPath,
		PDFPath:        result.PDFPath,
	})
	return result, nil
}

// failureSummary explains why a run ended without an export.
func failureSummary(result transcribe.Result) string {
	switch {
	case len(result.Failures) > 0:
		return result.Failures[len(result.Failures)-1].Error()
	case result.Transcript == "":
		return "No text was produced"
	default:
		return "No translation was produced"
	}
}

func commandEvent(jobID, message string, cmd media.CommandLog) Event {
	return Event{
		JobID:    jobID,
		Type:     EventTypeCommand,
		Message:  message,
		Command:  cmd.Command,
		Args:     cmd.Args,
		ExitCode: cmd.ExitCode,
		Stdout:   cmd.Stdout,
		Stderr:   cmd.Stderr,
	}
}

func (r *Runner) storeResult(result transcribe.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = &result
}

// publishStatus sends a normalized status event.
func (r *Runner) publishStatus(jobID string, status domain.JobStatus, message string) {
	r.publishEvent(Event{
		JobID:   jobID,
		Type:    EventTypeStatus,
		Status:  status,
		Message: message,
	})
}

func (r *Runner) publishEvent(event Event) {
	r.events.Publish(event)
}

// clearActiveJob clears cancellation handles for completed job IDs.
func (r *Runner) clearActiveJob(jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.activeJobID == jobID {
		r.activeJobID = ""
		if r.cancel != nil {
			r.cancel()
		}
		r.cancel = nil
		if r.done != nil {
			close(r.done)
			r.done = nil
		}
	}
}

// mapStageToStatus maps pipeline stage names to job statuses.
func mapStageToStatus(stage string) (domain.JobStatus, bool) {
	switch stage {
	case transcribe.StagePreprocessing:
		return domain.JobStatusPreprocessing, true
	case transcribe.StageTranscribing:
		return domain.JobStatusTranscribing, true
	case transcribe.StageTranslating:
		return domain.JobStatusTranslating, true
	case transcribe.StageExporting:
		return domain.JobStatusExporting, true
	default:
		return "", false
	}
}

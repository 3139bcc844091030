package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"parley/internal/logging"
	"parley/internal/services"
	"parley/internal/stagecache"
)

// Executor runs stages in order against the stage cache. Satisfied stages are
// restored instead of recomputed, which is what makes an interrupted run
// resumable: rerunning the same run_id replays finished stages from the cache
// and picks up where the failure happened.
type Executor struct {
	store  *stagecache.Store
	logger *slog.Logger
}

// NewExecutor creates an executor over the given stage cache.
func NewExecutor(store *stagecache.Store, logger *slog.Logger) *Executor {
	return &Executor{
		store:  store,
		logger: logging.NewComponentLogger(logger, "executor"),
	}
}

// Run executes the stage list for runID. A required-stage failure aborts the
// run and marks the remaining stages skipped; the cache keeps everything that
// succeeded so far. Optional-stage failures are recorded and the run
// continues. Cache read problems are logged and treated as misses.
func (e *Executor) Run(ctx context.Context, runID string, stages []Stage) Result {
	ctx = services.WithRunID(ctx, runID)
	result := Result{RunID: runID, Completed: true, Stages: make([]StageStatus, 0, len(stages))}

	aborted := false
	for _, stage := range stages {
		if aborted {
			result.Stages = append(result.Stages, StageStatus{
				Name: stage.Name, Outcome: OutcomeSkipped, Required: stage.Required,
			})
			continue
		}

		status := e.runStage(ctx, runID, stage, &result)
		result.Stages = append(result.Stages, status)

		if status.Outcome == OutcomeFailed && stage.Required {
			result.Completed = false
			result.FailedStage = stage.Name
			aborted = true
		}
	}
	return result
}

func (e *Executor) runStage(ctx context.Context, runID string, stage Stage, result *Result) StageStatus {
	status := StageStatus{Name: stage.Name, Required: stage.Required}

	ctx = services.WithStage(ctx, stage.Name)
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, e.logger)

	if !stage.Enabled {
		logger.Info("stage disabled, skipping",
			logging.String(logging.FieldEventType, "stage_skipped"))
		status.Outcome = OutcomeSkipped
		return status
	}

	// Dependencies gate the cache lookup: a cached payload is useless when
	// the state its Restore feeds into was never produced upstream.
	for _, dep := range stage.DependsOn {
		if !result.Succeeded(dep) {
			logger.Info("dependency unsatisfied, skipping",
				logging.String("dependency", dep),
				logging.String(logging.FieldEventType, "stage_skipped"))
			status.Outcome = OutcomeSkipped
			return status
		}
	}

	if e.restoreFromCache(ctx, runID, stage, logger) {
		logger.Info("stage satisfied from cache",
			logging.String(logging.FieldEventType, "stage_cached"))
		status.Outcome = OutcomeCached
		return status
	}

	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"))
	started := time.Now()

	value, err := stage.Run(ctx)
	if err != nil {
		logger.Error("stage failed",
			logging.Error(err),
			logging.Duration("duration", time.Since(started)),
			logging.String(logging.FieldEventType, "stage_failure"))
		status.Outcome = OutcomeFailed
		status.Error = err.Error()
		return status
	}

	e.persist(ctx, runID, stage.Name, value, logger)

	logger.Info("stage complete",
		logging.Duration("duration", time.Since(started)),
		logging.String(logging.FieldEventType, "stage_complete"))
	status.Outcome = OutcomeComputed
	return status
}

// restoreFromCache reports whether the stage was rehydrated from a cached
// payload. Any problem along the way (read error, corrupt payload, Restore
// rejection) is logged and counts as a miss.
func (e *Executor) restoreFromCache(ctx context.Context, runID string, stage Stage, logger *slog.Logger) bool {
	if e.store == nil || stage.Restore == nil {
		return false
	}
	payload, ok, err := e.store.Get(ctx, runID, stage.Name)
	if err != nil {
		logger.Warn("cache read failed, recomputing", logging.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := stage.Restore(json.RawMessage(payload)); err != nil {
		logger.Warn("cached payload rejected, recomputing", logging.Error(err))
		return false
	}
	return true
}

// persist writes the stage output to the cache. Write failures degrade the
// next run to recomputation but never fail this one.
func (e *Executor) persist(ctx context.Context, runID, stageName string, value any, logger *slog.Logger) {
	if e.store == nil || value == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		logger.Warn("stage output not cacheable", logging.Error(err))
		return
	}
	if err := e.store.Put(ctx, runID, stageName, payload); err != nil {
		logger.Warn("cache write failed", logging.Error(err))
	}
}

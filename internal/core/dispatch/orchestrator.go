// Package dispatch drives the daily cycle: it resolves due combinations,
// generates content once per combination and date, persists the outcome
// and fans completed runs out to subscribers.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"plotlines.app/internal/core/runstate"
	"plotlines.app/internal/ports"
	"plotlines.app/pkg/errors"
	"plotlines.app/pkg/validation"
)

const maxDiagnosticLength = 2048

type Orchestrator struct {
	combinations ports.CombinationRepository
	runs         ports.RunStateStore
	subscribers  ports.SubscriberRepository
	engine       ports.EngineInvoker
	delivery     *DeliveryTracker
	locks        ports.LockManager
	metrics      ports.MetricsCollector
	clock        ports.Clock
	config       ports.ConfigProvider
	logger       ports.Logger

	mu          sync.RWMutex
	lastSummary *CycleSummary
}

type OrchestratorDependencies struct {
	Combinations ports.CombinationRepository
	Runs         ports.RunStateStore
	Subscribers  ports.SubscriberRepository
	Engine       ports.EngineInvoker
	Delivery     *DeliveryTracker
	Locks        ports.LockManager
	Metrics      ports.MetricsCollector
	Clock        ports.Clock
	Config       ports.ConfigProvider
	Logger       ports.Logger
}

func NewOrchestrator(deps OrchestratorDependencies) (*Orchestrator, error) {
	if deps.Combinations == nil {
		return nil, errors.NewValidationError("combination repository is required")
	}
	if deps.Runs == nil {
		return nil, errors.NewValidationError("run state store is required")
	}
	if deps.Subscribers == nil {
		return nil, errors.NewValidationError("subscriber repository is required")
	}
	if deps.Engine == nil {
		return nil, errors.NewValidationError("engine invoker is required")
	}
	if deps.Delivery == nil {
		return nil, errors.NewValidationError("delivery tracker is required")
	}
	if deps.Locks == nil {
		return nil, errors.NewValidationError("lock manager is required")
	}
	if deps.Metrics == nil {
		return nil, errors.NewValidationError("metrics collector is required")
	}
	if deps.Clock == nil {
		return nil, errors.NewValidationError("clock is required")
	}
	if deps.Config == nil {
		return nil, errors.NewValidationError("config is required")
	}
	if deps.Logger == nil {
		return nil, errors.NewValidationError("logger is required")
	}

	return &Orchestrator{
		combinations: deps.Combinations,
		runs:         deps.Runs,
		subscribers:  deps.Subscribers,
		engine:       deps.Engine,
		delivery:     deps.Delivery,
		locks:        deps.Locks,
		metrics:      deps.Metrics,
		clock:        deps.Clock,
		config:       deps.Config,
		logger:       deps.Logger,
	}, nil
}

// Today returns the run date for the current instant in the dispatch timezone
func (o *Orchestrator) Today() string {
	loc := o.config.GetDispatchConfig().Location
	if loc == nil {
		loc = time.UTC
	}
	return o.clock.Now().In(loc).Format(validation.RunDateLayout)
}

// RunToday runs the cycle for today's date in the dispatch timezone
func (o *Orchestrator) RunToday(ctx context.Context) (*CycleSummary, error) {
	return o.RunCycle(ctx, o.Today())
}

// LastSummary returns a copy of the most recent cycle summary
func (o *Orchestrator) LastSummary() (*CycleSummary, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.lastSummary == nil {
		return nil, false
	}
	return o.lastSummary.clone(), true
}

// RunCycle processes every due combination for date. Re-running a date is safe:
// completed runs are skipped and failed runs are regenerated.
//
// A cycle already holding date's lock makes this call fail with a conflict
// error. A store outage or ctx cancellation aborts the cycle; the partial
// summary is returned together with the error.
func (o *Orchestrator) RunCycle(ctx context.Context, date string) (*CycleSummary, error) {
	if !validation.IsValidRunDate(date) {
		return nil, errors.NewValidationError(fmt.Sprintf("invalid run date %q, expected YYYY-MM-DD", date))
	}

	dispatchConfig := o.config.GetDispatchConfig()

	lock, err := o.locks.TryAcquire(ctx, lockKey(date), dispatchConfig.LockTTL)
	if err != nil {
		if errors.IsConflictError(err) {
			o.metrics.RecordCycle(ctx, CycleResultConflict, o.clock.Now())
			o.logger.Warn("Dispatch cycle already running", ports.F("date", date))
		}
		return nil, fmt.Errorf("acquire dispatch lock for %s: %w", date, err)
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			o.logger.Warn("Failed to release dispatch lock", ports.F("date", date), ports.F("error", err))
		}
	}()

	summary := newCycleSummary(date, o.clock.Now())
	o.logger.Info("Starting dispatch cycle",
		ports.F("date", date),
		ports.F("workers", dispatchConfig.Workers),
		ports.F("lock", o.locks.Name()))

	cycleErr := o.runCombinations(ctx, date, summary, dispatchConfig.Workers)

	finishedAt := o.clock.Now()
	summary.Duration = finishedAt.Sub(summary.StartedAt)
	o.storeSummary(summary)

	if cycleErr != nil {
		o.metrics.RecordCycle(ctx, CycleResultAborted, finishedAt)
		o.logger.Error("Dispatch cycle aborted",
			ports.F("date", date),
			ports.F("error", cycleErr),
			ports.F("completed", summary.Completed),
			ports.F("failed", summary.Failed),
			ports.F("sent", summary.Sent))
		return summary, cycleErr
	}

	o.metrics.RecordCycle(ctx, CycleResultSuccess, finishedAt)
	o.logger.Info("Dispatch cycle completed",
		ports.F("date", date),
		ports.F("combinations", summary.Combinations),
		ports.F("skipped", summary.Skipped),
		ports.F("completed", summary.Completed),
		ports.F("failed", summary.Failed),
		ports.F("aborted", summary.Aborted),
		ports.F("sent", summary.Sent),
		ports.F("failed_deliveries", summary.FailedDeliveries),
		ports.F("duration", summary.Duration.String()))

	return summary, nil
}

func (o *Orchestrator) runCombinations(ctx context.Context, date string, summary *CycleSummary, workers int) error {
	combinations, err := o.combinations.ListDueCombinations(ctx)
	if err != nil {
		return fmt.Errorf("resolve due combinations: %w", err)
	}
	summary.Combinations = len(combinations)

	if len(combinations) == 0 {
		o.logger.Info("No combinations due", ports.F("date", date))
		return nil
	}

	if workers <= 1 {
		return o.runSequential(ctx, date, summary, combinations)
	}
	return o.runPooled(ctx, date, summary, combinations, workers)
}

func (o *Orchestrator) runSequential(ctx context.Context, date string, summary *CycleSummary, combinations []*ports.CombinationData) error {
	for _, combination := range combinations {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("dispatch cycle cancelled: %w", err)
		}

		result := o.processCombination(ctx, date, combination)
		summary.apply(result)
		if result.fatal != nil {
			return result.fatal
		}
	}
	return nil
}

// runPooled hands each combination to a bounded worker. The first fatal
// error cancels the group so no further combination starts.
func (o *Orchestrator) runPooled(ctx context.Context, date string, summary *CycleSummary, combinations []*ports.CombinationData, workers int) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	var mu sync.Mutex
	for _, combination := range combinations {
		combination := combination
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return fmt.Errorf("dispatch cycle cancelled: %w", err)
			}

			result := o.processCombination(groupCtx, date, combination)

			mu.Lock()
			summary.apply(result)
			mu.Unlock()

			return result.fatal
		})
	}

	return group.Wait()
}

// processCombination takes one combination through the run state machine.
// Once the engine has answered, persistence and delivery are detached from
// ctx so generated content is never thrown away by a cancelled cycle.
func (o *Orchestrator) processCombination(ctx context.Context, date string, combination *ports.CombinationData) combinationResult {
	result := combinationResult{combination: combination}
	label := combinationLabel(combination)

	current := runstate.StatusAbsent
	existing, err := o.runs.GetRun(ctx, combination.ID, date)
	switch {
	case err == nil:
		current = existing.Status
	case errors.IsNotFoundError(err):
	default:
		result.outcome = OutcomeAborted
		result.fatal = fmt.Errorf("get run for %s: %w", label, err)
		return result
	}

	if !runstate.NeedsGeneration(current) {
		o.logger.Debug("Run already completed, skipping",
			ports.F("combination", label),
			ports.F("date", date))
		result.outcome = OutcomeSkipped
		o.metrics.RecordCombinationOutcome(ctx, string(result.outcome))
		return result
	}

	startedAt := o.clock.Now()
	payload, engineErr := o.engine.Invoke(ctx, combination)
	elapsed := o.clock.Now().Sub(startedAt)
	o.metrics.RecordEngineDuration(ctx, elapsed, engineErr == nil)

	if engineErr != nil && ctx.Err() != nil {
		result.outcome = OutcomeAborted
		result.fatal = fmt.Errorf("dispatch cycle cancelled during %s: %w", label, ctx.Err())
		return result
	}

	persistCtx := context.WithoutCancel(ctx)

	if engineErr != nil {
		result = o.recordEngineFailure(persistCtx, date, combination, engineErr)
		o.metrics.RecordCombinationOutcome(persistCtx, string(result.outcome))
		return result
	}

	run, err := o.runs.RecordCompleted(persistCtx, combination.ID, date, payload, elapsed.Milliseconds())
	if err != nil {
		result = o.storeFailure(result, "record completed run", err)
		o.metrics.RecordCombinationOutcome(persistCtx, string(result.outcome))
		return result
	}

	result.outcome = OutcomeCompleted
	o.metrics.RecordCombinationOutcome(persistCtx, string(result.outcome))
	o.logger.Info("Run completed",
		ports.F("combination", label),
		ports.F("date", date),
		ports.F("run_id", run.ID),
		ports.F("generation_ms", run.GenerationMs))

	subscribers, err := o.subscribers.ListActiveForCombination(persistCtx, combination.StationCode, combination.AuthorKey)
	if err != nil {
		result.fatal = fmt.Errorf("list subscribers for %s: %w", label, err)
		return result
	}

	delivered, err := o.delivery.DeliverRun(persistCtx, run, subscribers)
	result.delivery = delivered
	if err != nil {
		result.fatal = fmt.Errorf("deliver run for %s: %w", label, err)
	}

	return result
}

func (o *Orchestrator) recordEngineFailure(ctx context.Context, date string, combination *ports.CombinationData, engineErr error) combinationResult {
	result := combinationResult{combination: combination}

	o.logger.Warn("Engine invocation failed",
		ports.F("combination", combinationLabel(combination)),
		ports.F("date", date),
		ports.F("error_type", errors.TypeOf(engineErr).String()),
		ports.F("error", engineErr),
		ports.F("diagnostic", truncate(errors.DiagnosticOf(engineErr), maxDiagnosticLength)))

	if _, err := o.runs.RecordFailed(ctx, combination.ID, date); err != nil {
		return o.storeFailure(result, "record failed run", err)
	}

	result.outcome = OutcomeFailed
	result.problem = engineErr.Error()
	return result
}

// storeFailure classifies a run-store error: a consistency violation aborts
// only this combination, anything else aborts the cycle.
func (o *Orchestrator) storeFailure(result combinationResult, operation string, err error) combinationResult {
	label := combinationLabel(result.combination)
	result.outcome = OutcomeAborted

	if errors.IsConsistencyError(err) {
		o.logger.Error("Run state consistency violation",
			ports.F("combination", label),
			ports.F("operation", operation),
			ports.F("error", err))
		result.problem = err.Error()
		return result
	}

	result.fatal = fmt.Errorf("%s for %s: %w", operation, label, err)
	return result
}

func (o *Orchestrator) storeSummary(summary *CycleSummary) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastSummary = summary.clone()
}

func (s *CycleSummary) clone() *CycleSummary {
	c := *s
	c.Errors = append([]string{}, s.Errors...)
	return &c
}

func lockKey(date string) string {
	return "plotlines:dispatch:" + date
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}

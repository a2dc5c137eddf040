// pkg/engine/orchestrator.go
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/taskora-ai/taskora/pkg/decompose"
	"github.com/taskora-ai/taskora/pkg/event"
	"github.com/taskora-ai/taskora/pkg/task"
)

// Orchestration stage names, in pipeline order.
const (
	StageFetch     = "fetch"
	StageClassify  = "classify"
	StageAct       = "act"
	StageExtract   = "extract"
	StageDecompose = "decompose"
	StageExecute   = "execute"
)

// TaskResult is the final envelope returned for every task run, whether
// it succeeded or failed. Failures carry the stage that broke and the
// full execution log; they are never surfaced as error returns.
type TaskResult struct {
	Success bool   `json:"success"`
	TaskID  string `json:"task_id"`
	RunID   string `json:"run_id"`

	Data     any                `json:"data,omitempty"`
	Strategy decompose.Strategy `json:"strategy,omitempty"`
	Duration time.Duration      `json:"execution_time"`
	Stages   map[string]bool    `json:"stages"`
	Log      []string           `json:"execution_log,omitempty"`

	Error   string         `json:"error,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// EngineOption configures optional Engine collaborators.
type EngineOption func(*Engine)

// WithActionRunner wires a runner for preparation actions on tasks that
// are not self-contained after fetching.
func WithActionRunner(r ActionRunner) EngineOption {
	return func(e *Engine) { e.actions = r }
}

// WithEventBus wires a bus on which the engine publishes task, stage,
// and subtask events.
func WithEventBus(bus event.EventBus) EngineOption {
	return func(e *Engine) { e.bus = bus }
}

// WithMaxParallelSubtasks caps how many subtasks of one batch run
// concurrently. Zero or negative leaves the batch unbounded.
func WithMaxParallelSubtasks(n int) EngineOption {
	return func(e *Engine) { e.maxParallel = n }
}

// WithStageTimeout bounds every orchestration stage with the given
// deadline. Zero disables the per-stage timeout.
func WithStageTimeout(d time.Duration) EngineOption {
	return func(e *Engine) { e.stageTimeout = d }
}

// WithDefaultExportFormat sets the exporter format used when a task
// does not request one.
func WithDefaultExportFormat(format string) EngineOption {
	return func(e *Engine) { e.selector.SetDefaultExportFormat(format) }
}

// Engine is the six-stage task orchestrator: fetch, classify, act,
// extract, decompose-or-route, execute. Every stage writes its result
// into the run's ExecutionContext; any stage error funnels into one
// failure envelope at the top of ProcessTask.
type Engine struct {
	registry   *Registry
	selector   *Selector
	executor   *Executor
	router     *Router
	decomposer *decompose.Decomposer

	fetcher    TaskFetcher
	classifier Classifier
	extractor  ParameterExtractor
	actions    ActionRunner
	bus        event.EventBus

	maxParallel  int
	stageTimeout time.Duration

	logger zerolog.Logger
}

// NewEngine assembles an orchestration engine over the given registry
// and external analysis services.
func NewEngine(registry *Registry, fetcher TaskFetcher, classifier Classifier, extractor ParameterExtractor, opts ...EngineOption) *Engine {
	selector := NewSelector(registry)
	executor := NewExecutor()

	e := &Engine{
		registry:   registry,
		selector:   selector,
		executor:   executor,
		router:     NewRouter(registry, selector, executor),
		decomposer: decompose.NewDecomposer(),
		fetcher:    fetcher,
		classifier: classifier,
		extractor:  extractor,
		logger:     log.With().Str("component", "OrchestratorEngine").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the engine's module registry.
func (e *Engine) Registry() *Registry { return e.registry }

// Executor returns the engine's module executor.
func (e *Engine) Executor() *Executor { return e.executor }

// ProcessTask runs the full pipeline for one task. input is the raw
// task statement or a URL pointing at one; url optionally carries an
// explicit task URL. The returned envelope is always non-nil and all
// failures are reported through it.
func (e *Engine) ProcessTask(ctx context.Context, input, url string, metadata map[string]any) *TaskResult {
	ec := NewExecutionContext(input, url, metadata)
	ec.Status = RunRunning
	ec.LogEvent("task accepted: %s", truncate(input, 100))

	e.logger.Info().Str("task_id", ec.TaskID).Str("run_id", ec.RunID).Msg("processing task")
	e.publish(ctx, event.TopicTaskStarted, &event.StagePayload{TaskID: ec.TaskID, Data: input})

	result := e.process(ctx, ec)
	result.Duration = ec.Duration()
	result.Log = ec.Log

	topic := event.TopicTaskCompleted
	if !result.Success {
		topic = event.TopicTaskFailed
	}
	e.publish(ctx, topic, &event.StagePayload{TaskID: ec.TaskID, Data: result})

	e.logger.Info().
		Str("task_id", ec.TaskID).
		Bool("success", result.Success).
		Dur("duration", result.Duration).
		Msg("task processing finished")

	return result
}

// process is the single catch point: each stage either stores its
// result in ec or returns an error that becomes the failure envelope.
func (e *Engine) process(ctx context.Context, ec *ExecutionContext) *TaskResult {
	fetched, err := e.stageFetch(ctx, ec)
	if err != nil {
		return e.failure(ec, StageFetch, err)
	}

	cls, err := e.stageClassify(ctx, ec, fetched)
	if err != nil {
		return e.failure(ec, StageClassify, err)
	}

	fetched, err = e.stageAct(ctx, ec, fetched)
	if err != nil {
		return e.failure(ec, StageAct, err)
	}

	params, err := e.stageExtract(ctx, ec, fetched, cls)
	if err != nil {
		return e.failure(ec, StageExtract, err)
	}

	decomposition, err := e.stageDecompose(ctx, ec, cls, params)
	if err != nil {
		return e.failure(ec, StageDecompose, err)
	}

	result, err := e.stageExecute(ctx, ec, cls, params, decomposition)
	if err != nil {
		return e.failure(ec, StageExecute, err)
	}

	ec.MarkCompleted()
	result.Stages = e.stageFlags(ec)
	return result
}

// stageContext bounds one stage with the configured timeout.
func (e *Engine) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.stageTimeout > 0 {
		return context.WithTimeout(ctx, e.stageTimeout)
	}
	return ctx, func() {}
}

func (e *Engine) stageFetch(ctx context.Context, ec *ExecutionContext) (*FetchedTask, error) {
	ctx, cancel := e.stageContext(ctx)
	defer cancel()
	e.stageStarted(ctx, ec, StageFetch)

	fetched, err := e.fetcher.Fetch(ctx, ec.OriginalTask, ec.TaskURL)
	if err != nil {
		return nil, e.stageFailed(ctx, ec, StageFetch, err)
	}
	if fetched.SourceURL != "" {
		ec.TaskURL = fetched.SourceURL
	}

	ec.SetStageResult(StageFetch, fetched)
	e.stageCompleted(ctx, ec, StageFetch, fetched)
	return fetched, nil
}

func (e *Engine) stageClassify(ctx context.Context, ec *ExecutionContext, fetched *FetchedTask) (*task.Classification, error) {
	ctx, cancel := e.stageContext(ctx)
	defer cancel()
	e.stageStarted(ctx, ec, StageClassify)

	cls, err := e.classifier.Classify(ctx, fetched.Content)
	if err != nil {
		return nil, e.stageFailed(ctx, ec, StageClassify, err)
	}
	if err := cls.Validate(); err != nil {
		return nil, e.stageFailed(ctx, ec, StageClassify, fmt.Errorf("invalid classification: %w", err))
	}
	ec.LogEvent("classified as %s (%s, ~%d steps)", cls.PrimaryTask, cls.Complexity, cls.EstimatedSteps)

	ec.SetStageResult(StageClassify, cls)
	e.stageCompleted(ctx, ec, StageClassify, cls)
	return cls, nil
}

// stageAct runs preparation actions for tasks whose fetched content is
// not yet self-contained. Without an ActionRunner the stage records a
// no-op and the raw content flows on.
func (e *Engine) stageAct(ctx context.Context, ec *ExecutionContext, fetched *FetchedTask) (*FetchedTask, error) {
	ctx, cancel := e.stageContext(ctx)
	defer cancel()
	e.stageStarted(ctx, ec, StageAct)

	if fetched.SelfContained || e.actions == nil {
		ec.LogEvent("no preparation actions required")
		ec.SetStageResult(StageAct, false)
		e.stageCompleted(ctx, ec, StageAct, nil)
		return fetched, nil
	}

	augmented, err := e.actions.Run(ctx, fetched, ec)
	if err != nil {
		return nil, e.stageFailed(ctx, ec, StageAct, err)
	}

	ec.SetStageResult(StageAct, true)
	e.stageCompleted(ctx, ec, StageAct, augmented)
	return augmented, nil
}

func (e *Engine) stageExtract(ctx context.Context, ec *ExecutionContext, fetched *FetchedTask, cls *task.Classification) (*task.Parameters, error) {
	ctx, cancel := e.stageContext(ctx)
	defer cancel()
	e.stageStarted(ctx, ec, StageExtract)

	params, err := e.extractor.Extract(ctx, fetched.Content, cls)
	if err != nil {
		return nil, e.stageFailed(ctx, ec, StageExtract, err)
	}
	if err := params.Validate(); err != nil {
		return nil, e.stageFailed(ctx, ec, StageExtract, fmt.Errorf("invalid parameters: %w", err))
	}
	ec.LogEvent("extracted %d data sources, %d filters, %d visualizations",
		len(params.DataSources), len(params.Filters), len(params.Visualizations))

	ec.SetStageResult(StageExtract, params)
	e.stageCompleted(ctx, ec, StageExtract, params)
	return params, nil
}

// stageDecompose returns a decomposition result only when the task
// needs one; simple tasks return nil and route straight through the
// linear planner.
func (e *Engine) stageDecompose(ctx context.Context, ec *ExecutionContext, cls *task.Classification, params *task.Parameters) (*decompose.Result, error) {
	e.stageStarted(ctx, ec, StageDecompose)

	if !e.decomposer.NeedsDecomposition(cls, params) {
		ec.LogEvent("task is simple, routing directly")
		ec.SetStageResult(StageDecompose, nil)
		e.stageCompleted(ctx, ec, StageDecompose, nil)
		return nil, nil
	}

	decomposition := e.decomposer.Decompose(cls, params, ec.OriginalTask)
	if _, err := decomposition.ExecutionOrder(); err != nil {
		return nil, e.stageFailed(ctx, ec, StageDecompose, err)
	}
	ec.LogEvent("decomposed into %d subtasks (%s strategy)", len(decomposition.Subtasks), decomposition.Strategy)

	ec.SetStageResult(StageDecompose, decomposition)
	e.stageCompleted(ctx, ec, StageDecompose, decomposition)
	return decomposition, nil
}

func (e *Engine) stageExecute(ctx context.Context, ec *ExecutionContext, cls *task.Classification, params *task.Parameters, decomposition *decompose.Result) (*TaskResult, error) {
	ctx, cancel := e.stageContext(ctx)
	defer cancel()
	e.stageStarted(ctx, ec, StageExecute)

	var result *TaskResult
	var err error
	if decomposition == nil || len(decomposition.Subtasks) <= 1 {
		result, err = e.executeDirect(ctx, ec, cls, params, decomposition)
	} else {
		result, err = e.executeDecomposed(ctx, ec, decomposition)
	}
	if err != nil {
		return nil, e.stageFailed(ctx, ec, StageExecute, err)
	}

	ec.SetStageResult(StageExecute, result.Data)
	e.stageCompleted(ctx, ec, StageExecute, result)
	return result, nil
}

// executeDirect routes a simple task (or a single-subtask
// decomposition) through the linear planner.
func (e *Engine) executeDirect(ctx context.Context, ec *ExecutionContext, cls *task.Classification, params *task.Parameters, decomposition *decompose.Result) (*TaskResult, error) {
	strategy := decompose.StrategySingle
	if decomposition != nil {
		strategy = decomposition.Strategy
	}

	exec := e.router.RouteAndExecute(ctx, cls, params, ec.OriginalTask)
	if !exec.Success {
		// An empty selection produces a plan with no steps at all.
		if exec.TotalSteps == 0 {
			return nil, fmt.Errorf("plan execution failed: %w", ErrNoModules)
		}
		return nil, WithErrorCode(fmt.Errorf("plan execution failed: %s", firstError(exec.Errors)), errorCodeStepFailed)
	}

	return &TaskResult{
		Success:  true,
		TaskID:   ec.TaskID,
		RunID:    ec.RunID,
		Data:     exec.Data,
		Strategy: strategy,
		Details: map[string]any{
			"steps_completed": exec.StepsCompleted,
			"total_steps":     exec.TotalSteps,
		},
	}, nil
}

// executeDecomposed runs the decomposition batch by batch. Subtasks in
// one batch run concurrently; a subtask whose dependency failed is
// skipped and reported, it does not abort the rest of its batch.
func (e *Engine) executeDecomposed(ctx context.Context, ec *ExecutionContext, decomposition *decompose.Result) (*TaskResult, error) {
	batches, err := decomposition.ExecutionOrder()
	if err != nil {
		return nil, err
	}

	var skipped []string
	for i, batch := range batches {
		ec.LogEvent("executing batch %d/%d (%d subtasks)", i+1, len(batches), len(batch))

		g, gctx := errgroup.WithContext(ctx)
		if e.maxParallel > 0 {
			g.SetLimit(e.maxParallel)
		}
		for _, id := range batch {
			st := decomposition.Subtask(id)
			if st == nil {
				continue
			}
			if !e.dependenciesCompleted(decomposition, st) {
				skipped = append(skipped, st.ID)
				ec.LogEvent("skipping subtask %s: dependency failed", st.ID)
				continue
			}

			g.Go(func() error {
				e.runSubtask(gctx, ec, st)
				// Subtask failures are recorded on the subtask so the
				// rest of the batch keeps running.
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	completed := 0
	failed := 0
	var lastData any
	for _, st := range decomposition.Subtasks {
		switch st.Status {
		case decompose.SubtaskCompleted:
			completed++
			lastData = st.Result
		case decompose.SubtaskFailed:
			failed++
		}
	}
	ec.LogEvent("subtasks finished: %d completed, %d failed, %d skipped", completed, failed, len(skipped))

	details := map[string]any{
		"subtasks_completed": completed,
		"subtasks_failed":    failed,
		"subtasks_total":     len(decomposition.Subtasks),
		"complexity_score":   decomposition.ComplexityScore,
	}
	if len(skipped) > 0 {
		details["subtasks_skipped"] = skipped
	}

	if failed > 0 || len(skipped) > 0 {
		return nil, fmt.Errorf("%d of %d subtasks did not complete", failed+len(skipped), len(decomposition.Subtasks))
	}

	return &TaskResult{
		Success:  true,
		TaskID:   ec.TaskID,
		RunID:    ec.RunID,
		Data:     lastData,
		Strategy: decomposition.Strategy,
		Details:  details,
	}, nil
}

// runSubtask re-selects modules for one subtask and executes its linear
// plan, recording the outcome on the subtask.
func (e *Engine) runSubtask(ctx context.Context, ec *ExecutionContext, st *decompose.Subtask) {
	st.Status = decompose.SubtaskRunning
	e.publish(ctx, event.TopicSubtaskStarted, &event.StagePayload{TaskID: ec.TaskID, Stage: st.ID})

	exec := e.router.RouteAndExecute(ctx, &st.Classification, &st.Parameters, st.Description)
	if exec.Success {
		st.Status = decompose.SubtaskCompleted
		st.Result = exec.Data
		ec.LogEvent("subtask %s completed in %s", st.ID, exec.Duration)
	} else {
		st.Status = decompose.SubtaskFailed
		st.Err = firstError(exec.Errors)
		ec.LogEvent("subtask %s failed: %s", st.ID, st.Err)
	}

	e.publish(ctx, event.TopicSubtaskDone, &event.StagePayload{TaskID: ec.TaskID, Stage: st.ID, Data: exec})
}

func (e *Engine) dependenciesCompleted(decomposition *decompose.Result, st *decompose.Subtask) bool {
	for _, dep := range st.DependsOn {
		d := decomposition.Subtask(dep)
		if d == nil || d.Status != decompose.SubtaskCompleted {
			return false
		}
	}
	return true
}

// failure builds the failure envelope. This is the only place a stage
// error surfaces; it is recorded, never re-returned.
func (e *Engine) failure(ec *ExecutionContext, stage string, err error) *TaskResult {
	wrapped := WrapStageError(stage, err)
	ec.MarkFailed(wrapped.Error())

	e.logger.Error().
		Err(err).
		Str("task_id", ec.TaskID).
		Str("stage", stage).
		Str("code", ErrorCode(wrapped)).
		Msg("task failed")

	return &TaskResult{
		Success: false,
		TaskID:  ec.TaskID,
		RunID:   ec.RunID,
		Stages:  e.stageFlags(ec),
		Error:   wrapped.Error(),
		Details: map[string]any{
			"failed_stage": stage,
			"error_code":   ErrorCode(wrapped),
		},
	}
}

// stageFlags reports which stages stored a result.
func (e *Engine) stageFlags(ec *ExecutionContext) map[string]bool {
	flags := make(map[string]bool, 6)
	for _, stage := range []string{StageFetch, StageClassify, StageAct, StageExtract, StageDecompose, StageExecute} {
		_, ok := ec.StageResult(stage)
		flags[stage] = ok
	}
	return flags
}

func (e *Engine) stageStarted(ctx context.Context, ec *ExecutionContext, stage string) {
	ec.LogEvent("stage %q started", stage)
	e.publish(ctx, event.TopicStageStarted, &event.StagePayload{TaskID: ec.TaskID, Stage: stage})
}

func (e *Engine) stageCompleted(ctx context.Context, ec *ExecutionContext, stage string, data any) {
	e.publish(ctx, event.TopicStageCompleted, &event.StagePayload{TaskID: ec.TaskID, Stage: stage, Data: data})
}

func (e *Engine) stageFailed(ctx context.Context, ec *ExecutionContext, stage string, err error) error {
	e.publish(ctx, event.TopicStageFailed, &event.StagePayload{TaskID: ec.TaskID, Stage: stage, Err: err})
	return err
}

func (e *Engine) publish(ctx context.Context, topic string, payload *event.StagePayload) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(ctx, topic, payload)
}

func firstError(errs []string) string {
	if len(errs) == 0 {
		return "unknown error"
	}
	return errs[0]
}

package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/court-deployer/internal/pkg/logger"
)

const tracerName = "github.com/yungbote/court-deployer/internal/deploy/orchestrator"

// Stage is one step of a run. Stages execute strictly in order; the first
// failure stops the run and later stages never start. There are no retries.
type Stage struct {
	Name string
	// Skip, when it returns true, records the stage as skipped without running it.
	Skip func() bool
	Run  func(ctx context.Context, st *OrchestratorState) (map[string]any, error)
}

// StateSink persists stage progress. Failures to persist are logged, never fatal.
type StateSink func(ctx context.Context, st *OrchestratorState) error

type Engine struct {
	log    *logger.Logger
	tracer trace.Tracer
	save   StateSink
}

func NewEngine(log *logger.Logger, save StateSink) *Engine {
	return &Engine{
		log:    log,
		tracer: otel.Tracer(tracerName),
		save:   save,
	}
}

// Run executes stages in order and returns the failing stage's error unchanged.
func (e *Engine) Run(ctx context.Context, st *OrchestratorState, stages []Stage) error {
	if err := validateStages(stages); err != nil {
		return err
	}
	for _, def := range stages {
		st.EnsureStage(def.Name)
	}
	for i := range stages {
		def := stages[i]
		ss := st.EnsureStage(def.Name)
		if ss.Status == StageSucceeded || ss.Status == StageSkipped {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if def.Skip != nil && def.Skip() {
			ss.Status = StageSkipped
			markFinished(ss, "")
			e.log.Info("Skipping stage", "stage", def.Name)
			e.persist(ctx, st)
			continue
		}
		if err := e.runStage(ctx, st, def, ss); err != nil {
			return err
		}
	}
	st.Current = ""
	e.persist(ctx, st)
	return nil
}

func (e *Engine) runStage(ctx context.Context, st *OrchestratorState, def Stage, ss *StageState) error {
	ss.Status = StageRunning
	st.Current = def.Name
	markStarted(ss)
	e.persist(ctx, st)
	e.log.Info("Starting stage", "stage", def.Name)

	sctx, span := e.tracer.Start(ctx, "stage."+def.Name, trace.WithAttributes(attribute.String("stage", def.Name)))
	outs, err := safeRun(sctx, def, st)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		ss.Status = StageFailed
		markFinished(ss, err.Error())
		e.persist(ctx, st)
		e.log.Error("Stage failed", "stage", def.Name, "error", err)
		return err
	}
	span.End()
	for k, v := range outs {
		ss.Outputs[k] = v
	}
	ss.Status = StageSucceeded
	markFinished(ss, "")
	e.persist(ctx, st)
	e.log.Info("Stage done", "stage", def.Name)
	return nil
}

func (e *Engine) persist(ctx context.Context, st *OrchestratorState) {
	if e.save == nil {
		return
	}
	// progress is still recorded when the run's context was cancelled
	if err := e.save(context.WithoutCancel(ctx), st); err != nil {
		e.log.Warn("Failed to persist run state", "error", err)
	}
}

func safeRun(ctx context.Context, def Stage, st *OrchestratorState) (outs map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage %q panic: %v", def.Name, r)
		}
	}()
	return def.Run(ctx, st)
}

func validateStages(stages []Stage) error {
	seen := map[string]bool{}
	for _, s := range stages {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return fmt.Errorf("stage with empty name")
		}
		if seen[name] {
			return fmt.Errorf("duplicate stage %q", name)
		}
		if s.Run == nil {
			return fmt.Errorf("stage %q has no Run", name)
		}
		seen[name] = true
	}
	return nil
}

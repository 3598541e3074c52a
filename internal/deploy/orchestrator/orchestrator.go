package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/court-deployer/internal/deploy/plan"
	"github.com/yungbote/court-deployer/internal/deploy/store"
	"github.com/yungbote/court-deployer/internal/domain/deploy"
	"github.com/yungbote/court-deployer/internal/pkg/logger"
)

type PendingPolicy string

const (
	// PendingRedeploy creates a fresh instance when an unrecorded creation left no code behind.
	PendingRedeploy PendingPolicy = "redeploy"
	// PendingHalt stops the run instead.
	PendingHalt PendingPolicy = "halt"
)

func ParsePendingPolicy(s string) (PendingPolicy, error) {
	switch PendingPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PendingRedeploy:
		return PendingRedeploy, nil
	case PendingHalt:
		return PendingHalt, nil
	default:
		return "", fmt.Errorf("unknown pending policy %q", s)
	}
}

type Options struct {
	// Caller is the account identity performing creations and controller calls.
	Caller             string
	ParallelDependents bool
	PendingPolicy      PendingPolicy
}

// Deps are the orchestrator's collaborators. Minter, Prober, Verifier and
// Recorder are optional.
type Deps struct {
	Log         *logger.Logger
	Store       store.Store
	Factory     ModuleFactory
	Controllers ControllerBinder
	Minter      TokenMinter
	Prober      CodeProber
	Verifier    Verifier
	Recorder    RunRecorder
}

type Orchestrator struct {
	log         *logger.Logger
	store       store.Store
	factory     ModuleFactory
	controllers ControllerBinder
	minter      TokenMinter
	prober      CodeProber
	verifier    Verifier
	recorder    RunRecorder
	opts        Options
}

func New(deps Deps, opts Options) (*Orchestrator, error) {
	if deps.Log == nil {
		return nil, fmt.Errorf("orchestrator: logger required")
	}
	if deps.Store == nil || deps.Factory == nil || deps.Controllers == nil {
		return nil, fmt.Errorf("orchestrator: store, factory and controller binder are required")
	}
	if strings.TrimSpace(opts.Caller) == "" {
		return nil, fmt.Errorf("orchestrator: caller identity required")
	}
	if opts.PendingPolicy == "" {
		opts.PendingPolicy = PendingRedeploy
	}
	rec := deps.Recorder
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Orchestrator{
		log:         deps.Log.With("service", "DeploymentOrchestrator", "network", deps.Store.Network()),
		store:       deps.Store,
		factory:     deps.Factory,
		controllers: deps.Controllers,
		minter:      deps.Minter,
		prober:      deps.Prober,
		verifier:    deps.Verifier,
		recorder:    rec,
		opts:        opts,
	}, nil
}

// Run drives the full deployment: Controller, dependents, wiring, governance
// handoff and verification. Re-running against the same store only performs
// the work that is still missing. The returned report is non-nil even on error.
func (o *Orchestrator) Run(ctx context.Context, p *plan.Plan) (*Report, error) {
	r, err := o.newRun(ctx, p, deploy.RunCommandDeploy)
	if err != nil {
		return r.report, err
	}
	stages := []Stage{
		{Name: StageResolveController, Run: r.resolveControllerStage},
		{Name: StageResolveDependents, Run: r.resolveDependentsStage},
		{Name: StageWireModules, Run: r.wireStage},
		{Name: StageHandoffGovernance, Run: r.handoffStage},
		{Name: StageVerify, Skip: func() bool { return o.verifier == nil }, Run: r.verifyStage},
	}
	return r.execute(ctx, stages)
}

// VerifyOnly runs the verification pass against a store that already holds
// every module.
func (o *Orchestrator) VerifyOnly(ctx context.Context, p *plan.Plan) (*Report, error) {
	r, err := o.newRun(ctx, p, deploy.RunCommandVerify)
	if err != nil {
		return r.report, err
	}
	if o.verifier == nil {
		return r.report, fmt.Errorf("no contract verifier is configured")
	}
	stages := []Stage{
		{Name: StageResolveRecorded, Run: r.resolveRecordedStage},
		{Name: StageVerify, Run: r.verifyStage},
	}
	return r.execute(ctx, stages)
}

// run carries the state of one invocation.
type run struct {
	o      *Orchestrator
	log    *logger.Logger
	plan   *plan.Plan
	id     uuid.UUID
	state  *OrchestratorState
	report *Report

	snapshot store.Snapshot

	mu         sync.Mutex
	resolved   map[deploy.ModuleKind]deploy.Handle
	mintMu     sync.Mutex
	controller Controller
}

func (o *Orchestrator) newRun(ctx context.Context, p *plan.Plan, command string) (*run, error) {
	r := &run{
		o:        o,
		plan:     p,
		id:       uuid.New(),
		state:    NewState(1),
		resolved: map[deploy.ModuleKind]deploy.Handle{},
	}
	r.log = o.log.With("run_id", r.id.String(), "command", command)
	r.report = &Report{
		RunID:               r.id.String(),
		Network:             o.store.Network(),
		Command:             command,
		Caller:              o.opts.Caller,
		StartedAt:           time.Now().UTC(),
		VerificationEnabled: o.verifier != nil,
	}
	if p == nil {
		return r, fmt.Errorf("orchestrator: plan required")
	}
	if !strings.EqualFold(strings.TrimSpace(p.Network), o.store.Network()) {
		return r, fmt.Errorf("plan network %q does not match store network %q", p.Network, o.store.Network())
	}
	snap, err := o.store.Load(ctx)
	if err != nil {
		return r, fmt.Errorf("load deployment store: %w", err)
	}
	r.snapshot = snap
	return r, nil
}

func (r *run) execute(ctx context.Context, stages []Stage) (*Report, error) {
	row := &deploy.DeploymentRun{
		ID:        r.id,
		Network:   r.report.Network,
		Command:   r.report.Command,
		Caller:    r.o.opts.Caller,
		Status:    deploy.RunStatusRunning,
		StartedAt: r.report.StartedAt,
	}
	if err := r.o.recorder.Begin(ctx, row); err != nil {
		r.log.Warn("Failed to open run ledger entry", "error", err)
	}

	engine := NewEngine(r.log, func(ctx context.Context, st *OrchestratorState) error {
		return r.o.recorder.SaveState(ctx, r.id, st)
	})
	err := engine.Run(ctx, r.state, stages)

	r.report.sortModules()
	r.report.FinishedAt = time.Now().UTC()
	if err != nil {
		r.report.FailedStage = r.state.Current
		r.report.Error = err.Error()
	}
	if ferr := r.o.recorder.Finish(context.WithoutCancel(ctx), r.id, r.report, err); ferr != nil {
		r.log.Warn("Failed to close run ledger entry", "error", ferr)
	}
	if err != nil {
		return r.report, err
	}
	r.log.Info("Run complete",
		"deployed", r.report.CountOutcome(OutcomeDeployed),
		"loaded", r.report.CountOutcome(OutcomeLoaded),
		"adopted", r.report.CountOutcome(OutcomeAdopted),
		"wiring", r.report.Wiring,
		"handoff", r.report.Handoff,
	)
	return r.report, nil
}

func (r *run) handle(kind deploy.ModuleKind) (deploy.Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.resolved[kind]
	return h, ok
}

func (r *run) setHandle(h deploy.Handle, outcome ModuleOutcome) {
	r.mu.Lock()
	r.resolved[h.Kind] = h
	r.mu.Unlock()
	r.report.setModule(h, outcome)
}

func (o *Orchestrator) tracer() trace.Tracer { return otel.Tracer(tracerName) }

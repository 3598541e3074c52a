package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/court-deployer/internal/chain"
	"github.com/yungbote/court-deployer/internal/deploy/orchestrator"
	"github.com/yungbote/court-deployer/internal/deploy/plan"
	"github.com/yungbote/court-deployer/internal/domain/deploy"
	"github.com/yungbote/court-deployer/internal/temporalx/deployrun"
)

// RunOptions override the environment's orchestrator options for one run.
type RunOptions struct {
	ParallelDependents bool
	PendingPolicy      string
}

func (a *App) DefaultRunOptions() RunOptions {
	return RunOptions{ParallelDependents: a.Cfg.ParallelDependents, PendingPolicy: a.Cfg.PendingPolicy}
}

func (a *App) Orchestrator(ctx context.Context, network string, opts RunOptions) (*orchestrator.Orchestrator, error) {
	policy, err := orchestrator.ParsePendingPolicy(opts.PendingPolicy)
	if err != nil {
		return nil, err
	}
	s, err := a.backend.open(network)
	if err != nil {
		return nil, err
	}
	d, f, v, err := a.chain(ctx)
	if err != nil {
		return nil, err
	}
	deps := orchestrator.Deps{
		Log:         a.Log,
		Store:       s,
		Factory:     f,
		Controllers: chain.NewControllerBinder(d),
		Minter:      chain.NewTokenMinter(f, a.Cfg.Chain.TestTokenArtifact),
		Prober:      f,
		Verifier:    v,
	}
	if runs := a.backend.runs; runs != nil {
		deps.Recorder = orchestrator.NewLedger(runs)
	}
	return orchestrator.New(deps, orchestrator.Options{
		Caller:             d.Address().Hex(),
		ParallelDependents: opts.ParallelDependents,
		PendingPolicy:      policy,
	})
}

// RunPlan executes a deploy or verify command. The report is non-nil whenever
// the orchestrator started.
func (a *App) RunPlan(ctx context.Context, p *plan.Plan, command string, opts RunOptions) (*orchestrator.Report, error) {
	o, err := a.Orchestrator(ctx, p.Network, opts)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(strings.TrimSpace(command)) {
	case deploy.RunCommandDeploy, "":
		return o.Run(ctx, p)
	case deploy.RunCommandVerify:
		return o.VerifyOnly(ctx, p)
	default:
		return nil, fmt.Errorf("unknown command %q", command)
	}
}

// Execute serves deployment workflows submitted through Temporal.
func (a *App) Execute(ctx context.Context, in deployrun.Input) (*orchestrator.Report, error) {
	p, err := plan.Parse([]byte(in.PlanYAML), in.Network)
	if err != nil {
		return nil, err
	}
	opts := a.DefaultRunOptions()
	opts.ParallelDependents = opts.ParallelDependents || in.ParallelDependents
	if strings.TrimSpace(in.PendingPolicy) != "" {
		opts.PendingPolicy = in.PendingPolicy
	}
	a.Log.Info("Running submitted deployment", "network", p.Network, "command", in.Command)
	return a.RunPlan(ctx, p, in.Command, opts)
}

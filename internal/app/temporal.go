package app

import (
	"context"
	"fmt"

	"github.com/yungbote/court-deployer/internal/temporalx"
	"github.com/yungbote/court-deployer/internal/temporalx/deployrun"
	"github.com/yungbote/court-deployer/internal/temporalx/temporalworker"
)

// Worker polls the deployment task queue until ctx is cancelled.
func (a *App) Worker(ctx context.Context) error {
	tc, err := temporalx.NewClient(ctx, a.Log, a.Cfg.Temporal)
	if err != nil {
		return err
	}
	defer tc.Close()

	r, err := temporalworker.NewRunner(a.Log, a.Cfg.Temporal, tc, a)
	if err != nil {
		return err
	}
	if err := r.Start(ctx); err != nil {
		return fmt.Errorf("start temporal worker: %w", err)
	}
	<-ctx.Done()
	return nil
}

// Submit starts a deployment workflow and optionally waits for its result.
func (a *App) Submit(ctx context.Context, in deployrun.Input, wait bool) (deployrun.Result, string, error) {
	tc, err := temporalx.NewClient(ctx, a.Log, a.Cfg.Temporal)
	if err != nil {
		return deployrun.Result{}, "", err
	}
	defer tc.Close()

	run, err := deployrun.Submit(ctx, tc, a.Cfg.Temporal.TaskQueue, in)
	if err != nil {
		return deployrun.Result{}, "", fmt.Errorf("submit deployment: %w", err)
	}
	a.Log.Info("Submitted deployment workflow", "workflow_id", run.GetID(), "run_id", run.GetRunID(), "network", in.Network)
	if !wait {
		return deployrun.Result{Network: in.Network, Command: in.Command}, run.GetID(), nil
	}
	var res deployrun.Result
	err = run.Get(ctx, &res)
	return res, run.GetID(), err
}

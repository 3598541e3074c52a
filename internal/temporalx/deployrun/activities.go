package deployrun

import (
	"context"
	"fmt"
	"time"

	"go.temporal.io/sdk/activity"

	"github.com/yungbote/court-deployer/internal/deploy/orchestrator"
	"github.com/yungbote/court-deployer/internal/pkg/logger"
)

// Runner executes a deployment command for a plan document.
type Runner interface {
	Execute(ctx context.Context, in Input) (*orchestrator.Report, error)
}

type Activities struct {
	Log    *logger.Logger
	Runner Runner

	HeartbeatEvery time.Duration
}

// Run executes the deployment and folds any orchestrator failure into the
// result, so the workflow sees the failed stage rather than a bare error.
func (a *Activities) Run(ctx context.Context, in Input) (Result, error) {
	if a == nil || a.Runner == nil {
		return Result{}, fmt.Errorf("deployrun: activity not configured")
	}
	stop := a.startHeartbeat(ctx)
	defer stop()

	rep, err := a.Runner.Execute(ctx, in)
	res := ResultFromReport(rep, err)
	if res.Network == "" {
		res.Network = in.Network
	}
	if res.Command == "" {
		res.Command = in.Command
	}
	if err != nil && a.Log != nil {
		a.Log.Warn("Deployment run failed", "network", in.Network, "command", in.Command, "stage", res.FailedStage, "error", err)
	}
	return res, nil
}

func (a *Activities) startHeartbeat(ctx context.Context) func() {
	every := a.HeartbeatEvery
	if every <= 0 {
		every = 10 * time.Second
	}
	done := make(chan struct{})
	go func() {
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-t.C:
				activity.RecordHeartbeat(ctx)
			}
		}
	}()
	return func() { close(done) }
}

package deployrun

import (
	"fmt"
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// Workflow runs one deployment attempt. The orchestrator never retries a
// failed operation, so neither does the activity; resuming is a new submission.
func Workflow(ctx workflow.Context, in Input) (Result, error) {
	if strings.TrimSpace(in.Network) == "" {
		return Result{}, fmt.Errorf("deployrun: missing network")
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Hour,
		HeartbeatTimeout:    time.Minute,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})

	var res Result
	if err := workflow.ExecuteActivity(ctx, ActivityRun, in).Get(ctx, &res); err != nil {
		return res, err
	}
	if res.Error != "" {
		return res, fmt.Errorf("deployment failed (stage=%s): %s", res.FailedStage, res.Error)
	}
	return res, nil
}

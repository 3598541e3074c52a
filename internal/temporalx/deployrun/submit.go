package deployrun

import (
	"context"
	"fmt"
	"strings"

	enums "go.temporal.io/api/enums/v1"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
)

func WorkflowID(network string) string {
	return "courtdeploy-" + strings.ToLower(strings.TrimSpace(network))
}

// Submit starts a deployment workflow. Only one run per network may be open;
// a second submission while one is running fails.
func Submit(ctx context.Context, c temporalsdkclient.Client, taskQueue string, in Input) (temporalsdkclient.WorkflowRun, error) {
	if c == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	if strings.TrimSpace(in.Network) == "" {
		return nil, fmt.Errorf("network required")
	}
	tq := strings.TrimSpace(taskQueue)
	if tq == "" {
		tq = "courtdeploy"
	}
	opts := temporalsdkclient.StartWorkflowOptions{
		ID:                       WorkflowID(in.Network),
		TaskQueue:                tq,
		WorkflowIDReusePolicy:    enums.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
		WorkflowIDConflictPolicy: enums.WORKFLOW_ID_CONFLICT_POLICY_FAIL,
		RetryPolicy:              &temporal.RetryPolicy{MaximumAttempts: 1},
	}
	return c.ExecuteWorkflow(ctx, opts, WorkflowName, in)
}

package deployrun

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"
	"go.temporal.io/sdk/workflow"

	"github.com/yungbote/court-deployer/internal/deploy/orchestrator"
	"github.com/yungbote/court-deployer/internal/domain/deploy"
	"github.com/yungbote/court-deployer/internal/pkg/logger"
)

type fakeRunner struct {
	rep   *orchestrator.Report
	err   error
	calls int
	last  Input
}

func (f *fakeRunner) Execute(ctx context.Context, in Input) (*orchestrator.Report, error) {
	f.calls++
	f.last = in
	return f.rep, f.err
}

func newEnv(t *testing.T, runner Runner) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var s testsuite.WorkflowTestSuite
	env := s.NewTestWorkflowEnvironment()
	acts := &Activities{Log: logger.NewNop(), Runner: runner}
	env.RegisterWorkflowWithOptions(Workflow, workflow.RegisterOptions{Name: WorkflowName})
	env.RegisterActivityWithOptions(acts.Run, activity.RegisterOptions{Name: ActivityRun})
	return env
}

func TestWorkflowReturnsSummary(t *testing.T) {
	runner := &fakeRunner{rep: &orchestrator.Report{
		RunID:   "run-1",
		Network: "staging",
		Command: deploy.RunCommandDeploy,
		Modules: []orchestrator.ModuleReport{
			{Kind: deploy.KindController, Outcome: orchestrator.OutcomeLoaded},
			{Kind: deploy.KindRegistry, Outcome: orchestrator.OutcomeDeployed},
			{Kind: deploy.KindVoting, Outcome: orchestrator.OutcomeAdopted},
		},
		Wiring:  orchestrator.StepApplied,
		Handoff: orchestrator.StepAlreadySatisfied,
	}}
	env := newEnv(t, runner)
	env.ExecuteWorkflow(WorkflowName, Input{Network: "staging", Command: deploy.RunCommandDeploy, PlanYAML: "network: staging"})

	if !env.IsWorkflowCompleted() {
		t.Fatalf("workflow did not complete")
	}
	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("workflow error: %v", err)
	}
	var res Result
	if err := env.GetWorkflowResult(&res); err != nil {
		t.Fatalf("result: %v", err)
	}
	if res.RunID != "run-1" || res.Loaded != 1 || res.Deployed != 1 || res.Adopted != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Wiring != "applied" || res.Handoff != "already_satisfied" {
		t.Fatalf("authority steps: got wiring=%s handoff=%s", res.Wiring, res.Handoff)
	}
	if runner.last.PlanYAML != "network: staging" {
		t.Fatalf("plan: want=%q got=%q", "network: staging", runner.last.PlanYAML)
	}
}

func TestWorkflowFailsWithoutRetry(t *testing.T) {
	runner := &fakeRunner{
		rep: &orchestrator.Report{Network: "staging", Command: deploy.RunCommandDeploy, FailedStage: "wire_modules", Error: "boom"},
		err: errors.New("boom"),
	}
	env := newEnv(t, runner)
	env.ExecuteWorkflow(WorkflowName, Input{Network: "staging", Command: deploy.RunCommandDeploy})

	err := env.GetWorkflowError()
	if err == nil {
		t.Fatalf("expected workflow error")
	}
	if !strings.Contains(err.Error(), "wire_modules") {
		t.Fatalf("error should name the failed stage: %v", err)
	}
	if runner.calls != 1 {
		t.Fatalf("calls: want=1 got=%d", runner.calls)
	}
}

func TestWorkflowRequiresNetwork(t *testing.T) {
	runner := &fakeRunner{}
	env := newEnv(t, runner)
	env.ExecuteWorkflow(WorkflowName, Input{})
	if env.GetWorkflowError() == nil {
		t.Fatalf("expected error for missing network")
	}
	if runner.calls != 0 {
		t.Fatalf("runner should not run: calls=%d", runner.calls)
	}
}

func TestWorkflowID(t *testing.T) {
	if got := WorkflowID(" Mainnet "); got != "courtdeploy-mainnet" {
		t.Fatalf("id: want=courtdeploy-mainnet got=%s", got)
	}
}

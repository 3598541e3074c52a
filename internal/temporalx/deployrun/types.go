package deployrun

import (
	"github.com/yungbote/court-deployer/internal/deploy/orchestrator"
)

const (
	WorkflowName = "courtdeploy.DeployRun"
	ActivityRun  = "courtdeploy.RunDeployment"
)

// Input carries the plan document itself so a worker never depends on the
// submitter's filesystem.
type Input struct {
	Network            string `json:"network"`
	PlanYAML           string `json:"plan_yaml"`
	Command            string `json:"command"`
	ParallelDependents bool   `json:"parallel_dependents,omitempty"`
	PendingPolicy      string `json:"pending_policy,omitempty"`
}

type Result struct {
	RunID        string `json:"run_id,omitempty"`
	Network      string `json:"network"`
	Command      string `json:"command"`
	Deployed     int    `json:"deployed"`
	Adopted      int    `json:"adopted"`
	Loaded       int    `json:"loaded"`
	MintedTokens int    `json:"minted_tokens"`
	Wiring       string `json:"wiring,omitempty"`
	Handoff      string `json:"handoff,omitempty"`
	FailedStage  string `json:"failed_stage,omitempty"`
	Error        string `json:"error,omitempty"`
}

func ResultFromReport(rep *orchestrator.Report, runErr error) Result {
	var res Result
	if rep != nil {
		res = Result{
			RunID:        rep.RunID,
			Network:      rep.Network,
			Command:      rep.Command,
			Deployed:     rep.CountOutcome(orchestrator.OutcomeDeployed),
			Adopted:      rep.CountOutcome(orchestrator.OutcomeAdopted),
			Loaded:       rep.CountOutcome(orchestrator.OutcomeLoaded),
			MintedTokens: len(rep.MintedTokens),
			Wiring:       string(rep.Wiring),
			Handoff:      string(rep.Handoff),
			FailedStage:  rep.FailedStage,
			Error:        rep.Error,
		}
	}
	if runErr != nil && res.Error == "" {
		res.Error = runErr.Error()
	}
	return res
}

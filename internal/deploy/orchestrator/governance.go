package orchestrator

import "github.com/yungbote/court-deployer/internal/domain/deploy"

type Action string

const (
	ActionApply            Action = "apply"
	ActionAlreadySatisfied Action = "already_satisfied"
	ActionUnauthorized     Action = "unauthorized"
)

// Decide resolves what an authority-gated step may do given the controller's
// current modules governor. The caller's match wins over the target's, so a
// caller that is also the target still performs the step.
func Decide(current, caller, target string) Action {
	switch {
	case deploy.SameAddress(current, caller):
		return ActionApply
	case deploy.SameAddress(current, target):
		return ActionAlreadySatisfied
	default:
		return ActionUnauthorized
	}
}

func (a Action) outcome() StepOutcome {
	switch a {
	case ActionApply:
		return StepApplied
	case ActionAlreadySatisfied:
		return StepAlreadySatisfied
	default:
		return StepUnauthorized
	}
}

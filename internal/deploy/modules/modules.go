package modules

import (
	"fmt"
	"strings"

	"github.com/yungbote/court-deployer/internal/deploy/plan"
	"github.com/yungbote/court-deployer/internal/domain/deploy"
)

// ArgsInput is everything a constructor builder may read.
type ArgsInput struct {
	Plan   *plan.Plan
	Caller string
	// Deps maps each resolved prerequisite to its address.
	Deps map[deploy.ModuleKind]string
}

// Descriptor is the static description of one module kind.
//
// Args returns constructor arguments as plain values: *big.Int for numbers,
// hex strings for addresses and []any for fixed arrays. The chain layer
// coerces them against the artifact ABI.
type Descriptor struct {
	Kind         deploy.ModuleKind
	Artifact     string
	Dependencies []deploy.ModuleKind

	Tokens  func(p *plan.Plan) []*plan.Token
	Args    func(in ArgsInput) ([]any, error)
	Summary func(in ArgsInput) []any
}

// ArtifactName honours per-kind overrides in the plan.
func (d Descriptor) ArtifactName(p *plan.Plan) string {
	if p != nil {
		if v := strings.TrimSpace(p.Artifacts[string(d.Kind)]); v != "" {
			return v
		}
	}
	return d.Artifact
}

var registry = map[deploy.ModuleKind]Descriptor{
	deploy.KindController: {
		Kind:     deploy.KindController,
		Artifact: "AragonCourt",
		Tokens: func(p *plan.Plan) []*plan.Token {
			return []*plan.Token{p.Court.FeeToken}
		},
		Args:    controllerArgs,
		Summary: controllerSummary,
	},
	deploy.KindDisputeManager: {
		Kind:         deploy.KindDisputeManager,
		Artifact:     "DisputeManager",
		Dependencies: []deploy.ModuleKind{deploy.KindController},
		Args: func(in ArgsInput) ([]any, error) {
			controller, err := dep(in, deploy.KindController)
			if err != nil {
				return nil, err
			}
			c := in.Plan.Court
			return []any{controller, c.MaxJurorsPerDraftBatch.Big(), c.SkippedDisputes.Big()}, nil
		},
		Summary: func(in ArgsInput) []any {
			return []any{
				"controller", in.Deps[deploy.KindController],
				"max_jurors_per_draft_batch", in.Plan.Court.MaxJurorsPerDraftBatch.String(),
				"skipped_disputes", in.Plan.Court.SkippedDisputes.String(),
			}
		},
	},
	deploy.KindRegistry: {
		Kind:         deploy.KindRegistry,
		Artifact:     "JurorsRegistry",
		Dependencies: []deploy.ModuleKind{deploy.KindController},
		Tokens: func(p *plan.Plan) []*plan.Token {
			return []*plan.Token{p.Jurors.Token}
		},
		Args: func(in ArgsInput) ([]any, error) {
			controller, err := dep(in, deploy.KindController)
			if err != nil {
				return nil, err
			}
			tok := in.Plan.Jurors.Token
			if tok.Missing() {
				return nil, fmt.Errorf("jurors token has no address")
			}
			return []any{controller, tok.Address, in.Plan.TotalActiveBalanceLimit()}, nil
		},
		Summary: func(in ArgsInput) []any {
			tok := in.Plan.Jurors.Token
			return []any{
				"controller", in.Deps[deploy.KindController],
				"jurors_token", tok.Symbol + " at " + tok.Address,
				"min_active_balance", tok.Format(in.Plan.Jurors.MinActiveBalance),
				"total_active_balance_limit", tok.Format(plan.AmountFromBig(in.Plan.TotalActiveBalanceLimit())),
			}
		},
	},
	deploy.KindVoting: {
		Kind:         deploy.KindVoting,
		Artifact:     "CRVoting",
		Dependencies: []deploy.ModuleKind{deploy.KindController},
		Args:         controllerOnly,
		Summary:      controllerOnlySummary,
	},
	deploy.KindTreasury: {
		Kind:         deploy.KindTreasury,
		Artifact:     "CourtTreasury",
		Dependencies: []deploy.ModuleKind{deploy.KindController},
		Args:         controllerOnly,
		Summary:      controllerOnlySummary,
	},
	deploy.KindSubscriptions: {
		Kind:         deploy.KindSubscriptions,
		Artifact:     "CourtSubscriptions",
		Dependencies: []deploy.ModuleKind{deploy.KindController},
		Tokens: func(p *plan.Plan) []*plan.Token {
			return []*plan.Token{p.Subscriptions.FeeToken}
		},
		Args:    subscriptionsArgs,
		Summary: subscriptionsSummary,
	},
}

func Lookup(kind deploy.ModuleKind) (Descriptor, bool) {
	d, ok := registry[kind]
	return d, ok
}

func MustLookup(kind deploy.ModuleKind) Descriptor {
	d, ok := registry[kind]
	if !ok {
		panic("modules: no descriptor for " + string(kind))
	}
	return d
}

func dep(in ArgsInput, kind deploy.ModuleKind) (string, error) {
	addr := strings.TrimSpace(in.Deps[kind])
	if addr == "" {
		return "", fmt.Errorf("missing %s address", kind)
	}
	return addr, nil
}

func controllerOnly(in ArgsInput) ([]any, error) {
	controller, err := dep(in, deploy.KindController)
	if err != nil {
		return nil, err
	}
	return []any{controller}, nil
}

func controllerOnlySummary(in ArgsInput) []any {
	return []any{"controller", in.Deps[deploy.KindController]}
}

func controllerArgs(in ArgsInput) ([]any, error) {
	p := in.Plan
	if p.Court.FeeToken.Missing() {
		return nil, fmt.Errorf("court fee token has no address")
	}
	if strings.TrimSpace(in.Caller) == "" {
		return nil, fmt.Errorf("caller identity is required to build the controller")
	}
	c := p.Court
	return []any{
		[]any{p.Clock.TermDuration.Big(), p.Clock.FirstTermStartTime.Big()},
		// the caller holds the modules role until governance handoff
		[]any{p.Governor.Funds.Address, p.Governor.Config.Address, in.Caller},
		c.FeeToken.Address,
		[]any{c.JurorFee.Big(), c.DraftFee.Big(), c.SettleFee.Big()},
		[]any{c.EvidenceTerms.Big(), c.CommitTerms.Big(), c.RevealTerms.Big(), c.AppealTerms.Big(), c.AppealConfirmTerms.Big()},
		[]any{c.PenaltyPct.Big(), c.FinalRoundReduction.Big()},
		[]any{c.FirstRoundJurorsNumber.Big(), c.AppealStepFactor.Big(), c.MaxRegularAppealRounds.Big(), c.FinalRoundLockTerms.Big()},
		[]any{c.AppealCollateralFactor.Big(), c.AppealConfirmCollateralFactor.Big()},
		p.Jurors.MinActiveBalance.Big(),
	}, nil
}

func controllerSummary(in ArgsInput) []any {
	p := in.Plan
	c := p.Court
	return []any{
		"funds_governor", p.Governor.Funds.Describe(),
		"config_governor", p.Governor.Config.Describe(),
		"modules_governor", p.Governor.Modules.Describe() + " (initially caller)",
		"term_duration_seconds", p.Clock.TermDuration.String(),
		"first_term_start_time", p.Clock.FirstTermStartTime.String(),
		"fee_token", c.FeeToken.Symbol + " at " + c.FeeToken.Address,
		"juror_fee", c.FeeToken.Format(c.JurorFee),
		"draft_fee", c.FeeToken.Format(c.DraftFee),
		"settle_fee", c.FeeToken.Format(c.SettleFee),
		"round_terms", []string{c.EvidenceTerms.String(), c.CommitTerms.String(), c.RevealTerms.String(), c.AppealTerms.String(), c.AppealConfirmTerms.String()},
		"penalty_permyriad", c.PenaltyPct.String(),
		"final_round_reduction_permyriad", c.FinalRoundReduction.String(),
		"first_round_jurors", c.FirstRoundJurorsNumber.String(),
		"appeal_step_factor", c.AppealStepFactor.String(),
		"max_regular_appeal_rounds", c.MaxRegularAppealRounds.String(),
		"final_round_lock_terms", c.FinalRoundLockTerms.String(),
		"appeal_collateral_factor", c.AppealCollateralFactor.String(),
		"appeal_confirm_collateral_factor", c.AppealConfirmCollateralFactor.String(),
		"min_active_balance", p.Jurors.Token.Format(p.Jurors.MinActiveBalance),
	}
}

func subscriptionsArgs(in ArgsInput) ([]any, error) {
	controller, err := dep(in, deploy.KindController)
	if err != nil {
		return nil, err
	}
	s := in.Plan.Subscriptions
	if s.FeeToken.Missing() {
		return nil, fmt.Errorf("subscriptions fee token has no address")
	}
	return []any{
		controller,
		s.PeriodDuration.Big(),
		s.FeeToken.Address,
		s.FeeAmount.Big(),
		s.PrePaymentPeriods.Big(),
		s.ResumePrePaidPeriods.Big(),
		s.LatePaymentPenaltyPct.Big(),
		s.GovernorSharePct.Big(),
	}, nil
}

func subscriptionsSummary(in ArgsInput) []any {
	s := in.Plan.Subscriptions
	return []any{
		"controller", in.Deps[deploy.KindController],
		"period_duration_terms", s.PeriodDuration.String(),
		"fee_token", s.FeeToken.Symbol + " at " + s.FeeToken.Address,
		"fee_amount", s.FeeToken.Format(s.FeeAmount),
		"pre_payment_periods", s.PrePaymentPeriods.String(),
		"resume_pre_paid_periods", s.ResumePrePaidPeriods.String(),
		"late_payment_penalty_permyriad", s.LatePaymentPenaltyPct.String(),
		"governor_share_permyriad", s.GovernorSharePct.String(),
	}
}

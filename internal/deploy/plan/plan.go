package plan

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const DefaultSourcePackage = "@aragon/court"

var DefaultVerificationHeaders = []string{
	"Commit sha: c7bf36f004a2b0e11d7e14234cea7853fd3a523a",
	"GitHub repository: https://github.com/aragon/aragon-court",
	"Tool used for the deploy: https://github.com/aragon/aragon-network-deploy",
}

// Plan is the operator-supplied description of one network's court deployment.
// It is read-only during a run except for token addresses filled in when a
// test token is minted.
type Plan struct {
	Network       string            `yaml:"network" json:"network"`
	Clock         Clock             `yaml:"clock" json:"clock"`
	Governor      Governor          `yaml:"governor" json:"governor"`
	Court         Court             `yaml:"court" json:"court"`
	Jurors        Jurors            `yaml:"jurors" json:"jurors"`
	Subscriptions Subscriptions     `yaml:"subscriptions" json:"subscriptions"`
	Artifacts     map[string]string `yaml:"artifacts,omitempty" json:"artifacts,omitempty"`
	Verification  Verification      `yaml:"verification" json:"verification"`
}

type Identity struct {
	Address     string `yaml:"address" json:"address"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

func (i Identity) Describe() string {
	if strings.TrimSpace(i.Description) == "" {
		return i.Address
	}
	return fmt.Sprintf("%s (%s)", i.Description, i.Address)
}

type Token struct {
	Symbol   string `yaml:"symbol" json:"symbol"`
	Name     string `yaml:"name,omitempty" json:"name,omitempty"`
	Decimals uint8  `yaml:"decimals" json:"decimals"`
	Address  string `yaml:"address,omitempty" json:"address,omitempty"`
}

func (t *Token) Missing() bool { return t == nil || strings.TrimSpace(t.Address) == "" }

// Format renders an amount of this token, e.g. "10 ANJ".
func (t *Token) Format(a Amount) string {
	if t == nil {
		return a.String()
	}
	return strings.TrimSpace(FormatUnits(a.Big(), t.Decimals) + " " + t.Symbol)
}

type Clock struct {
	TermDuration       Amount `yaml:"term_duration" json:"term_duration"`
	FirstTermStartTime Amount `yaml:"first_term_start_time" json:"first_term_start_time"`
}

type Governor struct {
	Funds   Identity `yaml:"funds" json:"funds"`
	Config  Identity `yaml:"config" json:"config"`
	Modules Identity `yaml:"modules" json:"modules"`
}

type Court struct {
	FeeToken *Token `yaml:"fee_token" json:"fee_token"`

	JurorFee  Amount `yaml:"juror_fee" json:"juror_fee"`
	DraftFee  Amount `yaml:"draft_fee" json:"draft_fee"`
	SettleFee Amount `yaml:"settle_fee" json:"settle_fee"`

	EvidenceTerms      Amount `yaml:"evidence_terms" json:"evidence_terms"`
	CommitTerms        Amount `yaml:"commit_terms" json:"commit_terms"`
	RevealTerms        Amount `yaml:"reveal_terms" json:"reveal_terms"`
	AppealTerms        Amount `yaml:"appeal_terms" json:"appeal_terms"`
	AppealConfirmTerms Amount `yaml:"appeal_confirm_terms" json:"appeal_confirm_terms"`

	// permyriad values
	PenaltyPct          Amount `yaml:"penalty_pct" json:"penalty_pct"`
	FinalRoundReduction Amount `yaml:"final_round_reduction" json:"final_round_reduction"`

	FirstRoundJurorsNumber Amount `yaml:"first_round_jurors_number" json:"first_round_jurors_number"`
	AppealStepFactor       Amount `yaml:"appeal_step_factor" json:"appeal_step_factor"`
	MaxRegularAppealRounds Amount `yaml:"max_regular_appeal_rounds" json:"max_regular_appeal_rounds"`
	FinalRoundLockTerms    Amount `yaml:"final_round_lock_terms" json:"final_round_lock_terms"`

	AppealCollateralFactor        Amount `yaml:"appeal_collateral_factor" json:"appeal_collateral_factor"`
	AppealConfirmCollateralFactor Amount `yaml:"appeal_confirm_collateral_factor" json:"appeal_confirm_collateral_factor"`

	FinalRoundWeightPrecision Amount `yaml:"final_round_weight_precision" json:"final_round_weight_precision"`
	MaxJurorsPerDraftBatch    Amount `yaml:"max_jurors_per_draft_batch" json:"max_jurors_per_draft_batch"`
	SkippedDisputes           Amount `yaml:"skipped_disputes" json:"skipped_disputes"`
}

type Jurors struct {
	Token            *Token `yaml:"token" json:"token"`
	MinActiveBalance Amount `yaml:"min_active_balance" json:"min_active_balance"`
}

type Subscriptions struct {
	FeeToken              *Token `yaml:"fee_token" json:"fee_token"`
	PeriodDuration        Amount `yaml:"period_duration" json:"period_duration"`
	FeeAmount             Amount `yaml:"fee_amount" json:"fee_amount"`
	PrePaymentPeriods     Amount `yaml:"pre_payment_periods" json:"pre_payment_periods"`
	ResumePrePaidPeriods  Amount `yaml:"resume_pre_paid_periods" json:"resume_pre_paid_periods"`
	LatePaymentPenaltyPct Amount `yaml:"late_payment_penalty_pct" json:"late_payment_penalty_pct"`
	GovernorSharePct      Amount `yaml:"governor_share_pct" json:"governor_share_pct"`
}

type Verification struct {
	SourcePackage string   `yaml:"source_package,omitempty" json:"source_package,omitempty"`
	Headers       []string `yaml:"headers,omitempty" json:"headers,omitempty"`
}

// TotalActiveBalanceLimit is minActiveBalance * (MaxUint64 / finalRoundWeightPrecision).
func (p *Plan) TotalActiveBalanceLimit() *big.Int {
	precision := p.Court.FinalRoundWeightPrecision.Big()
	if precision.Sign() == 0 {
		return new(big.Int)
	}
	maxUint64 := new(big.Int).SetUint64(math.MaxUint64)
	ratio := new(big.Int).Quo(maxUint64, precision)
	return ratio.Mul(ratio, p.Jurors.MinActiveBalance.Big())
}

func (p *Plan) applyDefaults() {
	if strings.TrimSpace(p.Verification.SourcePackage) == "" {
		p.Verification.SourcePackage = DefaultSourcePackage
	}
	if len(p.Verification.Headers) == 0 {
		p.Verification.Headers = append([]string(nil), DefaultVerificationHeaders...)
	}
	for _, t := range []*Token{p.Court.FeeToken, p.Jurors.Token, p.Subscriptions.FeeToken} {
		if t != nil && t.Decimals == 0 {
			t.Decimals = 18
		}
	}
}

// Validate checks the plan is complete enough to build every constructor.
func (p *Plan) Validate() error {
	var errs []string
	add := func(format string, args ...any) { errs = append(errs, fmt.Sprintf(format, args...)) }

	if strings.TrimSpace(p.Network) == "" {
		add("network is required")
	}
	for name, id := range map[string]Identity{
		"governor.funds":   p.Governor.Funds,
		"governor.config":  p.Governor.Config,
		"governor.modules": p.Governor.Modules,
	} {
		if !common.IsHexAddress(id.Address) {
			add("%s.address %q is not a valid address", name, id.Address)
		}
	}
	for name, tok := range map[string]*Token{
		"court.fee_token":         p.Court.FeeToken,
		"jurors.token":            p.Jurors.Token,
		"subscriptions.fee_token": p.Subscriptions.FeeToken,
	} {
		if tok == nil {
			add("%s is required", name)
			continue
		}
		if !tok.Missing() && !common.IsHexAddress(tok.Address) {
			add("%s.address %q is not a valid address", name, tok.Address)
		}
		if tok.Missing() && strings.TrimSpace(tok.Symbol) == "" {
			add("%s needs a symbol to mint a test token", name)
		}
	}
	if p.Clock.TermDuration.IsZero() {
		add("clock.term_duration must be positive")
	}
	if p.Court.FinalRoundWeightPrecision.IsZero() {
		add("court.final_round_weight_precision must be positive")
	}
	if p.Court.MaxJurorsPerDraftBatch.IsZero() {
		add("court.max_jurors_per_draft_batch must be positive")
	}
	if p.Subscriptions.PeriodDuration.IsZero() {
		add("subscriptions.period_duration must be positive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid plan: %s", strings.Join(errs, "; "))
	}
	return nil
}

package orchestrator

import (
	"sort"
	"sync"
	"time"

	"github.com/yungbote/court-deployer/internal/domain/deploy"
)

type ModuleOutcome string

const (
	OutcomeLoaded   ModuleOutcome = "loaded"
	OutcomeDeployed ModuleOutcome = "deployed"
	OutcomeAdopted  ModuleOutcome = "adopted"
)

type StepOutcome string

const (
	StepApplied          StepOutcome = "applied"
	StepAlreadySatisfied StepOutcome = "already_satisfied"
	StepUnauthorized     StepOutcome = "unauthorized"
)

type ModuleReport struct {
	Kind            deploy.ModuleKind `json:"kind"`
	Artifact        string            `json:"artifact"`
	Outcome         ModuleOutcome     `json:"outcome"`
	Address         string            `json:"address"`
	CreationRef     string            `json:"creation_ref,omitempty"`
	Verification    StepOutcome       `json:"verification,omitempty"`
	VerificationRef string            `json:"verification_ref,omitempty"`
}

type MintedToken struct {
	Symbol  string            `json:"symbol"`
	Address string            `json:"address"`
	For     deploy.ModuleKind `json:"for"`
}

// Report summarises one run for operators.
type Report struct {
	RunID      string    `json:"run_id,omitempty"`
	Network    string    `json:"network"`
	Command    string    `json:"command"`
	Caller     string    `json:"caller"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Modules []ModuleReport `json:"modules"`

	Wiring              StepOutcome   `json:"wiring,omitempty"`
	Handoff             StepOutcome   `json:"handoff,omitempty"`
	VerificationEnabled bool          `json:"verification_enabled"`
	MintedTokens        []MintedToken `json:"minted_tokens,omitempty"`

	FailedStage string `json:"failed_stage,omitempty"`
	Error       string `json:"error,omitempty"`

	mu sync.Mutex
}

func (r *Report) Module(kind deploy.ModuleKind) (ModuleReport, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.Modules {
		if m.Kind == kind {
			return m, true
		}
	}
	return ModuleReport{}, false
}

// CountOutcome counts modules resolved with the given outcome.
func (r *Report) CountOutcome(o ModuleOutcome) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.Modules {
		if m.Outcome == o {
			n++
		}
	}
	return n
}

func (r *Report) setModule(h deploy.Handle, outcome ModuleOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := ModuleReport{Kind: h.Kind, Artifact: h.Artifact, Outcome: outcome, Address: h.Address, CreationRef: h.CreationRef}
	for i := range r.Modules {
		if r.Modules[i].Kind == h.Kind {
			r.Modules[i] = m
			return
		}
	}
	r.Modules = append(r.Modules, m)
}

func (r *Report) setVerification(kind deploy.ModuleKind, outcome StepOutcome, ref string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.Modules {
		if r.Modules[i].Kind == kind {
			r.Modules[i].Verification = outcome
			r.Modules[i].VerificationRef = ref
			return
		}
	}
}

func (r *Report) addMinted(t MintedToken) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.MintedTokens = append(r.MintedTokens, t)
}

// sortModules puts modules in canonical order, Controller first.
func (r *Report) sortModules() {
	r.mu.Lock()
	defer r.mu.Unlock()
	rank := map[deploy.ModuleKind]int{}
	for i, k := range deploy.AllKinds() {
		rank[k] = i
	}
	sort.SliceStable(r.Modules, func(i, j int) bool {
		return rank[r.Modules[i].Kind] < rank[r.Modules[j].Kind]
	})
}

package orchestrator

import (
	"time"
)

type StageStatus string

const (
	StagePending   StageStatus = "pending"
	StageRunning   StageStatus = "running"
	StageSucceeded StageStatus = "succeeded"
	StageFailed    StageStatus = "failed"
	StageSkipped   StageStatus = "skipped"
)

const (
	StageResolveController = "resolve_controller"
	StageResolveDependents = "resolve_dependents"
	StageResolveRecorded   = "resolve_recorded"
	StageWireModules       = "wire_modules"
	StageHandoffGovernance = "handoff_governance"
	StageVerify            = "verify"
)

type StageState struct {
	Name       string         `json:"name"`
	Status     StageStatus    `json:"status"`
	StartedAt  *time.Time     `json:"started_at,omitempty"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	LastError  string         `json:"last_error,omitempty"`
	Outputs    map[string]any `json:"outputs,omitempty"`
}

// OrchestratorState is the per-run progress record written to the run ledger.
type OrchestratorState struct {
	Version int                    `json:"version"`
	Order   []string               `json:"order"`
	Stages  map[string]*StageState `json:"stages"`
	Current string                 `json:"current,omitempty"`
}

func NewState(version int) *OrchestratorState {
	st := &OrchestratorState{Version: version}
	st.ensure()
	return st
}

func (s *OrchestratorState) ensure() {
	if s.Version <= 0 {
		s.Version = 1
	}
	if s.Stages == nil {
		s.Stages = map[string]*StageState{}
	}
}

func (s *OrchestratorState) EnsureStage(name string) *StageState {
	s.ensure()
	ss := s.Stages[name]
	if ss == nil {
		ss = &StageState{
			Name:    name,
			Status:  StagePending,
			Outputs: map[string]any{},
		}
		s.Stages[name] = ss
		s.Order = append(s.Order, name)
	}
	if ss.Outputs == nil {
		ss.Outputs = map[string]any{}
	}
	return ss
}

func markStarted(ss *StageState) {
	now := time.Now().UTC()
	ss.StartedAt = &now
	ss.FinishedAt = nil
	ss.LastError = ""
}

func markFinished(ss *StageState, lastErr string) {
	now := time.Now().UTC()
	ss.FinishedAt = &now
	ss.LastError = lastErr
}

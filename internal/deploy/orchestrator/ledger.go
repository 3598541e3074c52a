package orchestrator

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/court-deployer/internal/data/repos/deployment"
	"github.com/yungbote/court-deployer/internal/domain/deploy"
	"github.com/yungbote/court-deployer/internal/pkg/dbctx"
)

// RunRecorder keeps an observational history of runs. Resume decisions never
// read it.
type RunRecorder interface {
	Begin(ctx context.Context, row *deploy.DeploymentRun) error
	SaveState(ctx context.Context, id uuid.UUID, st *OrchestratorState) error
	Finish(ctx context.Context, id uuid.UUID, report *Report, runErr error) error
}

type nopRecorder struct{}

func (nopRecorder) Begin(context.Context, *deploy.DeploymentRun) error             { return nil }
func (nopRecorder) SaveState(context.Context, uuid.UUID, *OrchestratorState) error { return nil }
func (nopRecorder) Finish(context.Context, uuid.UUID, *Report, error) error        { return nil }

// Ledger records runs in the deployment_run table.
type Ledger struct {
	runs deployment.RunRepo
}

func NewLedger(runs deployment.RunRepo) *Ledger { return &Ledger{runs: runs} }

func (l *Ledger) Begin(ctx context.Context, row *deploy.DeploymentRun) error {
	return l.runs.Create(dbctx.Context{Ctx: ctx}, row)
}

func (l *Ledger) SaveState(ctx context.Context, id uuid.UUID, st *OrchestratorState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return l.runs.UpdateFields(dbctx.Context{Ctx: ctx}, id, map[string]interface{}{
		"state": datatypes.JSON(raw),
		"stage": st.Current,
	})
}

func (l *Ledger) Finish(ctx context.Context, id uuid.UUID, report *Report, runErr error) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"report":      datatypes.JSON(raw),
		"finished_at": &now,
		"status":      deploy.RunStatusSucceeded,
	}
	if runErr != nil {
		updates["status"] = deploy.RunStatusFailed
		updates["error"] = runErr.Error()
		updates["stage"] = report.FailedStage
	}
	return l.runs.UpdateFields(dbctx.Context{Ctx: ctx}, id, updates)
}

package deployment

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/court-deployer/internal/data/repos/testutil"
	"github.com/yungbote/court-deployer/internal/domain/deploy"
	"github.com/yungbote/court-deployer/internal/pkg/dbctx"
)

func TestRunRepoLifecycle(t *testing.T) {
	db := testutil.DB(t)
	repo := NewRunRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	older := &deploy.DeploymentRun{Network: "n", Command: deploy.RunCommandDeploy, Status: deploy.RunStatusSucceeded, StartedAt: time.Now().Add(-time.Hour)}
	newer := &deploy.DeploymentRun{Network: "n", Command: deploy.RunCommandVerify, Status: deploy.RunStatusRunning, StartedAt: time.Now()}
	for _, r := range []*deploy.DeploymentRun{older, newer} {
		if err := repo.Create(dbc, r); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	if err := repo.UpdateFields(dbc, newer.ID, map[string]interface{}{"status": deploy.RunStatusFailed, "error": "boom"}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	got, err := repo.GetByID(dbc, newer.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: got=%v err=%v", got, err)
	}
	if got.Status != deploy.RunStatusFailed || got.Error != "boom" {
		t.Fatalf("updated run: status=%q error=%q", got.Status, got.Error)
	}

	rows, err := repo.ListByNetwork(dbc, "n", 10)
	if err != nil {
		t.Fatalf("ListByNetwork: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != newer.ID {
		t.Fatalf("ListByNetwork order: want newest first, got %d rows", len(rows))
	}
}

package deployment

import (
	"context"
	"testing"

	"github.com/yungbote/court-deployer/internal/data/repos/testutil"
	"github.com/yungbote/court-deployer/internal/domain/deploy"
	"github.com/yungbote/court-deployer/internal/pkg/dbctx"
)

func TestPendingRepoUpsertReplacesMarker(t *testing.T) {
	db := testutil.DB(t)
	repo := NewPendingRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	if err := repo.Upsert(dbc, &deploy.PendingCreation{Network: "n", Kind: deploy.KindRegistry, TxRef: "0x1", PredictedAddress: "0xa"}); err != nil {
		t.Fatalf("Upsert first: %v", err)
	}
	if err := repo.Upsert(dbc, &deploy.PendingCreation{Network: "n", Kind: deploy.KindRegistry, TxRef: "0x2", PredictedAddress: "0xb", ConstructorArgs: "beef"}); err != nil {
		t.Fatalf("Upsert second: %v", err)
	}
	rows, err := repo.ListByNetwork(dbc, "n")
	if err != nil {
		t.Fatalf("ListByNetwork: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows: want=1 got=%d", len(rows))
	}
	if rows[0].TxRef != "0x2" {
		t.Fatalf("tx_ref: want=%q got=%q", "0x2", rows[0].TxRef)
	}
	if rows[0].ConstructorArgs != "beef" {
		t.Fatalf("constructor_args: want=%q got=%q", "beef", rows[0].ConstructorArgs)
	}

	if err := repo.DeleteByKind(dbc, "n", deploy.KindRegistry); err != nil {
		t.Fatalf("DeleteByKind: %v", err)
	}
	rows, _ = repo.ListByNetwork(dbc, "n")
	if len(rows) != 0 {
		t.Fatalf("rows after delete: want=0 got=%d", len(rows))
	}
}

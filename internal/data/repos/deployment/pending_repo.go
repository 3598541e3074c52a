package deployment

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/court-deployer/internal/domain/deploy"
	"github.com/yungbote/court-deployer/internal/pkg/dbctx"
	"github.com/yungbote/court-deployer/internal/pkg/logger"
)

type PendingRepo interface {
	Upsert(dbc dbctx.Context, row *deploy.PendingCreation) error
	ListByNetwork(dbc dbctx.Context, network string) ([]*deploy.PendingCreation, error)
	DeleteByKind(dbc dbctx.Context, network string, kind deploy.ModuleKind) error
}

type pendingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPendingRepo(db *gorm.DB, baseLog *logger.Logger) PendingRepo {
	return &pendingRepo{db: db, log: baseLog.With("repo", "PendingRepo")}
}

func (r *pendingRepo) Upsert(dbc dbctx.Context, row *deploy.PendingCreation) error {
	if row == nil {
		return nil
	}
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "network"}, {Name: "kind"}},
			DoUpdates: clause.AssignmentColumns([]string{"run_id", "tx_ref", "predicted_address", "constructor_args", "updated_at"}),
		}).
		Create(row).Error
}

func (r *pendingRepo) ListByNetwork(dbc dbctx.Context, network string) ([]*deploy.PendingCreation, error) {
	var out []*deploy.PendingCreation
	if err := dbc.DB(r.db).
		Where("network = ?", strings.TrimSpace(network)).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *pendingRepo) DeleteByKind(dbc dbctx.Context, network string, kind deploy.ModuleKind) error {
	return dbc.DB(r.db).
		Where("network = ? AND kind = ?", strings.TrimSpace(network), kind).
		Delete(&deploy.PendingCreation{}).Error
}

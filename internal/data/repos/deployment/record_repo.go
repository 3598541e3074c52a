package deployment

import (
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/court-deployer/internal/domain/deploy"
	"github.com/yungbote/court-deployer/internal/pkg/dbctx"
	"github.com/yungbote/court-deployer/internal/pkg/logger"
)

type RecordRepo interface {
	Create(dbc dbctx.Context, row *deploy.DeploymentRecord) error

	ListByNetwork(dbc dbctx.Context, network string) ([]*deploy.DeploymentRecord, error)
	GetByKind(dbc dbctx.Context, network string, kind deploy.ModuleKind) (*deploy.DeploymentRecord, error)

	// SetVerificationRef writes ref only when the record exists and has no ref yet.
	// It reports whether a row was updated.
	SetVerificationRef(dbc dbctx.Context, network string, kind deploy.ModuleKind, ref string) (bool, error)
}

type recordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecordRepo(db *gorm.DB, baseLog *logger.Logger) RecordRepo {
	return &recordRepo{db: db, log: baseLog.With("repo", "RecordRepo")}
}

func (r *recordRepo) Create(dbc dbctx.Context, row *deploy.DeploymentRecord) error {
	if row == nil {
		return nil
	}
	return dbc.DB(r.db).Create(row).Error
}

func (r *recordRepo) ListByNetwork(dbc dbctx.Context, network string) ([]*deploy.DeploymentRecord, error) {
	var out []*deploy.DeploymentRecord
	if err := dbc.DB(r.db).
		Where("network = ?", strings.TrimSpace(network)).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *recordRepo) GetByKind(dbc dbctx.Context, network string, kind deploy.ModuleKind) (*deploy.DeploymentRecord, error) {
	var row deploy.DeploymentRecord
	if err := dbc.DB(r.db).
		Where("network = ? AND kind = ?", strings.TrimSpace(network), kind).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.Kind == "" {
		return nil, nil
	}
	return &row, nil
}

func (r *recordRepo) SetVerificationRef(dbc dbctx.Context, network string, kind deploy.ModuleKind, ref string) (bool, error) {
	res := dbc.DB(r.db).
		Model(&deploy.DeploymentRecord{}).
		Where("network = ? AND kind = ?", strings.TrimSpace(network), kind).
		Where("address <> ''").
		Where("verification_ref IS NULL OR verification_ref = ''").
		Update("verification_ref", ref)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

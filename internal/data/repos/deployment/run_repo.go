package deployment

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/court-deployer/internal/domain/deploy"
	"github.com/yungbote/court-deployer/internal/pkg/dbctx"
	"github.com/yungbote/court-deployer/internal/pkg/logger"
)

type RunRepo interface {
	Create(dbc dbctx.Context, row *deploy.DeploymentRun) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*deploy.DeploymentRun, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	ListByNetwork(dbc dbctx.Context, network string, limit int) ([]*deploy.DeploymentRun, error)
}

type runRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRunRepo(db *gorm.DB, baseLog *logger.Logger) RunRepo {
	return &runRepo{db: db, log: baseLog.With("repo", "RunRepo")}
}

func (r *runRepo) Create(dbc dbctx.Context, row *deploy.DeploymentRun) error {
	if row == nil {
		return nil
	}
	return dbc.DB(r.db).Create(row).Error
}

func (r *runRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*deploy.DeploymentRun, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row deploy.DeploymentRun
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *runRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).
		Model(&deploy.DeploymentRun{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *runRepo) ListByNetwork(dbc dbctx.Context, network string, limit int) ([]*deploy.DeploymentRun, error) {
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	var out []*deploy.DeploymentRun
	if err := dbc.DB(r.db).
		Where("network = ?", strings.TrimSpace(network)).
		Order("started_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/court-deployer/internal/domain/deploy"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&deploy.DeploymentRecord{},
		&deploy.PendingCreation{},
		&deploy.DeploymentRun{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

package deploy

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"

	RunCommandDeploy = "deploy"
	RunCommandVerify = "verify"
)

// DeploymentRun is the ledger row for one orchestrator invocation.
// It is observational only; resume decisions read records and pending markers.
type DeploymentRun struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	Network string `gorm:"column:network;not null;index" json:"network"`
	Command string `gorm:"column:command;not null" json:"command"`
	Caller  string `gorm:"column:caller" json:"caller,omitempty"`

	// running|succeeded|failed
	Status string `gorm:"column:status;not null;index" json:"status"`
	Stage  string `gorm:"column:stage" json:"stage,omitempty"`

	State  datatypes.JSON `gorm:"column:state" json:"state,omitempty"`
	Report datatypes.JSON `gorm:"column:report" json:"report,omitempty"`
	Error  string         `gorm:"column:error" json:"error,omitempty"`

	StartedAt  time.Time  `gorm:"not null;index" json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	UpdatedAt  time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (DeploymentRun) TableName() string { return "deployment_run" }

func (r *DeploymentRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

package deploy

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrIncompleteRecord = errors.New("deployment record needs both address and creation ref")

// DeploymentRecord is the durable trace of one deployed module on one network.
// Address and CreationRef are written together and never change afterwards.
type DeploymentRecord struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	Network string     `gorm:"column:network;not null;uniqueIndex:idx_deployment_record_network_kind,priority:1" json:"network"`
	Kind    ModuleKind `gorm:"column:kind;not null;uniqueIndex:idx_deployment_record_network_kind,priority:2" json:"kind"`

	Address       string `gorm:"column:address;not null" json:"address"`
	CreationRef   string `gorm:"column:creation_ref;not null" json:"creation_ref"`
	SchemaVersion string `gorm:"column:schema_version;not null" json:"schema_version"`
	Artifact      string `gorm:"column:artifact" json:"artifact,omitempty"`

	// hex-encoded constructor arguments, kept for source verification
	ConstructorArgs string `gorm:"column:constructor_args" json:"constructor_args,omitempty"`

	VerificationRef string `gorm:"column:verification_ref" json:"verification_ref,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (DeploymentRecord) TableName() string { return "deployment_record" }

func (r *DeploymentRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r DeploymentRecord) Validate() error {
	if !r.Kind.Valid() {
		return errors.New("deployment record has unknown kind " + string(r.Kind))
	}
	if strings.TrimSpace(r.Address) == "" || strings.TrimSpace(r.CreationRef) == "" {
		return ErrIncompleteRecord
	}
	return nil
}

func (r DeploymentRecord) Verified() bool { return strings.TrimSpace(r.VerificationRef) != "" }

// PendingCreation marks a creation transaction that was broadcast but whose
// record has not been written yet.
type PendingCreation struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	Network string     `gorm:"column:network;not null;uniqueIndex:idx_deployment_pending_network_kind,priority:1" json:"network"`
	Kind    ModuleKind `gorm:"column:kind;not null;uniqueIndex:idx_deployment_pending_network_kind,priority:2" json:"kind"`

	RunID            string `gorm:"column:run_id" json:"run_id,omitempty"`
	TxRef            string `gorm:"column:tx_ref;not null" json:"tx_ref"`
	PredictedAddress string `gorm:"column:predicted_address" json:"predicted_address,omitempty"`
	ConstructorArgs  string `gorm:"column:constructor_args" json:"constructor_args,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (PendingCreation) TableName() string { return "deployment_pending" }

func (p *PendingCreation) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

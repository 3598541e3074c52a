package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/court-deployer/internal/domain/deploy"
)

var (
	ErrRecordExists    = errors.New("deployment record already exists")
	ErrAlreadyVerified = errors.New("deployment record already verified")
	ErrNotDeployed     = errors.New("module has no deployment record")
	ErrInvalidRecord   = errors.New("invalid deployment record")
)

// Store is the durable, per-network trace of what has been deployed.
// Every mutation touches exactly one module; records are never rewritten
// wholesale and a record's address never changes once written.
type Store interface {
	Network() string

	Load(ctx context.Context) (Snapshot, error)

	// Put inserts the record for a kind that has none and clears the kind's
	// pending marker in the same mutation.
	Put(ctx context.Context, rec deploy.DeploymentRecord) error

	// SetVerification sets verification_ref on an existing, unverified record.
	SetVerification(ctx context.Context, kind deploy.ModuleKind, ref string) error

	// MarkPending records a creation that was broadcast but not yet persisted.
	MarkPending(ctx context.Context, p deploy.PendingCreation) error
}

// Snapshot is a point-in-time read of a network's store.
type Snapshot struct {
	Network string                                        `json:"network"`
	Records map[deploy.ModuleKind]deploy.DeploymentRecord `json:"records"`
	Pending map[deploy.ModuleKind]deploy.PendingCreation  `json:"pending,omitempty"`
}

func newSnapshot(network string) Snapshot {
	return Snapshot{
		Network: network,
		Records: map[deploy.ModuleKind]deploy.DeploymentRecord{},
		Pending: map[deploy.ModuleKind]deploy.PendingCreation{},
	}
}

// Record returns the kind's record only when it carries an address.
func (s Snapshot) Record(kind deploy.ModuleKind) (deploy.DeploymentRecord, bool) {
	r, ok := s.Records[kind]
	if !ok || strings.TrimSpace(r.Address) == "" {
		return deploy.DeploymentRecord{}, false
	}
	return r, true
}

// Missing lists kinds without a usable record, Controller first.
func (s Snapshot) Missing() []deploy.ModuleKind {
	var out []deploy.ModuleKind
	for _, k := range deploy.AllKinds() {
		if _, ok := s.Record(k); !ok {
			out = append(out, k)
		}
	}
	return out
}

func (s Snapshot) Complete() bool { return len(s.Missing()) == 0 }

func prepareRecord(network string, rec deploy.DeploymentRecord) (deploy.DeploymentRecord, error) {
	rec.Network = network
	rec.Address = strings.TrimSpace(rec.Address)
	rec.CreationRef = strings.TrimSpace(rec.CreationRef)
	if rec.SchemaVersion == "" {
		rec.SchemaVersion = deploy.SchemaVersion
	}
	if err := rec.Validate(); err != nil {
		return rec, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return rec, nil
}

func preparePending(network string, p deploy.PendingCreation) (deploy.PendingCreation, error) {
	p.Network = network
	if !p.Kind.Valid() || strings.TrimSpace(p.TxRef) == "" {
		return p, fmt.Errorf("%w: pending creation needs kind and tx ref", ErrInvalidRecord)
	}
	return p, nil
}

// Opener returns the store for a network.
type Opener func(network string) (Store, error)

package store

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	repos "github.com/yungbote/court-deployer/internal/data/repos/deployment"
	"github.com/yungbote/court-deployer/internal/domain/deploy"
	"github.com/yungbote/court-deployer/internal/pkg/dbctx"
	"github.com/yungbote/court-deployer/internal/pkg/logger"
)

// GormStore keeps records in a SQL database; each mutation is one transaction.
type GormStore struct {
	db      *gorm.DB
	network string
	log     *logger.Logger
	records repos.RecordRepo
	pending repos.PendingRepo
}

func NewGormStore(db *gorm.DB, network string, baseLog *logger.Logger) (*GormStore, error) {
	network = strings.TrimSpace(network)
	if db == nil || network == "" {
		return nil, fmt.Errorf("gorm store needs a db and a network")
	}
	return &GormStore{
		db:      db,
		network: network,
		log:     baseLog.With("store", "GormStore", "network", network),
		records: repos.NewRecordRepo(db, baseLog),
		pending: repos.NewPendingRepo(db, baseLog),
	}, nil
}

func (s *GormStore) Network() string { return s.network }

func (s *GormStore) Load(ctx context.Context) (Snapshot, error) {
	snap := newSnapshot(s.network)
	dbc := dbctx.Context{Ctx: ctx}
	rows, err := s.records.ListByNetwork(dbc, s.network)
	if err != nil {
		return snap, fmt.Errorf("load records: %w", err)
	}
	for _, r := range rows {
		snap.Records[r.Kind] = *r
	}
	pend, err := s.pending.ListByNetwork(dbc, s.network)
	if err != nil {
		return snap, fmt.Errorf("load pending creations: %w", err)
	}
	for _, p := range pend {
		snap.Pending[p.Kind] = *p
	}
	return snap, nil
}

func (s *GormStore) Put(ctx context.Context, rec deploy.DeploymentRecord) error {
	rec, err := prepareRecord(s.network, rec)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		existing, err := s.records.GetByKind(dbc, s.network, rec.Kind)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: %s at %s", ErrRecordExists, rec.Kind, existing.Address)
		}
		if err := s.records.Create(dbc, &rec); err != nil {
			return fmt.Errorf("insert %s record: %w", rec.Kind, err)
		}
		return s.pending.DeleteByKind(dbc, s.network, rec.Kind)
	})
}

func (s *GormStore) SetVerification(ctx context.Context, kind deploy.ModuleKind, ref string) error {
	if strings.TrimSpace(ref) == "" {
		return fmt.Errorf("%w: empty verification ref", ErrInvalidRecord)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		ok, err := s.records.SetVerificationRef(dbc, s.network, kind, ref)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		existing, err := s.records.GetByKind(dbc, s.network, kind)
		if err != nil {
			return err
		}
		if existing == nil || strings.TrimSpace(existing.Address) == "" {
			return fmt.Errorf("%w: %s", ErrNotDeployed, kind)
		}
		return fmt.Errorf("%w: %s", ErrAlreadyVerified, kind)
	})
}

func (s *GormStore) MarkPending(ctx context.Context, p deploy.PendingCreation) error {
	p, err := preparePending(s.network, p)
	if err != nil {
		return err
	}
	return s.pending.Upsert(dbctx.Context{Ctx: ctx}, &p)
}

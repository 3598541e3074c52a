package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/court-deployer/internal/domain/deploy"
)

// MemoryStore is a process-local store, used for dry runs and tests.
type MemoryStore struct {
	mu      sync.Mutex
	network string
	records map[deploy.ModuleKind]deploy.DeploymentRecord
	pending map[deploy.ModuleKind]deploy.PendingCreation
}

func NewMemoryStore(network string) *MemoryStore {
	return &MemoryStore{
		network: strings.TrimSpace(network),
		records: map[deploy.ModuleKind]deploy.DeploymentRecord{},
		pending: map[deploy.ModuleKind]deploy.PendingCreation{},
	}
}

func (s *MemoryStore) Network() string { return s.network }

func (s *MemoryStore) Load(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := newSnapshot(s.network)
	for k, v := range s.records {
		snap.Records[k] = v
	}
	for k, v := range s.pending {
		snap.Pending[k] = v
	}
	return snap, nil
}

func (s *MemoryStore) Put(ctx context.Context, rec deploy.DeploymentRecord) error {
	rec, err := prepareRecord(s.network, rec)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.records[rec.Kind]; ok {
		return fmt.Errorf("%w: %s at %s", ErrRecordExists, rec.Kind, existing.Address)
	}
	now := time.Now().UTC()
	rec.CreatedAt, rec.UpdatedAt = now, now
	s.records[rec.Kind] = rec
	delete(s.pending, rec.Kind)
	return nil
}

func (s *MemoryStore) SetVerification(ctx context.Context, kind deploy.ModuleKind, ref string) error {
	if strings.TrimSpace(ref) == "" {
		return fmt.Errorf("%w: empty verification ref", ErrInvalidRecord)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[kind]
	if !ok || rec.Address == "" {
		return fmt.Errorf("%w: %s", ErrNotDeployed, kind)
	}
	if rec.Verified() {
		return fmt.Errorf("%w: %s", ErrAlreadyVerified, kind)
	}
	rec.VerificationRef = ref
	rec.UpdatedAt = time.Now().UTC()
	s.records[kind] = rec
	return nil
}

func (s *MemoryStore) MarkPending(ctx context.Context, p deploy.PendingCreation) error {
	p, err := preparePending(s.network, p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p.CreatedAt = time.Now().UTC()
	s.pending[p.Kind] = p
	return nil
}

package store

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/court-deployer/internal/data/repos/testutil"
	"github.com/yungbote/court-deployer/internal/domain/deploy"
)

type storeFactory func(t *testing.T, network string) Store

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T, network string) Store {
		return NewMemoryStore(network)
	})
}

func TestGormStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T, network string) Store {
		s, err := NewGormStore(testutil.DB(t), network, testutil.Logger(t))
		if err != nil {
			t.Fatalf("NewGormStore: %v", err)
		}
		return s
	})
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis store tests")
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	runStoreContract(t, func(t *testing.T, network string) Store {
		prefix := "courtdeploy-test-" + uuid.NewString()
		s, err := NewRedisStore(rdb, prefix, network, testutil.Logger(t))
		if err != nil {
			t.Fatalf("NewRedisStore: %v", err)
		}
		t.Cleanup(func() {
			_ = rdb.Del(context.Background(), s.key("records"), s.key("verifications"), s.key("pending")).Err()
		})
		return s
	})
}

func runStoreContract(t *testing.T, newStore storeFactory) {
	ctx := context.Background()

	t.Run("put then load", func(t *testing.T) {
		s := newStore(t, "n1")
		if err := s.Put(ctx, deploy.DeploymentRecord{Kind: deploy.KindController, Address: "0x01", CreationRef: "0xaa"}); err != nil {
			t.Fatalf("Put: %v", err)
		}
		snap, err := s.Load(ctx)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		rec, ok := snap.Record(deploy.KindController)
		if !ok {
			t.Fatalf("Record: controller missing")
		}
		if rec.Address != "0x01" || rec.CreationRef != "0xaa" || rec.SchemaVersion != deploy.SchemaVersion {
			t.Fatalf("record: got=%+v", rec)
		}
		if snap.Complete() {
			t.Fatalf("Complete: want=false with one record")
		}
		if got := len(snap.Missing()); got != 5 {
			t.Fatalf("Missing: want=5 got=%d", got)
		}
	})

	t.Run("address is immutable", func(t *testing.T) {
		s := newStore(t, "n2")
		if err := s.Put(ctx, deploy.DeploymentRecord{Kind: deploy.KindVoting, Address: "0x01", CreationRef: "0xaa"}); err != nil {
			t.Fatalf("Put: %v", err)
		}
		err := s.Put(ctx, deploy.DeploymentRecord{Kind: deploy.KindVoting, Address: "0x02", CreationRef: "0xbb"})
		if !errors.Is(err, ErrRecordExists) {
			t.Fatalf("second Put: want=%v got=%v", ErrRecordExists, err)
		}
		snap, _ := s.Load(ctx)
		if rec, _ := snap.Record(deploy.KindVoting); rec.Address != "0x01" {
			t.Fatalf("address: want=0x01 got=%s", rec.Address)
		}
	})

	t.Run("address and creation ref travel together", func(t *testing.T) {
		s := newStore(t, "n3")
		err := s.Put(ctx, deploy.DeploymentRecord{Kind: deploy.KindTreasury, Address: "0x01"})
		if !errors.Is(err, ErrInvalidRecord) {
			t.Fatalf("Put without creation ref: want=%v got=%v", ErrInvalidRecord, err)
		}
		snap, _ := s.Load(ctx)
		if len(snap.Records) != 0 {
			t.Fatalf("records: want=0 got=%d", len(snap.Records))
		}
	})

	t.Run("verification is set once", func(t *testing.T) {
		s := newStore(t, "n4")
		if err := s.SetVerification(ctx, deploy.KindRegistry, "ref"); !errors.Is(err, ErrNotDeployed) {
			t.Fatalf("SetVerification before deploy: want=%v got=%v", ErrNotDeployed, err)
		}
		if err := s.Put(ctx, deploy.DeploymentRecord{Kind: deploy.KindRegistry, Address: "0x01", CreationRef: "0xaa"}); err != nil {
			t.Fatalf("Put: %v", err)
		}
		if err := s.SetVerification(ctx, deploy.KindRegistry, "ref-1"); err != nil {
			t.Fatalf("SetVerification: %v", err)
		}
		if err := s.SetVerification(ctx, deploy.KindRegistry, "ref-2"); !errors.Is(err, ErrAlreadyVerified) {
			t.Fatalf("second SetVerification: want=%v got=%v", ErrAlreadyVerified, err)
		}
		snap, _ := s.Load(ctx)
		rec, _ := snap.Record(deploy.KindRegistry)
		if rec.VerificationRef != "ref-1" || rec.Address != "0x01" || rec.CreationRef != "0xaa" {
			t.Fatalf("record after verification: got=%+v", rec)
		}
	})

	t.Run("put clears pending marker", func(t *testing.T) {
		s := newStore(t, "n5")
		if err := s.MarkPending(ctx, deploy.PendingCreation{Kind: deploy.KindSubscriptions, TxRef: "0xtx", PredictedAddress: "0x05"}); err != nil {
			t.Fatalf("MarkPending: %v", err)
		}
		snap, _ := s.Load(ctx)
		if p, ok := snap.Pending[deploy.KindSubscriptions]; !ok || p.TxRef != "0xtx" {
			t.Fatalf("pending: got=%+v ok=%v", p, ok)
		}
		if err := s.Put(ctx, deploy.DeploymentRecord{Kind: deploy.KindSubscriptions, Address: "0x05", CreationRef: "0xtx"}); err != nil {
			t.Fatalf("Put: %v", err)
		}
		snap, _ = s.Load(ctx)
		if _, ok := snap.Pending[deploy.KindSubscriptions]; ok {
			t.Fatalf("pending marker should be cleared by Put")
		}
	})

	t.Run("concurrent puts for distinct kinds", func(t *testing.T) {
		s := newStore(t, "n6")
		var wg sync.WaitGroup
		errs := make(chan error, len(deploy.Dependents))
		for i, k := range deploy.Dependents {
			wg.Add(1)
			go func(i int, k deploy.ModuleKind) {
				defer wg.Done()
				errs <- s.Put(ctx, deploy.DeploymentRecord{Kind: k, Address: "0x0" + string(rune('1'+i)), CreationRef: "0xtx"})
			}(i, k)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			if err != nil {
				t.Fatalf("Put: %v", err)
			}
		}
		snap, _ := s.Load(ctx)
		if len(snap.Records) != len(deploy.Dependents) {
			t.Fatalf("records: want=%d got=%d", len(deploy.Dependents), len(snap.Records))
		}
	})

	t.Run("networks are isolated", func(t *testing.T) {
		a := newStore(t, "net-a")
		if err := a.Put(ctx, deploy.DeploymentRecord{Kind: deploy.KindController, Address: "0x01", CreationRef: "0xaa"}); err != nil {
			t.Fatalf("Put: %v", err)
		}
		snap, _ := a.Load(ctx)
		if snap.Network != "net-a" {
			t.Fatalf("network: want=net-a got=%s", snap.Network)
		}
	})
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/court-deployer/internal/domain/deploy"
	"github.com/yungbote/court-deployer/internal/pkg/logger"
)

// Each script touches keys sharing one hash tag, so a single call is atomic
// even on a cluster.
var (
	putScript = goredis.NewScript(`
if redis.call('HEXISTS', KEYS[1], ARGV[1]) == 1 then
  return 0
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
redis.call('HDEL', KEYS[2], ARGV[1])
return 1
`)
	verifyScript = goredis.NewScript(`
if redis.call('HEXISTS', KEYS[1], ARGV[1]) == 0 then
  return -1
end
if redis.call('HSETNX', KEYS[2], ARGV[1], ARGV[2]) == 0 then
  return 0
end
return 1
`)
)

// RedisStore keeps records in three hashes per network: records, verification
// refs and pending markers, all keyed by module kind.
type RedisStore struct {
	rdb     goredis.UniversalClient
	network string
	prefix  string
	log     *logger.Logger
}

func NewRedisStore(rdb goredis.UniversalClient, prefix, network string, baseLog *logger.Logger) (*RedisStore, error) {
	network = strings.TrimSpace(network)
	if rdb == nil || network == "" {
		return nil, fmt.Errorf("redis store needs a client and a network")
	}
	if strings.TrimSpace(prefix) == "" {
		prefix = "courtdeploy"
	}
	return &RedisStore{
		rdb:     rdb,
		network: network,
		prefix:  prefix,
		log:     baseLog.With("store", "RedisStore", "network", network),
	}, nil
}

func (s *RedisStore) Network() string { return s.network }

func (s *RedisStore) key(suffix string) string {
	return fmt.Sprintf("%s:{%s}:%s", s.prefix, s.network, suffix)
}

func (s *RedisStore) Load(ctx context.Context) (Snapshot, error) {
	snap := newSnapshot(s.network)

	recs, err := s.rdb.HGetAll(ctx, s.key("records")).Result()
	if err != nil {
		return snap, fmt.Errorf("load records: %w", err)
	}
	refs, err := s.rdb.HGetAll(ctx, s.key("verifications")).Result()
	if err != nil {
		return snap, fmt.Errorf("load verifications: %w", err)
	}
	for field, raw := range recs {
		var r deploy.DeploymentRecord
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return snap, fmt.Errorf("decode %s record: %w", field, err)
		}
		r.VerificationRef = refs[field]
		snap.Records[r.Kind] = r
	}

	pend, err := s.rdb.HGetAll(ctx, s.key("pending")).Result()
	if err != nil {
		return snap, fmt.Errorf("load pending creations: %w", err)
	}
	for field, raw := range pend {
		var p deploy.PendingCreation
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return snap, fmt.Errorf("decode %s pending creation: %w", field, err)
		}
		snap.Pending[p.Kind] = p
	}
	return snap, nil
}

func (s *RedisStore) Put(ctx context.Context, rec deploy.DeploymentRecord) error {
	rec, err := prepareRecord(s.network, rec)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	rec.CreatedAt, rec.UpdatedAt = now, now
	// verification refs live in their own hash
	rec.VerificationRef = ""
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	n, err := putScript.Run(ctx, s.rdb, []string{s.key("records"), s.key("pending")}, string(rec.Kind), raw).Int()
	if err != nil {
		return fmt.Errorf("insert %s record: %w", rec.Kind, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRecordExists, rec.Kind)
	}
	return nil
}

func (s *RedisStore) SetVerification(ctx context.Context, kind deploy.ModuleKind, ref string) error {
	if strings.TrimSpace(ref) == "" {
		return fmt.Errorf("%w: empty verification ref", ErrInvalidRecord)
	}
	n, err := verifyScript.Run(ctx, s.rdb, []string{s.key("records"), s.key("verifications")}, string(kind), ref).Int()
	if err != nil {
		return fmt.Errorf("set %s verification: %w", kind, err)
	}
	switch n {
	case -1:
		return fmt.Errorf("%w: %s", ErrNotDeployed, kind)
	case 0:
		return fmt.Errorf("%w: %s", ErrAlreadyVerified, kind)
	default:
		return nil
	}
}

func (s *RedisStore) MarkPending(ctx context.Context, p deploy.PendingCreation) error {
	p, err := preparePending(s.network, p)
	if err != nil {
		return err
	}
	p.CreatedAt = time.Now().UTC()
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.rdb.HSet(ctx, s.key("pending"), string(p.Kind), raw).Err()
}

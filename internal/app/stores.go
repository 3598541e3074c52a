package app

import (
	"fmt"
	"strings"
	"sync"

	redisclient "github.com/yungbote/court-deployer/internal/clients/redis"
	"github.com/yungbote/court-deployer/internal/data/db"
	"github.com/yungbote/court-deployer/internal/data/repos/deployment"
	"github.com/yungbote/court-deployer/internal/deploy/store"
	"github.com/yungbote/court-deployer/internal/pkg/logger"
)

// backend owns the connections behind a store.Opener. runs is nil when the
// backend has no SQL database to keep a run ledger in.
type backend struct {
	open  store.Opener
	runs  deployment.RunRepo
	close func() error
}

func openBackend(log *logger.Logger, cfg StoreConfig) (*backend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case StoreSQLite, StorePostgres, "":
		svc, err := db.NewService(log, db.Config{Driver: cfg.Driver, DSN: cfg.DSN})
		if err != nil {
			return nil, err
		}
		gdb := svc.DB()
		return &backend{
			open: func(network string) (store.Store, error) {
				return store.NewGormStore(gdb, network, log)
			},
			runs:  deployment.NewRunRepo(gdb, log),
			close: svc.Close,
		}, nil
	case StoreRedis:
		rdb, err := redisclient.NewClient(log, redisclient.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			return nil, err
		}
		return &backend{
			open: func(network string) (store.Store, error) {
				return store.NewRedisStore(rdb, cfg.RedisPrefix, network, log)
			},
			close: rdb.Close,
		}, nil
	case StoreMemory:
		return &backend{open: memoryOpener(), close: func() error { return nil }}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// memoryOpener hands out one MemoryStore per network for the life of the process.
func memoryOpener() store.Opener {
	var mu sync.Mutex
	stores := map[string]*store.MemoryStore{}
	return func(network string) (store.Store, error) {
		network = strings.TrimSpace(network)
		if network == "" {
			return nil, fmt.Errorf("network required")
		}
		mu.Lock()
		defer mu.Unlock()
		s, ok := stores[network]
		if !ok {
			s = store.NewMemoryStore(network)
			stores[network] = s
		}
		return s, nil
	}
}

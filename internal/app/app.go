package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/yungbote/court-deployer/internal/chain"
	"github.com/yungbote/court-deployer/internal/clients/gcp"
	"github.com/yungbote/court-deployer/internal/data/repos/deployment"
	"github.com/yungbote/court-deployer/internal/deploy/orchestrator"
	"github.com/yungbote/court-deployer/internal/deploy/store"
	"github.com/yungbote/court-deployer/internal/observability"
	"github.com/yungbote/court-deployer/internal/pkg/logger"
	"github.com/yungbote/court-deployer/internal/verify"
)

type App struct {
	Log *logger.Logger
	Cfg Config

	backend  *backend
	shutdown func(context.Context) error

	// chain collaborators are dialed on first use so read-only commands work offline
	chainMu  sync.Mutex
	deployer *chain.Deployer
	factory  *chain.Factory
	bucket   *gcp.Bucket
	verifier orchestrator.Verifier
}

func NewLogger() (*logger.Logger, error) {
	mode := os.Getenv("LOG_MODE")
	if mode == "" {
		mode = "development"
	}
	log, err := logger.New(mode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

func New(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	shutdown := observability.InitOTel(ctx, log, cfg.Otel)
	be, err := openBackend(log, cfg.Store)
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	return &App{Log: log, Cfg: cfg, backend: be, shutdown: shutdown}, nil
}

func (a *App) Stores() store.Opener { return a.backend.open }

// Runs is the run ledger, nil for backends without one.
func (a *App) Runs() deployment.RunRepo { return a.backend.runs }

func (a *App) Close() {
	if a == nil {
		return
	}
	a.chainMu.Lock()
	if a.deployer != nil {
		_ = a.deployer.Close()
	}
	if a.bucket != nil {
		_ = a.bucket.Close()
	}
	a.chainMu.Unlock()
	if a.backend != nil && a.backend.close != nil {
		if err := a.backend.close(); err != nil {
			a.Log.Warn("Failed to close store", "error", err)
		}
	}
	if a.shutdown != nil {
		_ = a.shutdown(context.Background())
	}
	a.Log.Sync()
}

func (a *App) chain(ctx context.Context) (*chain.Deployer, *chain.Factory, orchestrator.Verifier, error) {
	a.chainMu.Lock()
	defer a.chainMu.Unlock()
	if a.deployer == nil {
		cc := a.Cfg.Chain
		feeCap, tipCap := cc.feeCaps()
		d, err := chain.NewDeployer(a.Log, chain.Config{
			RPCURL:         cc.RPCURL,
			ChainID:        cc.ChainID,
			PrivateKey:     cc.PrivateKey,
			GasFeeCap:      feeCap,
			GasTipCap:      tipCap,
			GasLimit:       uint64(max(cc.GasLimit, 0)),
			PollInterval:   cc.PollInterval,
			ReceiptTimeout: cc.ReceiptTimeout,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("init chain deployer: %w", err)
		}
		a.deployer = d
		a.factory = chain.NewFactory(a.Log, d, chain.NewArtifacts(cc.ArtifactsDir))
	}
	if a.verifier == nil {
		v, err := a.buildVerifier(ctx)
		if err != nil {
			return nil, nil, nil, err
		}
		a.verifier = v
	}
	return a.deployer, a.factory, a.verifier, nil
}

// buildVerifier returns nil when verification is disabled.
func (a *App) buildVerifier(ctx context.Context) (orchestrator.Verifier, error) {
	vc := a.Cfg.Verifier
	switch strings.ToLower(strings.TrimSpace(vc.Kind)) {
	case VerifierNone, "none":
		return nil, nil
	case VerifierGCS:
		b, err := gcp.NewBucket(ctx, a.Log, gcp.BucketConfig{Name: vc.Bucket, CDNDomain: vc.CDNDomain, Credentials: vc.GCPCredentials})
		if err != nil {
			return nil, fmt.Errorf("init verification bucket: %w", err)
		}
		a.bucket = b
		return verify.NewGCSVerifier(a.Log, b, vc.Prefix), nil
	case VerifierEtherscan:
		return verify.NewEtherscanVerifier(a.Log, verify.EtherscanConfig{
			APIURL:          vc.EtherscanAPIURL,
			ExplorerURL:     vc.EtherscanExplorerURL,
			APIKey:          vc.EtherscanAPIKey,
			SourcesDir:      vc.SourcesDir,
			CompilerVersion: vc.CompilerVersion,
			OptimizerRuns:   vc.OptimizerRuns,
		})
	default:
		return nil, fmt.Errorf("unknown verifier %q", vc.Kind)
	}
}

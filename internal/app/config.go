package app

import (
	"math/big"
	"strings"
	"time"

	"github.com/yungbote/court-deployer/internal/observability"
	"github.com/yungbote/court-deployer/internal/pkg/logger"
	"github.com/yungbote/court-deployer/internal/temporalx"
	"github.com/yungbote/court-deployer/internal/utils"
)

const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreMemory   = "memory"

	VerifierNone      = ""
	VerifierGCS       = "gcs"
	VerifierEtherscan = "etherscan"
)

type ChainConfig struct {
	RPCURL            string
	ChainID           int64
	PrivateKey        string
	GasFeeCapGwei     int64
	GasTipCapGwei     int64
	GasLimit          int64
	PollInterval      time.Duration
	ReceiptTimeout    time.Duration
	ArtifactsDir      string
	TestTokenArtifact string
}

type StoreConfig struct {
	Driver string
	// DSN is a sqlite path or a postgres URL.
	DSN           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

type VerifierConfig struct {
	Kind string

	Bucket         string
	CDNDomain      string
	GCPCredentials string
	Prefix         string

	EtherscanAPIURL      string
	EtherscanExplorerURL string
	EtherscanAPIKey      string
	SourcesDir           string
	CompilerVersion      string
	OptimizerRuns        int
}

type HTTPConfig struct {
	Addr        string
	CORSOrigins []string
	JWTSecret   string
}

type Config struct {
	LogMode string
	Network string

	Chain    ChainConfig
	Store    StoreConfig
	Verifier VerifierConfig
	HTTP     HTTPConfig
	Otel     observability.OtelConfig
	Temporal temporalx.Config

	ParallelDependents bool
	PendingPolicy      string
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		LogMode: utils.GetEnv("LOG_MODE", "development", log),
		Network: utils.GetEnv("COURT_NETWORK", "", log),

		Chain: ChainConfig{
			RPCURL:            utils.GetEnv("CHAIN_RPC_URL", "", log),
			ChainID:           utils.GetEnvAsInt64("CHAIN_ID", 0, log),
			PrivateKey:        utils.GetEnv("DEPLOYER_PRIVATE_KEY", "", log),
			GasFeeCapGwei:     utils.GetEnvAsInt64("GAS_FEE_CAP_GWEI", 2, log),
			GasTipCapGwei:     utils.GetEnvAsInt64("GAS_TIP_CAP_GWEI", 1, log),
			GasLimit:          utils.GetEnvAsInt64("GAS_LIMIT", 0, log),
			PollInterval:      utils.GetEnvAsDuration("RECEIPT_POLL_INTERVAL", 2*time.Second, log),
			ReceiptTimeout:    utils.GetEnvAsDuration("RECEIPT_TIMEOUT", 15*time.Minute, log),
			ArtifactsDir:      utils.GetEnv("ARTIFACTS_DIR", "build/contracts", log),
			TestTokenArtifact: utils.GetEnv("TEST_TOKEN_ARTIFACT", "ERC20Mock", log),
		},
		Store: StoreConfig{
			Driver:        strings.ToLower(utils.GetEnv("STORE_DRIVER", StoreSQLite, log)),
			DSN:           utils.GetEnv("STORE_DSN", "courtdeploy.db", log),
			RedisAddr:     utils.GetEnv("REDIS_ADDR", "", log),
			RedisPassword: utils.GetEnv("REDIS_PASSWORD", "", log),
			RedisDB:       utils.GetEnvAsInt("REDIS_DB", 0, log),
			RedisPrefix:   utils.GetEnv("REDIS_PREFIX", "courtdeploy", log),
		},
		Verifier: VerifierConfig{
			Kind:                 strings.ToLower(utils.GetEnv("VERIFIER", VerifierNone, log)),
			Bucket:               utils.GetEnv("VERIFY_BUCKET", "", log),
			CDNDomain:            utils.GetEnv("VERIFY_CDN_DOMAIN", "", log),
			GCPCredentials:       utils.GetEnv("GOOGLE_APPLICATION_CREDENTIALS", "", log),
			Prefix:               utils.GetEnv("VERIFY_PREFIX", "court-deployments", log),
			EtherscanAPIURL:      utils.GetEnv("ETHERSCAN_API_URL", "", log),
			EtherscanExplorerURL: utils.GetEnv("ETHERSCAN_EXPLORER_URL", "", log),
			EtherscanAPIKey:      utils.GetEnv("ETHERSCAN_API_KEY", "", log),
			SourcesDir:           utils.GetEnv("VERIFY_SOURCES_DIR", "flattened", log),
			CompilerVersion:      utils.GetEnv("SOLC_VERSION", "", log),
			OptimizerRuns:        utils.GetEnvAsInt("SOLC_OPTIMIZER_RUNS", 200, log),
		},
		HTTP: HTTPConfig{
			Addr:        utils.GetEnv("HTTP_ADDR", ":8080", log),
			CORSOrigins: splitList(utils.GetEnv("CORS_ORIGINS", "", log)),
			JWTSecret:   utils.GetEnv("STATUS_API_JWT_SECRET", "", log),
		},
		Otel: observability.OtelConfig{
			Enabled:     utils.GetEnvAsBool("OTEL_ENABLED", false, log),
			ServiceName: utils.GetEnv("OTEL_SERVICE_NAME", "court-deployer", log),
			Environment: utils.GetEnv("OTEL_ENVIRONMENT", "development", log),
			Version:     utils.GetEnv("OTEL_SERVICE_VERSION", "dev", log),
			Endpoint:    utils.GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
			Headers:     utils.GetEnv("OTEL_EXPORTER_OTLP_HEADERS", "", log),
			Insecure:    utils.GetEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", false, log),
			SampleRatio: float64(utils.GetEnvAsInt("OTEL_SAMPLE_PERCENT", 100, log)) / 100,
		},
		Temporal: temporalx.LoadConfig(log),

		ParallelDependents: utils.GetEnvAsBool("PARALLEL_DEPENDENTS", false, log),
		PendingPolicy:      utils.GetEnv("PENDING_POLICY", "redeploy", log),
	}
	return cfg
}

func (c ChainConfig) feeCaps() (*big.Int, *big.Int) {
	gwei := big.NewInt(1_000_000_000)
	var feeCap, tipCap *big.Int
	if c.GasFeeCapGwei > 0 {
		feeCap = new(big.Int).Mul(big.NewInt(c.GasFeeCapGwei), gwei)
	}
	if c.GasTipCapGwei > 0 {
		tipCap = new(big.Int).Mul(big.NewInt(c.GasTipCapGwei), gwei)
	}
	return feeCap, tipCap
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

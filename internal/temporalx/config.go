package temporalx

import (
	"time"

	"github.com/yungbote/court-deployer/internal/pkg/logger"
	"github.com/yungbote/court-deployer/internal/utils"
)

type Config struct {
	Address   string
	Namespace string
	TaskQueue string

	ClientCertPath string
	ClientKeyPath  string
	ClientCAPath   string

	DialTimeout    time.Duration
	DialMaxWait    time.Duration
	Backoff        time.Duration
	BackoffMax     time.Duration
	StartMaxWait   time.Duration
	EnsureTimeout  time.Duration
	RetentionDays  int
	AutoRegisterNS bool

	WorkerConcurrency int
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		Address:   utils.GetEnv("TEMPORAL_ADDRESS", "", log),
		Namespace: utils.GetEnv("TEMPORAL_NAMESPACE", "courtdeploy", log),
		TaskQueue: utils.GetEnv("TEMPORAL_TASK_QUEUE", "courtdeploy", log),

		ClientCertPath: utils.GetEnv("TEMPORAL_CLIENT_CERT_PATH", "", log),
		ClientKeyPath:  utils.GetEnv("TEMPORAL_CLIENT_KEY_PATH", "", log),
		ClientCAPath:   utils.GetEnv("TEMPORAL_CLIENT_CA_PATH", "", log),

		DialTimeout:    utils.GetEnvAsDuration("TEMPORAL_DIAL_TIMEOUT", 5*time.Second, log),
		DialMaxWait:    utils.GetEnvAsDuration("TEMPORAL_DIAL_MAX_WAIT", 60*time.Second, log),
		Backoff:        utils.GetEnvAsDuration("TEMPORAL_BACKOFF", 250*time.Millisecond, log),
		BackoffMax:     utils.GetEnvAsDuration("TEMPORAL_BACKOFF_MAX", 5*time.Second, log),
		StartMaxWait:   utils.GetEnvAsDuration("TEMPORAL_WORKER_START_MAX_WAIT", 60*time.Second, log),
		EnsureTimeout:  utils.GetEnvAsDuration("TEMPORAL_NAMESPACE_ENSURE_TIMEOUT", 10*time.Second, log),
		RetentionDays:  utils.GetEnvAsInt("TEMPORAL_NAMESPACE_RETENTION_DAYS", 7, log),
		AutoRegisterNS: utils.GetEnvAsBool("TEMPORAL_AUTO_REGISTER_NAMESPACE", false, log),

		// deployments per network are serialized by workflow id; this bounds networks in flight
		WorkerConcurrency: utils.GetEnvAsInt("WORKER_CONCURRENCY", 2, log),
	}
}

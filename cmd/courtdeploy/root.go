package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yungbote/court-deployer/internal/app"
	"github.com/yungbote/court-deployer/internal/deploy/plan"
)

var (
	flagPlan          string
	flagNetwork       string
	flagStore         string
	flagStoreDSN      string
	flagVerifier      string
	flagParallel      bool
	flagPendingPolicy string
)

var rootCmd = &cobra.Command{
	Use:           "courtdeploy",
	Short:         "Deploy and wire the court modules for a network",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagNetwork, "network", "", "network name (overrides the plan and COURT_NETWORK)")
	pf.StringVar(&flagStore, "store", "", "deployment store: sqlite, postgres, redis or memory (overrides STORE_DRIVER)")
	pf.StringVar(&flagStoreDSN, "store-dsn", "", "sqlite path or postgres url (overrides STORE_DSN)")

	rootCmd.AddCommand(deployCmd, verifyCmd, statusCmd, serveCmd, workerCmd, submitCmd)
}

func addPlanFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagPlan, "plan", "", "path to the deployment plan YAML")
	cmd.Flags().StringVar(&flagVerifier, "verifier", "", "contract verifier: gcs, etherscan or none (overrides VERIFIER)")
	cmd.Flags().BoolVar(&flagParallel, "parallel", false, "create independent dependents concurrently")
	cmd.Flags().StringVar(&flagPendingPolicy, "pending-policy", "", "what to do with an unconfirmed creation that left no code: redeploy or halt")
	_ = cmd.MarkFlagRequired("plan")
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newApp(ctx context.Context) (*app.App, error) {
	log, err := app.NewLogger()
	if err != nil {
		return nil, err
	}
	cfg := app.LoadConfig(log)
	if flagNetwork != "" {
		cfg.Network = flagNetwork
	}
	if flagStore != "" {
		cfg.Store.Driver = strings.ToLower(flagStore)
	}
	if flagStoreDSN != "" {
		cfg.Store.DSN = flagStoreDSN
	}
	if flagVerifier != "" {
		cfg.Verifier.Kind = strings.ToLower(flagVerifier)
	}
	if flagParallel {
		cfg.ParallelDependents = true
	}
	if flagPendingPolicy != "" {
		cfg.PendingPolicy = flagPendingPolicy
	}
	a, err := app.New(ctx, log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}
	return a, nil
}

func loadPlan(network string) (*plan.Plan, error) {
	if strings.TrimSpace(flagPlan) == "" {
		return nil, fmt.Errorf("--plan is required")
	}
	return plan.Load(flagPlan, network)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

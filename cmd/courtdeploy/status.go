package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yungbote/court-deployer/internal/domain/deploy"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the recorded modules for a network",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		network := strings.TrimSpace(a.Cfg.Network)
		if network == "" {
			return fmt.Errorf("--network or COURT_NETWORK is required")
		}
		s, err := a.Stores()(network)
		if err != nil {
			return err
		}
		snap, err := s.Load(ctx)
		if err != nil {
			return err
		}
		records := make([]deploy.DeploymentRecord, 0, len(snap.Records))
		for _, k := range deploy.AllKinds() {
			if rec, ok := snap.Records[k]; ok {
				records = append(records, rec)
			}
		}
		pending := make([]deploy.PendingCreation, 0, len(snap.Pending))
		for _, p := range snap.Pending {
			pending = append(pending, p)
		}
		return printJSON(map[string]any{
			"network":  network,
			"complete": snap.Complete(),
			"missing":  snap.Missing(),
			"modules":  records,
			"pending":  pending,
		})
	},
}

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yungbote/court-deployer/internal/deploy/plan"
	"github.com/yungbote/court-deployer/internal/domain/deploy"
	"github.com/yungbote/court-deployer/internal/temporalx/deployrun"
)

var (
	flagSubmitCommand string
	flagSubmitWait    bool
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Start a deployment run on the Temporal worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		command := strings.ToLower(strings.TrimSpace(flagSubmitCommand))
		if command != deploy.RunCommandDeploy && command != deploy.RunCommandVerify {
			return fmt.Errorf("--command must be %s or %s", deploy.RunCommandDeploy, deploy.RunCommandVerify)
		}

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		raw, err := os.ReadFile(flagPlan)
		if err != nil {
			return fmt.Errorf("read plan: %w", err)
		}
		// validate locally so a broken plan never reaches the worker
		p, err := plan.Parse(raw, a.Cfg.Network)
		if err != nil {
			return err
		}
		res, workflowID, err := a.Submit(ctx, deployrun.Input{
			Network:            p.Network,
			PlanYAML:           string(raw),
			Command:            command,
			ParallelDependents: a.Cfg.ParallelDependents,
			PendingPolicy:      a.Cfg.PendingPolicy,
		}, flagSubmitWait)
		if workflowID != "" {
			fmt.Fprintf(os.Stderr, "workflow %s\n", workflowID)
		}
		if err != nil {
			if flagSubmitWait && res.Network != "" {
				_ = printJSON(res)
			}
			return err
		}
		if flagSubmitWait {
			return printJSON(res)
		}
		return nil
	},
}

func init() {
	addPlanFlags(submitCmd)
	submitCmd.Flags().StringVar(&flagSubmitCommand, "command", deploy.RunCommandDeploy, "deploy or verify")
	submitCmd.Flags().BoolVar(&flagSubmitWait, "wait", false, "wait for the run to finish and print its summary")
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/yungbote/court-deployer/internal/domain/deploy"
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Create, wire and hand off every court module, skipping what is already recorded",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlanCommand(deploy.RunCommandDeploy)
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Publish source verification for every recorded module",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlanCommand(deploy.RunCommandVerify)
	},
}

func init() {
	addPlanFlags(deployCmd)
	addPlanFlags(verifyCmd)
}

// runPlanCommand prints the report even when the run fails so the operator
// sees which modules were resolved before the failure.
func runPlanCommand(command string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := loadPlan(a.Cfg.Network)
	if err != nil {
		return err
	}
	report, runErr := a.RunPlan(ctx, p, command, a.DefaultRunOptions())
	if report != nil {
		if err := printJSON(report); err != nil {
			return err
		}
	}
	return runErr
}

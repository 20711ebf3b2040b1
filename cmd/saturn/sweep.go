package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"custodia-hq/saturn/pkg/cli"
	"custodia-hq/saturn/pkg/config"
	"custodia-hq/saturn/pkg/retention/sweep"
	"custodia-hq/saturn/pkg/telemetry/logging"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a single expiration sweep pass",
	Long: `Run one expiration sweep pass against the configured document store.

Every record whose retention has elapsed is processed: its end actions
run and a retention expired event is published. Records already under
legal hold keep their data until the hold is lifted.

Examples:
  # Sweep the configured document store once
  saturn sweep --config /etc/saturn/config.yaml`,
	RunE: sweepOnce,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}

func sweepOnce(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}
	if _, err := logging.Setup(&cfg.Telemetry.Logging); err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}

	comps, err := buildComponents(cfg)
	if err != nil {
		return cli.NewCommandError("sweep", err)
	}
	defer comps.Close()

	sweeper := sweep.NewSweeper(sweep.Config{
		Repo:    comps.repo,
		Engine:  comps.engine,
		Timeout: cfg.Sweep.Timeout,
	})
	processed, err := sweeper.Sweep(cmd.Context())
	if err != nil {
		return cli.NewCommandError("sweep", err)
	}

	fmt.Printf("✓ Sweep complete (%d records processed)\n", processed)
	return nil
}

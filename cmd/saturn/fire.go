package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"custodia-hq/saturn/pkg/cli"
	"custodia-hq/saturn/pkg/config"
	"custodia-hq/saturn/pkg/retention/dispatch"
	"custodia-hq/saturn/pkg/security/auth"
	"custodia-hq/saturn/pkg/telemetry/logging"
)

var fireFlags struct {
	event string
	input string
	audit bool
}

var fireCmd = &cobra.Command{
	Use:   "fire",
	Short: "Fire a retention event",
	Long: `Fire a retention event carrying an optional input value.

The event is matched against event-based rules and the resulting
evaluation tasks are submitted to the configured queue. With a shared
sqlite queue a running daemon picks the tasks up; with the memory queue
this command only publishes the event.

Examples:
  # Fire a contract end event for a specific contract
  saturn fire --event retention.contractEnd --input C-1042

  # Fire without recording an audit entry
  saturn fire --event retention.caseClosed --audit=false`,
	RunE: fireEvent,
}

func init() {
	rootCmd.AddCommand(fireCmd)

	fireCmd.Flags().StringVar(&fireFlags.event, "event", "", "event name (required)")
	fireCmd.Flags().StringVar(&fireFlags.input, "input", "", "event input value")
	fireCmd.Flags().BoolVar(&fireFlags.audit, "audit", true, "record an audit entry for the event")
	_ = fireCmd.MarkFlagRequired("event")
}

func fireEvent(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}
	if _, err := logging.Setup(&cfg.Telemetry.Logging); err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}

	comps, err := buildComponents(cfg)
	if err != nil {
		return cli.NewCommandError("fire", err)
	}
	defer comps.Close()

	// Route the event through the dispatcher so evaluation tasks land on
	// the configured queue.
	dispatch.NewDispatcher(comps.rules, comps.queue).Register(comps.bus)

	ctx := cmd.Context()
	if err := comps.engine.FireRetentionEvent(ctx, auth.System, fireFlags.event, fireFlags.input, fireFlags.audit); err != nil {
		return cli.NewCommandError("fire", err)
	}

	depth, err := comps.queue.Depth(ctx)
	if err != nil {
		return cli.NewCommandError("fire", err)
	}
	fmt.Printf("✓ Event %s fired (queue depth: %d)\n", fireFlags.event, depth)
	return nil
}

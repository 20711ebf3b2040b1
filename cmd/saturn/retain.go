package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"custodia-hq/saturn/pkg/cli"
	"custodia-hq/saturn/pkg/config"
	"custodia-hq/saturn/pkg/security/auth"
	"custodia-hq/saturn/pkg/telemetry/logging"
)

var retainFlags struct {
	documentID string
	until      string
}

var retainCmd = &cobra.Command{
	Use:   "retain",
	Short: "Retain a document without a rule",
	Long: `Turn a document into an enforced record with an explicit
retain-until date, without attaching a retention rule.

Without --until the document is retained indeterminately, pending a
later explicit date.

Examples:
  # Retain until a fixed date
  saturn retain --document 7c0e... --until 2036-01-01T00:00:00Z

  # Retain with no known end date
  saturn retain --document 7c0e...`,
	RunE: retainDocument,
}

func init() {
	rootCmd.AddCommand(retainCmd)

	retainCmd.Flags().StringVar(&retainFlags.documentID, "document", "", "document id (required)")
	retainCmd.Flags().StringVar(&retainFlags.until, "until", "", "retain-until instant (RFC3339); omit for indeterminate")
	_ = retainCmd.MarkFlagRequired("document")
}

func retainDocument(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}
	if _, err := logging.Setup(&cfg.Telemetry.Logging); err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}

	var until *time.Time
	if retainFlags.until != "" {
		t, err := time.Parse(time.RFC3339, retainFlags.until)
		if err != nil {
			return fmt.Errorf("invalid --until value: %w", err)
		}
		until = &t
	}

	comps, err := buildComponents(cfg)
	if err != nil {
		return cli.NewCommandError("retain", err)
	}
	defer comps.Close()

	record, err := comps.engine.Retain(cmd.Context(), auth.System, retainFlags.documentID, until)
	if err != nil {
		return cli.NewCommandError("retain", err)
	}

	if until != nil {
		fmt.Printf("✓ Document %s retained until %s (%s record)\n",
			retainFlags.documentID, until.Format(time.RFC3339), record.Kind())
	} else {
		fmt.Printf("✓ Document %s retained indeterminately (%s record)\n",
			retainFlags.documentID, record.Kind())
	}
	return nil
}

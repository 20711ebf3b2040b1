package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"custodia-hq/saturn/pkg/cli"
	"custodia-hq/saturn/pkg/config"
	"custodia-hq/saturn/pkg/retention/source"
)

var validateFlags struct {
	rulesPath string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and rule definitions",
	Long: `Validate the configuration file and the retention rule definitions.

The validate command loads the configuration, applies defaults and
environment overrides, and checks every field. It then parses the rule
file and validates each rule definition, including starting point
policies, durations, and duplicate rule ids.

Examples:
  # Validate the default config and its rule file
  saturn validate

  # Validate a specific config
  saturn validate --config /etc/saturn/config.yaml

  # Validate a rule file directly
  saturn validate --rules ./rules.yaml`,
	RunE: validateAll,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateFlags.rulesPath, "rules", "", "rule file to validate (uses config if not specified)")
}

func validateAll(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}
	fmt.Printf("✓ Configuration valid: %s\n", cfgFile)

	rulesPath := validateFlags.rulesPath
	if rulesPath == "" {
		rulesPath = cfg.Rules.FilePath
	}

	rules, err := source.NewFileSource(rulesPath).Load()
	if err != nil {
		return cli.NewCommandError("validate", err)
	}

	enabled := 0
	for _, rule := range rules {
		if rule.Enabled {
			enabled++
		}
	}
	fmt.Printf("✓ Rules valid: %s (%d rules, %d enabled)\n", rulesPath, len(rules), enabled)

	return nil
}

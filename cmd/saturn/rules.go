package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"custodia-hq/saturn/pkg/cli"
	"custodia-hq/saturn/pkg/config"
	"custodia-hq/saturn/pkg/retention"
	"custodia-hq/saturn/pkg/retention/source"
)

var rulesFlags struct {
	rulesPath string
	format    string
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the configured retention rules",
	Long: `List the retention rules defined in the configured rule file.

Examples:
  # List rules from the configured rule file
  saturn rules

  # List rules from a specific file as JSON
  saturn rules --rules ./rules.yaml --format json`,
	RunE: listRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)

	rulesCmd.Flags().StringVar(&rulesFlags.rulesPath, "rules", "", "rule file to read (uses config if not specified)")
	rulesCmd.Flags().StringVar(&rulesFlags.format, "format", "text", "output format: text, json")
}

func listRules(cmd *cobra.Command, args []string) error {
	rulesPath := rulesFlags.rulesPath
	if rulesPath == "" {
		cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
		if err != nil {
			return cli.NewConfigError("", err.Error())
		}
		rulesPath = cfg.Rules.FilePath
	}

	rules, err := source.NewFileSource(rulesPath).Load()
	if err != nil {
		return cli.NewCommandError("rules", err)
	}

	if cli.OutputFormat(rulesFlags.format) == cli.FormatJSON {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, rules)
	}

	if len(rules) == 0 {
		fmt.Println("No rules defined.")
		return nil
	}
	for _, rule := range rules {
		state := "enabled"
		if !rule.Enabled {
			state = "disabled"
		}
		fmt.Printf("%s  %s  %s  %s\n", rule.ID, rule.StartingPointPolicy, describeDuration(rule), state)
	}
	return nil
}

func describeDuration(rule *retention.Rule) string {
	var parts []string
	add := func(n int, unit string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d%s", n, unit))
		}
	}
	add(rule.DurationYears, "y")
	add(rule.DurationMonths, "mo")
	add(rule.DurationDays, "d")
	add(rule.DurationHours, "h")
	add(rule.DurationMinutes, "m")
	add(rule.DurationMillis, "ms")
	if len(parts) == 0 {
		return "0d"
	}
	return strings.Join(parts, " ")
}

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"custodia-hq/saturn/pkg/config"
)

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{
		"run":      false,
		"validate": false,
		"rules":    false,
		"fire":     false,
		"retain":   false,
		"sweep":    false,
		"version":  false,
	}
	for _, cmd := range rootCmd.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	if versionCmd.Use != "version" {
		t.Errorf("versionCmd.Use = %q, want %q", versionCmd.Use, "version")
	}
	if versionCmd.Run == nil {
		t.Error("versionCmd.Run should not be nil")
	}
	if Version == "" {
		t.Error("Version should not be empty")
	}
}

func TestBuildComponentsMemoryBackends(t *testing.T) {
	dir := t.TempDir()
	rulesPath := filepath.Join(dir, "rules.yaml")
	if err := os.WriteFile(rulesPath, []byte(`
rules:
  - id: contracts-10y
    application_policy: manual
    starting_point_policy: immediate
    duration_years: 10
    enabled: true
`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.NewDefaultConfig()
	cfg.Rules.FilePath = rulesPath
	cfg.Documents.Backend = "memory"
	cfg.Queue.Backend = "memory"
	cfg.Audit.Backend = "memory"
	cfg.Vocabulary.Backend = "memory"

	comps, err := buildComponents(cfg)
	if err != nil {
		t.Fatalf("buildComponents() error = %v", err)
	}
	defer comps.Close()

	if comps.engine == nil {
		t.Error("engine not wired")
	}
	rules, err := comps.rules.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rules) != 1 || rules[0].ID != "contracts-10y" {
		t.Errorf("rules = %v, want the single loaded rule", rules)
	}
}

func TestBuildComponentsRejectsUnknownBackend(t *testing.T) {
	dir := t.TempDir()
	rulesPath := filepath.Join(dir, "rules.yaml")
	if err := os.WriteFile(rulesPath, []byte("rules: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.NewDefaultConfig()
	cfg.Rules.FilePath = rulesPath
	cfg.Documents.Backend = "postgres"

	if _, err := buildComponents(cfg); err == nil {
		t.Error("buildComponents() error = nil, want unsupported backend error")
	}
}

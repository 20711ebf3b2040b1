package source

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"custodia-hq/saturn/pkg/retention"

	"gopkg.in/yaml.v3"
)

// ruleFile is the on-disk shape of a rule definition file.
type ruleFile struct {
	Rules []*retention.Rule `yaml:"rules"`
}

// FileSource loads retention rules from YAML files on disk.
type FileSource struct {
	path   string
	logger *slog.Logger
}

// NewFileSource creates a file-based rule source. The path can be a single
// file or a directory; for a directory every .yaml and .yml file is loaded.
func NewFileSource(path string) *FileSource {
	return &FileSource{
		path:   path,
		logger: slog.Default().With("component", "retention.source"),
	}
}

// Load reads and validates all rules from the configured path. Duplicate
// rule ids across files are an error.
func (s *FileSource) Load() ([]*retention.Rule, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path %q: %w", s.path, err)
	}

	var rules []*retention.Rule
	if info.IsDir() {
		rules, err = s.loadDirectory()
	} else {
		rules, err = s.loadFile(s.path)
	}
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("duplicate rule id %q", r.ID)
		}
		seen[r.ID] = true
	}

	s.logger.Info("loaded rules from source",
		"path", s.path,
		"rule_count", len(rules),
	)
	return rules, nil
}

// Sync loads the rules and replaces the store's rule set. On load failure
// the store keeps its current rules.
func (s *FileSource) Sync(store *retention.MemoryRuleStore) error {
	rules, err := s.Load()
	if err != nil {
		return err
	}
	store.Replace(rules)
	return nil
}

func (s *FileSource) loadDirectory() ([]*retention.Rule, error) {
	var rules []*retention.Rule
	err := filepath.Walk(s.path, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		loaded, err := s.loadFile(path)
		if err != nil {
			return err
		}
		rules = append(rules, loaded...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (s *FileSource) loadFile(path string) ([]*retention.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file %q: %w", path, err)
	}
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse rule file %q: %w", path, err)
	}
	return f.Rules, nil
}

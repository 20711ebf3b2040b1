package main

import (
	"fmt"
	"io"
	"log/slog"

	"custodia-hq/saturn/pkg/audit"
	"custodia-hq/saturn/pkg/config"
	"custodia-hq/saturn/pkg/document"
	"custodia-hq/saturn/pkg/document/storage"
	"custodia-hq/saturn/pkg/events"
	"custodia-hq/saturn/pkg/queue"
	"custodia-hq/saturn/pkg/retention"
	"custodia-hq/saturn/pkg/retention/actions"
	"custodia-hq/saturn/pkg/retention/engine"
	"custodia-hq/saturn/pkg/retention/source"
	"custodia-hq/saturn/pkg/security/auth"
	"custodia-hq/saturn/pkg/telemetry/metrics"
	"custodia-hq/saturn/pkg/vocabulary"
)

// components holds the wired runtime collaborators shared by the run, fire,
// and sweep commands.
type components struct {
	repo    document.Repository
	queue   queue.Queue
	audit   audit.Logger
	vocab   vocabulary.Directory
	rules   *retention.MemoryRuleStore
	source  *source.FileSource
	bus     *events.Bus
	engine  *engine.Engine
	metrics *metrics.Collector

	closers []io.Closer
}

// buildComponents opens the configured backends, loads the rule file, and
// wires the retention engine. Callers must Close the result.
func buildComponents(cfg *config.Config) (*components, error) {
	c := &components{
		rules:  retention.NewMemoryRuleStore(),
		source: source.NewFileSource(cfg.Rules.FilePath),
		bus:    events.NewBus(),
	}

	if err := c.source.Sync(c.rules); err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	var err error
	c.repo, err = openDocumentStore(cfg)
	if err != nil {
		c.Close()
		return nil, err
	}
	if closer, ok := c.repo.(io.Closer); ok {
		c.closers = append(c.closers, closer)
	}

	c.queue, err = openQueue(cfg)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.closers = append(c.closers, c.queue)

	c.audit, err = openAudit(cfg)
	if err != nil {
		c.Close()
		return nil, err
	}
	if closer, ok := c.audit.(io.Closer); ok {
		c.closers = append(c.closers, closer)
	}

	c.vocab, err = openVocabulary(cfg)
	if err != nil {
		c.Close()
		return nil, err
	}
	if closer, ok := c.vocab.(io.Closer); ok {
		c.closers = append(c.closers, closer)
	}

	if cfg.Telemetry.Metrics.Enabled {
		c.metrics = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	}

	c.engine = engine.New(engine.Config{
		Repo:       c.repo,
		Rules:      c.rules,
		Authorizer: auth.NewStatic(),
		Executor:   actions.NewExecutor(c.repo),
		Bus:        c.bus,
		Audit:      c.audit,
		Vocabulary: c.vocab,
		Queue:      c.queue,
		Metrics:    c.metrics,
	})

	return c, nil
}

// Close releases every backend opened by buildComponents, in reverse order.
func (c *components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			slog.Warn("failed to close component", "error", err)
		}
	}
	c.closers = nil
}

func openDocumentStore(cfg *config.Config) (document.Repository, error) {
	switch cfg.Documents.Backend {
	case "sqlite":
		repo, err := storage.NewSQLiteRepository(&storage.SQLiteConfig{
			Path:        cfg.Documents.SQLitePath,
			BusyTimeout: cfg.Documents.BusyTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open document store: %w", err)
		}
		return repo, nil
	case "memory":
		return storage.NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported documents backend: %s", cfg.Documents.Backend)
	}
}

func openQueue(cfg *config.Config) (queue.Queue, error) {
	switch cfg.Queue.Backend {
	case "sqlite":
		q, err := queue.NewSQLiteWithConfig(queue.SQLiteConfig{
			DBPath: cfg.Queue.SQLitePath,
			Lease:  cfg.Queue.Lease,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open queue: %w", err)
		}
		return q, nil
	case "memory":
		return queue.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported queue backend: %s", cfg.Queue.Backend)
	}
}

func openAudit(cfg *config.Config) (audit.Logger, error) {
	if !cfg.Audit.Enabled {
		return nil, nil
	}
	switch cfg.Audit.Backend {
	case "sqlite":
		log, err := audit.NewSQLite(cfg.Audit.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open audit store: %w", err)
		}
		return log, nil
	case "memory":
		return audit.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported audit backend: %s", cfg.Audit.Backend)
	}
}

func openVocabulary(cfg *config.Config) (vocabulary.Directory, error) {
	switch cfg.Vocabulary.Backend {
	case "sqlite":
		dir, err := vocabulary.NewSQLite(cfg.Vocabulary.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open vocabulary: %w", err)
		}
		return dir, nil
	case "memory":
		return vocabulary.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported vocabulary backend: %s", cfg.Vocabulary.Backend)
	}
}

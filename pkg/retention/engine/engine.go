package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"custodia-hq/saturn/pkg/audit"
	"custodia-hq/saturn/pkg/config"
	"custodia-hq/saturn/pkg/document"
	"custodia-hq/saturn/pkg/events"
	"custodia-hq/saturn/pkg/queue"
	"custodia-hq/saturn/pkg/retention"
	"custodia-hq/saturn/pkg/retention/actions"
	"custodia-hq/saturn/pkg/security/auth"
	"custodia-hq/saturn/pkg/telemetry/metrics"
	"custodia-hq/saturn/pkg/vocabulary"
)

// Notification events emitted by engine operations.
const (
	EventRuleAttached     = "retentionRuleAttached"
	EventRuleUnattached   = "retentionRuleUnattached"
	EventRetentionExpired = "retentionExpired"
	EventLegalHoldChanged = "legalHoldChanged"
)

// Config wires the engine's collaborators. Repo, Rules, Authorizer, and
// Executor are required; the rest are optional.
type Config struct {
	// Repo is the document store.
	Repo document.Repository

	// Rules resolves rule references.
	Rules retention.RuleStore

	// Authorizer answers the per-operation authorization gates.
	Authorizer auth.Authorizer

	// Executor runs begin and end action sequences.
	Executor *actions.Executor

	// Bus receives notification events. Optional.
	Bus *events.Bus

	// Audit receives audit entries. Optional; nil disables auditing.
	Audit audit.Logger

	// Vocabulary enumerates accepted trigger events. Optional; nil yields
	// an empty accepted-events list.
	Vocabulary vocabulary.Directory

	// Queue receives batched evaluation work from EvalRules. Optional.
	Queue queue.Queue

	// Metrics collects engine metrics. Optional; nil creates an isolated
	// collector.
	Metrics *metrics.Collector

	// Now overrides the clock, used by tests. Optional.
	Now func() time.Time
}

// Engine orchestrates the record retention lifecycle.
type Engine struct {
	repo    document.Repository
	rules   retention.RuleStore
	authz   auth.Authorizer
	exec    *actions.Executor
	bus     *events.Bus
	audit   audit.Logger
	vocab   vocabulary.Directory
	queue   queue.Queue
	metrics *metrics.Collector
	logger  *slog.Logger
	now     func() time.Time

	// accepted-events cache, lazily computed and explicitly invalidated.
	eventsMu     sync.Mutex
	eventsCache  []string
	eventsCached bool
}

// New creates an engine from the given configuration.
func New(cfg Config) *Engine {
	e := &Engine{
		repo:    cfg.Repo,
		rules:   cfg.Rules,
		authz:   cfg.Authorizer,
		exec:    cfg.Executor,
		bus:     cfg.Bus,
		audit:   cfg.Audit,
		vocab:   cfg.Vocabulary,
		queue:   cfg.Queue,
		metrics: cfg.Metrics,
		logger:  slog.Default().With("component", "retention.engine"),
		now:     cfg.Now,
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.metrics == nil {
		e.metrics = metrics.NewCollector(&config.MetricsConfig{
			Namespace: config.DefaultMetricsNamespace,
			Subsystem: config.DefaultMetricsSubsystem,
		}, nil)
	}
	return e
}

func (e *Engine) publish(ev events.Event) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(ev)
}

func (e *Engine) appendAudit(ctx context.Context, entry audit.Entry) {
	if e.audit == nil {
		return
	}
	if err := e.audit.Append(ctx, entry); err != nil {
		e.logger.Warn("audit append failed",
			"event", entry.EventID,
			"error", err,
		)
	}
}

// AcceptedEvents returns the identifiers of all non-obsolete trigger
// events. The list is computed on first read and cached until Invalidate.
func (e *Engine) AcceptedEvents(ctx context.Context) ([]string, error) {
	e.eventsMu.Lock()
	defer e.eventsMu.Unlock()

	if !e.eventsCached {
		var ids []string
		if e.vocab != nil {
			var err error
			ids, err = e.vocab.AcceptedEvents(ctx)
			if err != nil {
				return nil, err
			}
		}
		e.eventsCache = ids
		e.eventsCached = true
	}

	out := make([]string, len(e.eventsCache))
	copy(out, e.eventsCache)
	return out, nil
}

// Invalidate discards the accepted-events cache. The next AcceptedEvents
// call rebuilds it from the vocabulary.
func (e *Engine) Invalidate() {
	e.eventsMu.Lock()
	defer e.eventsMu.Unlock()
	e.eventsCache = nil
	e.eventsCached = false
}

package dispatch

import (
	"context"
	"log/slog"

	"custodia-hq/saturn/pkg/events"
	"custodia-hq/saturn/pkg/queue"
	"custodia-hq/saturn/pkg/retention"
)

// Dispatcher projects retention events onto batched evaluation tasks. It
// performs no evaluation itself.
type Dispatcher struct {
	rules  retention.RuleStore
	queue  queue.Queue
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher over the given rule store and queue.
func NewDispatcher(rules retention.RuleStore, q queue.Queue) *Dispatcher {
	return &Dispatcher{
		rules:  rules,
		queue:  q,
		logger: slog.Default().With("component", "retention.dispatch"),
	}
}

// Register subscribes the dispatcher to the bus.
func (d *Dispatcher) Register(bus *events.Bus) {
	bus.Subscribe(d.handle)
}

// handle runs on the publishing goroutine and must stay cheap: one
// projection query and one queue submission.
func (d *Dispatcher) handle(e events.Event) {
	if e.Category != events.CategoryRetention {
		return
	}
	ctx := context.Background()

	ruleIDs, err := d.rules.EventBasedRuleIDs(ctx, e.Name)
	if err != nil {
		d.logger.Error("rule projection failed",
			"event", e.Name,
			"error", err,
		)
		return
	}
	if len(ruleIDs) == 0 {
		return
	}

	ids := make([]any, len(ruleIDs))
	for i, id := range ruleIDs {
		ids[i] = id
	}
	_, err = d.queue.Submit(ctx, queue.KindEvalEventRules, map[string]any{
		"event":   e.Name,
		"input":   e.Input,
		"ruleIds": ids,
	})
	if err != nil {
		// Fire-and-forget: the queue backend owns durability and retry.
		d.logger.Error("task submission failed",
			"event", e.Name,
			"error", err,
		)
		return
	}
	d.logger.Debug("evaluation task submitted",
		"event", e.Name,
		"rules", len(ruleIDs),
	)
}

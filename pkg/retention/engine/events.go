package engine

import (
	"context"
	"regexp"

	"custodia-hq/saturn/pkg/audit"
	"custodia-hq/saturn/pkg/events"
	"custodia-hq/saturn/pkg/queue"
	"custodia-hq/saturn/pkg/retention"
	"custodia-hq/saturn/pkg/retention/expr"
	"custodia-hq/saturn/pkg/security/auth"
)

// Event input is interpolated into rule expressions as a bound variable, so
// it is restricted to a conservative charset and bounded length up front.
var eventInputPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 _.:/-]{0,127}$`)

// FireRetentionEvent emits a retention event carrying the given input. Only
// administrators and record managers may fire retention events. When
// auditEvent is true an audit entry with the same payload is appended.
func (e *Engine) FireRetentionEvent(ctx context.Context, p auth.Principal, eventName, eventInput string, auditEvent bool) error {
	if !e.authz.IsAdmin(ctx, p) && !e.authz.IsMemberOf(ctx, p, auth.RecordManagerRole) {
		return &retention.NotAuthorizedError{Principal: p.Name, Operation: "fire-event"}
	}
	if eventInput != "" && !eventInputPattern.MatchString(eventInput) {
		return &retention.InvalidInputError{Input: eventInput}
	}

	e.publish(events.Event{
		Name:      eventName,
		Category:  events.CategoryRetention,
		Input:     eventInput,
		Principal: p.Name,
		Time:      e.now(),
	})
	if auditEvent {
		e.appendAudit(ctx, audit.NewEntry(eventName, p.Name, eventInput))
	}

	e.metrics.Retention.RecordEventFired(eventName)
	e.logger.Info("retention event fired",
		"event", eventName,
		"principal", p.Name,
	)
	return nil
}

// ApplyEventBasedRules evaluates the record's attached event-based rule
// against a fired event. It reports whether the rule matched and retention
// transitioned to a concrete end time.
//
// The call is a no-op returning false when the document is not a record,
// has no resolvable rule, the rule is not event-based, or the event name
// differs. A record whose retention is already expired never re-triggers:
// expiration processing runs instead and false is returned.
func (e *Engine) ApplyEventBasedRules(ctx context.Context, documentID, eventName, eventInput string) (bool, error) {
	doc, err := e.repo.Get(ctx, documentID)
	if err != nil {
		return false, err
	}
	rec := retention.AsRecord(doc)
	if !rec.IsRecord() {
		return false, nil
	}

	rule, err := rec.Rule(ctx, e.rules)
	if err != nil {
		return false, err
	}
	if rule == nil || !rule.IsEventBased() || rule.StartingPointEvent != eventName {
		return false, nil
	}

	now := e.now()
	if rec.IsRetentionExpired(now) {
		if err := e.ProceedRetentionExpired(ctx, documentID); err != nil {
			return false, err
		}
		return false, nil
	}

	matched, err := e.ruleMatches(rule, rec, eventInput)
	if err != nil {
		e.metrics.Retention.RecordEvaluation(rule.ID, "error")
		return false, err
	}
	if !matched {
		e.metrics.Retention.RecordEvaluation(rule.ID, "unmatched")
		return false, nil
	}

	// A concrete end time never moves backward to indeterminate.
	doc.SetRetainUntil(rule.RetainUntilFrom(now))
	if err := e.repo.Save(ctx, doc); err != nil {
		return false, err
	}

	e.metrics.Retention.RecordEvaluation(rule.ID, "matched")
	e.logger.Info("event-based rule matched",
		"rule_id", rule.ID,
		"document_id", doc.ID,
		"event", eventName,
	)
	return true, nil
}

// ruleMatches applies the rule's trigger condition to the event input. An
// exact-match trigger value takes precedence; otherwise the expression is
// evaluated with the record's document, currentDate, and eventInput bound.
// A rule with neither matches any input.
func (e *Engine) ruleMatches(rule *retention.Rule, rec *retention.Record, eventInput string) (bool, error) {
	if rule.StartingPointValue != "" {
		return rule.StartingPointValue == eventInput, nil
	}
	compiled, err := expr.Compile(rule.StartingPointExpression)
	if err != nil {
		return false, err
	}
	return compiled.EvalBool(&expr.Env{
		Document: rec.Document().Clone(),
		Vars: map[string]any{
			"currentDate": e.now(),
			"eventInput":  eventInput,
		},
	})
}

// ProceedRetentionExpired runs the end actions of the record's attached
// rule. It does not track prior invocations; end actions are required to be
// idempotent and the surrounding sweep keeps invocation frequency sane.
func (e *Engine) ProceedRetentionExpired(ctx context.Context, documentID string) error {
	doc, err := e.repo.Get(ctx, documentID)
	if err != nil {
		return err
	}
	rec := retention.AsRecord(doc)

	rule, err := rec.Rule(ctx, e.rules)
	if err != nil {
		return err
	}
	if rule != nil {
		if _, err := e.exec.Run(ctx, doc, rule.EndActions); err != nil {
			return err
		}
	}

	e.publish(events.Event{
		Name:       EventRetentionExpired,
		Category:   events.CategoryDocument,
		Principal:  auth.System.Name,
		DocumentID: doc.ID,
		Time:       e.now(),
	})
	e.metrics.Retention.RecordExpiration()
	e.logger.Info("retention expired",
		"document_id", doc.ID,
		"rule_id", rec.RuleID(),
	)
	return nil
}

// EvalRules schedules targeted re-evaluation of the given documents. The
// map associates document ids with the event names to evaluate them
// against. One batched work item is submitted per call; an empty map is a
// no-op and never schedules empty work.
func (e *Engine) EvalRules(ctx context.Context, docEvents map[string][]string) error {
	if len(docEvents) == 0 || e.queue == nil {
		return nil
	}

	docs := make(map[string]any, len(docEvents))
	for id, names := range docEvents {
		list := make([]any, len(names))
		for i, n := range names {
			list[i] = n
		}
		docs[id] = list
	}

	_, err := e.queue.Submit(ctx, queue.KindEvalDocs, map[string]any{"docs": docs})
	return err
}

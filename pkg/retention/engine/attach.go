package engine

import (
	"context"

	"custodia-hq/saturn/pkg/audit"
	"custodia-hq/saturn/pkg/document"
	"custodia-hq/saturn/pkg/events"
	"custodia-hq/saturn/pkg/retention"
	"custodia-hq/saturn/pkg/security/auth"
)

// AttachRule attaches a retention rule to a document, making it a record of
// the kind dictated by the rule and computing its retention per the rule's
// starting point policy. All preconditions are checked before any mutation;
// a refused attach leaves the document untouched.
func (e *Engine) AttachRule(ctx context.Context, p auth.Principal, ruleID, documentID string) (*retention.Record, error) {
	rule, doc, err := e.checkAttach(ctx, p, ruleID, documentID)
	if err != nil {
		e.metrics.Retention.RecordAttachmentFailure(attachFailureReason(err))
		return nil, err
	}

	now := e.now()
	orig := doc.Clone()
	doc.Record = true
	doc.Flexible = rule.MakeFlexibleRecords
	doc.RuleID = rule.ID

	switch {
	case rule.IsImmediate():
		doc.SetRetainUntil(rule.RetainUntilFrom(now))

	case rule.IsEventBased():
		doc.SetRetainUntil(document.RetainUntilIndeterminate)

	case rule.IsMetadataBased():
		start, _, _ := doc.DateProperty(rule.MetadataXPath)
		if start.IsZero() {
			// Null date field: the document becomes a record but is not
			// yet under retention.
			doc.ClearRetainUntil()
			e.logger.Info("metadata field is null, record created without retention",
				"rule_id", rule.ID,
				"document_id", doc.ID,
				"field", rule.MetadataXPath,
			)
			break
		}
		until := rule.RetainUntilFrom(start)
		if !now.Before(until) {
			doc.ClearRetainUntil()
			e.logger.Info("computed retention already past, record created without retention",
				"rule_id", rule.ID,
				"document_id", doc.ID,
				"retain_until", until,
			)
			break
		}
		doc.SetRetainUntil(until)
	}

	if err := e.repo.Save(ctx, doc); err != nil {
		return nil, err
	}

	doc, err = e.exec.Run(ctx, doc, rule.BeginActions)
	if err != nil {
		// A failed begin action aborts the attach: restore the pre-attach
		// snapshot so the document never surfaces as a half-attached record.
		if rerr := e.repo.Save(ctx, orig, document.WithoutSideEffects()); rerr != nil {
			e.logger.Error("rollback after failed begin action failed",
				"rule_id", rule.ID,
				"document_id", doc.ID,
				"error", rerr,
			)
		}
		e.metrics.Retention.RecordAttachmentFailure("action")
		return nil, err
	}

	e.publish(events.Event{
		Name:       EventRuleAttached,
		Category:   events.CategoryDocument,
		Principal:  p.Name,
		DocumentID: doc.ID,
		Input:      rule.ID,
		Time:       now,
	})
	entry := audit.NewEntry(EventRuleAttached, p.Name, "rule "+rule.ID)
	entry.DocumentID = doc.ID
	e.appendAudit(ctx, entry)

	e.metrics.Retention.RecordAttachment(rule.ID, string(rule.StartingPointPolicy))
	e.logger.Info("rule attached",
		"rule_id", rule.ID,
		"document_id", doc.ID,
		"principal", p.Name,
	)
	return retention.AsRecord(doc), nil
}

// CanAttachRule is the non-throwing probe around the attach preconditions.
// Validation and authorization refusals yield false; unexpected errors
// still propagate.
func (e *Engine) CanAttachRule(ctx context.Context, p auth.Principal, ruleID, documentID string) (bool, error) {
	if _, _, err := e.checkAttach(ctx, p, ruleID, documentID); err != nil {
		if isAttachRefusal(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// checkAttach verifies every attach precondition in order and returns the
// resolved rule and a document snapshot ready for mutation.
func (e *Engine) checkAttach(ctx context.Context, p auth.Principal, ruleID, documentID string) (*retention.Rule, *document.Document, error) {
	if !e.canManageRetention(ctx, p, documentID) {
		return nil, nil, &retention.NotAuthorizedError{Principal: p.Name, Operation: "attach"}
	}

	rule, err := e.rules.Get(ctx, ruleID)
	if err != nil {
		return nil, nil, err
	}
	if !rule.Enabled {
		return nil, nil, &retention.RuleDisabledError{RuleID: rule.ID}
	}
	if rule.IsAfterDelay() {
		return nil, nil, &retention.UnsupportedError{Feature: "after-delay starting point"}
	}

	doc, err := e.repo.Get(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}
	if !rule.AcceptsDocType(doc.Type) {
		return nil, nil, &retention.DocTypeRejectedError{RuleID: rule.ID, DocType: doc.Type}
	}

	if rule.IsMetadataBased() {
		_, exists, isDate := doc.DateProperty(rule.MetadataXPath)
		if !exists {
			return nil, nil, &retention.InvalidMetadataFieldError{XPath: rule.MetadataXPath, Reason: "not found"}
		}
		if !isDate {
			return nil, nil, &retention.InvalidMetadataFieldError{XPath: rule.MetadataXPath, Reason: "not a date field"}
		}
	}

	now := e.now()
	if doc.IsUnderRetentionOrLegalHold(now) {
		return nil, nil, &retention.AlreadyRetainedError{DocumentID: doc.ID}
	}

	// Re-attach onto an expired record: an expired flexible record accepts
	// any rule kind, but an enforced record never becomes flexible.
	if doc.Record {
		rec := retention.AsRecord(doc)
		if rec.Kind() == retention.KindEnforced && rule.MakeFlexibleRecords {
			return nil, nil, &retention.RecordKindConflictError{
				DocumentID: doc.ID,
				RecordKind: retention.KindEnforced,
				RuleKind:   retention.KindFlexible,
			}
		}
	}

	return rule, doc, nil
}

// canManageRetention is the attach-class authorization gate: administrator,
// record manager, or both make-record and set-retention capabilities on the
// target document.
func (e *Engine) canManageRetention(ctx context.Context, p auth.Principal, documentID string) bool {
	if e.authz.IsAdmin(ctx, p) || e.authz.IsMemberOf(ctx, p, auth.RecordManagerRole) {
		return true
	}
	return e.authz.HasCapability(ctx, p, documentID, auth.CapMakeRecord) &&
		e.authz.HasCapability(ctx, p, documentID, auth.CapSetRetention)
}

func isAttachRefusal(err error) bool {
	switch err.(type) {
	case *retention.NotAuthorizedError,
		*retention.RuleDisabledError,
		*retention.DocTypeRejectedError,
		*retention.InvalidMetadataFieldError,
		*retention.AlreadyRetainedError,
		*retention.RecordKindConflictError,
		*retention.UnsupportedError,
		*retention.RuleNotFoundError,
		*document.NotFoundError:
		return true
	}
	return false
}

func attachFailureReason(err error) string {
	switch err.(type) {
	case *retention.NotAuthorizedError:
		return "unauthorized"
	case *retention.RuleDisabledError:
		return "disabled"
	case *retention.DocTypeRejectedError:
		return "doc-type"
	case *retention.InvalidMetadataFieldError:
		return "metadata"
	case *retention.AlreadyRetainedError:
		return "already-retained"
	case *retention.RecordKindConflictError:
		return "kind-conflict"
	case *retention.UnsupportedError:
		return "unsupported"
	default:
		return "error"
	}
}

// UnattachRule removes rule-driven retention from a flexible record. The
// document loses its record marking, rule reference, and retention in one
// side-effect-free save.
func (e *Engine) UnattachRule(ctx context.Context, p auth.Principal, documentID string) (*retention.Record, error) {
	if !e.canUnsetRetention(ctx, p, documentID) {
		return nil, &retention.NotAuthorizedError{Principal: p.Name, Operation: "unattach"}
	}

	doc, err := e.repo.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !doc.Record || !doc.Flexible {
		return nil, &retention.NotFlexibleRecordError{DocumentID: doc.ID}
	}

	ruleID := doc.RuleID
	doc.Record = false
	doc.Flexible = false
	doc.RuleID = ""
	doc.ClearRetainUntil()

	// Bulk state transition, not a document edit: suppress versioning,
	// notification, and audit listeners on the save itself.
	if err := e.repo.Save(ctx, doc, document.WithoutSideEffects()); err != nil {
		return nil, err
	}

	e.publish(events.Event{
		Name:       EventRuleUnattached,
		Category:   events.CategoryDocument,
		Principal:  p.Name,
		DocumentID: doc.ID,
		Input:      ruleID,
		Time:       e.now(),
	})
	entry := audit.NewEntry(EventRuleUnattached, p.Name, "rule "+ruleID)
	entry.DocumentID = doc.ID
	e.appendAudit(ctx, entry)

	e.logger.Info("rule unattached",
		"rule_id", ruleID,
		"document_id", doc.ID,
		"principal", p.Name,
	)
	return retention.AsRecord(doc), nil
}

func (e *Engine) canUnsetRetention(ctx context.Context, p auth.Principal, documentID string) bool {
	if e.authz.IsAdmin(ctx, p) || e.authz.IsMemberOf(ctx, p, auth.RecordManagerRole) {
		return true
	}
	return e.authz.HasCapability(ctx, p, documentID, auth.CapUnsetRetention)
}

package engine

import (
	"context"
	"time"

	"custodia-hq/saturn/pkg/audit"
	"custodia-hq/saturn/pkg/document"
	"custodia-hq/saturn/pkg/events"
	"custodia-hq/saturn/pkg/retention"
	"custodia-hq/saturn/pkg/security/auth"
)

// SetLegalHold places or lifts a legal hold on a document. A hold is an
// independent retention lock: it does not touch the rule reference or the
// retain-until value. The description is recorded when placing a hold and
// cleared when lifting it.
func (e *Engine) SetLegalHold(ctx context.Context, p auth.Principal, documentID string, hold bool, description string) (*retention.Record, error) {
	if !e.canSetLegalHold(ctx, p, documentID) {
		return nil, &retention.NotAuthorizedError{Principal: p.Name, Operation: "set-legal-hold"}
	}

	doc, err := e.repo.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	doc.LegalHold = hold
	if hold {
		doc.HoldDescription = description
	} else {
		doc.HoldDescription = ""
	}
	if err := e.repo.Save(ctx, doc); err != nil {
		return nil, err
	}

	e.publish(events.Event{
		Name:       EventLegalHoldChanged,
		Category:   events.CategoryDocument,
		Principal:  p.Name,
		DocumentID: doc.ID,
		Time:       e.now(),
	})
	comment := "hold lifted"
	if hold {
		comment = "hold placed: " + description
	}
	entry := audit.NewEntry(EventLegalHoldChanged, p.Name, comment)
	entry.DocumentID = doc.ID
	e.appendAudit(ctx, entry)

	e.logger.Info("legal hold changed",
		"document_id", doc.ID,
		"hold", hold,
		"principal", p.Name,
	)
	return retention.AsRecord(doc), nil
}

func (e *Engine) canSetLegalHold(ctx context.Context, p auth.Principal, documentID string) bool {
	if e.authz.IsAdmin(ctx, p) || e.authz.IsMemberOf(ctx, p, auth.RecordManagerRole) {
		return true
	}
	return e.authz.HasCapability(ctx, p, documentID, auth.CapSetLegalHold)
}

// Retain puts a document under direct retention without a rule: it becomes
// an enforced record retained until the given instant, or indeterminately
// when until is nil. The document must not already be under retention or
// legal hold.
func (e *Engine) Retain(ctx context.Context, p auth.Principal, documentID string, until *time.Time) (*retention.Record, error) {
	if !e.canManageRetention(ctx, p, documentID) {
		return nil, &retention.NotAuthorizedError{Principal: p.Name, Operation: "retain"}
	}

	doc, err := e.repo.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.IsUnderRetentionOrLegalHold(e.now()) {
		return nil, &retention.AlreadyRetainedError{DocumentID: doc.ID}
	}

	doc.Record = true
	doc.Flexible = false
	doc.RuleID = ""
	if until == nil {
		doc.SetRetainUntil(document.RetainUntilIndeterminate)
	} else {
		doc.SetRetainUntil(*until)
	}
	if err := e.repo.Save(ctx, doc); err != nil {
		return nil, err
	}

	entry := audit.NewEntry("retain", p.Name, "")
	entry.DocumentID = doc.ID
	e.appendAudit(ctx, entry)

	e.logger.Info("document retained",
		"document_id", doc.ID,
		"principal", p.Name,
	)
	return retention.AsRecord(doc), nil
}

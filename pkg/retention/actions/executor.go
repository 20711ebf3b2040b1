package actions

import (
	"context"
	"fmt"
	"log/slog"

	"custodia-hq/saturn/pkg/document"
	"custodia-hq/saturn/pkg/retention"
)

// Reserved action identifiers with built-in idempotence guards.
const (
	ActionLock   = "document.lock"
	ActionUnlock = "document.unlock"
	ActionTrash  = "document.trash"
	ActionDelete = "document.delete"
)

// Action applies one named operation to a document snapshot and returns
// the updated snapshot. Actions persist their own side effects through the
// repository they capture.
type Action func(ctx context.Context, doc *document.Document) (*document.Document, error)

// Executor runs ordered action sequences against documents.
type Executor struct {
	repo     document.Repository
	registry map[string]Action
	logger   *slog.Logger
}

// NewExecutor creates an executor with the built-in document actions
// registered.
func NewExecutor(repo document.Repository) *Executor {
	e := &Executor{
		repo:     repo,
		registry: make(map[string]Action),
		logger:   slog.Default().With("component", "retention.actions"),
	}
	e.Register(ActionLock, e.lock)
	e.Register(ActionUnlock, e.unlock)
	e.Register(ActionTrash, e.trash)
	e.Register(ActionDelete, e.trash)
	return e
}

// Register adds or replaces a named action. Platform deployments register
// their own operation chains here.
func (e *Executor) Register(id string, fn Action) {
	e.registry[id] = fn
}

// Run executes the action ids in order against the document. The returned
// snapshot reflects all applied actions. The first failure aborts the
// remaining sequence.
func (e *Executor) Run(ctx context.Context, doc *document.Document, actionIDs []string) (*document.Document, error) {
	for _, id := range actionIDs {
		e.logger.Debug("executing action",
			"action", id,
			"document_id", doc.ID,
		)

		// Idempotence guards for the reserved identifiers.
		switch id {
		case ActionLock:
			if doc.Locked {
				continue
			}
		case ActionUnlock:
			if !doc.Locked {
				continue
			}
		case ActionTrash, ActionDelete:
			if doc.Locked {
				unlocked, err := e.unlock(ctx, doc)
				if err != nil {
					return doc, &retention.ActionExecutionError{ActionID: id, Cause: err}
				}
				doc = unlocked
			}
		}

		fn, ok := e.registry[id]
		if !ok {
			return doc, &retention.ActionExecutionError{ActionID: id, Cause: fmt.Errorf("unknown action")}
		}
		next, err := fn(ctx, doc)
		if err != nil {
			return doc, &retention.ActionExecutionError{ActionID: id, Cause: err}
		}
		doc = next
	}
	return doc, nil
}

func (e *Executor) lock(ctx context.Context, doc *document.Document) (*document.Document, error) {
	doc.Locked = true
	if err := e.repo.Save(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (e *Executor) unlock(ctx context.Context, doc *document.Document) (*document.Document, error) {
	doc.Locked = false
	if err := e.repo.Save(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (e *Executor) trash(ctx context.Context, doc *document.Document) (*document.Document, error) {
	doc.Trashed = true
	if err := e.repo.Save(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

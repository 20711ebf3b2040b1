package actions

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"custodia-hq/saturn/pkg/document"
	"custodia-hq/saturn/pkg/document/storage"
	"custodia-hq/saturn/pkg/retention"
)

func newTestDoc(t *testing.T, repo document.Repository, id string) *document.Document {
	t.Helper()
	doc := &document.Document{ID: id, Type: "File"}
	if err := repo.Save(context.Background(), doc); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return doc
}

func TestRunLockGuards(t *testing.T) {
	repo := storage.NewMemoryRepository()
	exec := NewExecutor(repo)
	ctx := context.Background()

	doc := newTestDoc(t, repo, "doc-1")

	// Locking twice must not error: the second lock is skipped.
	doc, err := exec.Run(ctx, doc, []string{ActionLock, ActionLock})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !doc.Locked {
		t.Error("document should be locked")
	}

	// Unlock, then unlock again: the second unlock is skipped.
	doc, err = exec.Run(ctx, doc, []string{ActionUnlock, ActionUnlock})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if doc.Locked {
		t.Error("document should be unlocked")
	}
}

func TestRunTrashRemovesLockFirst(t *testing.T) {
	repo := storage.NewMemoryRepository()
	exec := NewExecutor(repo)
	ctx := context.Background()

	doc := newTestDoc(t, repo, "doc-1")

	doc, err := exec.Run(ctx, doc, []string{ActionLock, ActionTrash})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if doc.Locked {
		t.Error("trash should have removed the lock")
	}
	if !doc.Trashed {
		t.Error("document should be trashed")
	}

	got, err := repo.Get(ctx, "doc-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.Trashed {
		t.Error("trashed state should be persisted")
	}
}

func TestRunUnknownActionAborts(t *testing.T) {
	repo := storage.NewMemoryRepository()
	exec := NewExecutor(repo)
	ctx := context.Background()

	doc := newTestDoc(t, repo, "doc-1")

	_, err := exec.Run(ctx, doc, []string{"no.such.action", ActionTrash})
	var actionErr *retention.ActionExecutionError
	if !errors.As(err, &actionErr) {
		t.Fatalf("Run returned %v, want *retention.ActionExecutionError", err)
	}
	if actionErr.ActionID != "no.such.action" {
		t.Errorf("ActionID = %q, want %q", actionErr.ActionID, "no.such.action")
	}

	// The failing action must abort the sequence: no trash applied.
	got, err := repo.Get(ctx, "doc-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Trashed {
		t.Error("sequence should have aborted before trash")
	}
}

func TestRunCustomActionFailure(t *testing.T) {
	repo := storage.NewMemoryRepository()
	exec := NewExecutor(repo)
	ctx := context.Background()

	exec.Register("custom.fail", func(ctx context.Context, doc *document.Document) (*document.Document, error) {
		return nil, fmt.Errorf("backend unavailable")
	})

	doc := newTestDoc(t, repo, "doc-1")

	_, err := exec.Run(ctx, doc, []string{"custom.fail"})
	var actionErr *retention.ActionExecutionError
	if !errors.As(err, &actionErr) {
		t.Fatalf("Run returned %v, want *retention.ActionExecutionError", err)
	}
	if actionErr.ActionID != "custom.fail" {
		t.Errorf("ActionID = %q, want %q", actionErr.ActionID, "custom.fail")
	}
}

func TestRunCustomActionChain(t *testing.T) {
	repo := storage.NewMemoryRepository()
	exec := NewExecutor(repo)
	ctx := context.Background()

	exec.Register("custom.retitle", func(ctx context.Context, doc *document.Document) (*document.Document, error) {
		doc.Title = "Archived"
		if err := repo.Save(ctx, doc); err != nil {
			return nil, err
		}
		return doc, nil
	})

	doc := newTestDoc(t, repo, "doc-1")

	doc, err := exec.Run(ctx, doc, []string{"custom.retitle", ActionLock})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if doc.Title != "Archived" || !doc.Locked {
		t.Errorf("chain not fully applied: title=%q locked=%v", doc.Title, doc.Locked)
	}
}

package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Batch kinds carried by queue tasks.
const (
	// KindEvalEventRules asks a worker to evaluate every event-based rule
	// matched by a fired retention event against its record population.
	KindEvalEventRules = "retention.eval-event-rules"

	// KindEvalDocs asks a worker to evaluate a rule set against an explicit
	// set of document IDs.
	KindEvalDocs = "retention.eval-docs"
)

// DefaultLease is how long a claimed task stays invisible before it becomes
// claimable again.
const DefaultLease = 5 * time.Minute

// Task is a single unit of asynchronous work.
type Task struct {
	ID         string
	Kind       string
	Params     map[string]any
	Attempts   int
	EnqueuedAt time.Time
}

// Queue is a durable at-least-once task queue. Claim returns (nil, nil) when
// no task is ready; workers are expected to poll.
type Queue interface {
	Submit(ctx context.Context, kind string, params map[string]any) (string, error)
	Claim(ctx context.Context) (*Task, error)
	Ack(ctx context.Context, id string) error
	Nack(ctx context.Context, id string) error
	Depth(ctx context.Context) (int, error)
	Close() error
}

// Error wraps queue backend failures with the failing operation.
type Error struct {
	Operation string
	Cause     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("queue %s: %v", e.Operation, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

func newTaskID() string { return uuid.NewString() }

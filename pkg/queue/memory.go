package queue

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Queue used by tests and by deployments that do not
// need tasks to survive a restart.
type Memory struct {
	mu    sync.Mutex
	lease time.Duration
	tasks []*memTask
	now   func() time.Time
}

type memTask struct {
	task      Task
	claimedAt time.Time
	claimed   bool
}

// NewMemory creates an empty in-memory queue with the default claim lease.
func NewMemory() *Memory {
	return &Memory{lease: DefaultLease, now: time.Now}
}

func (m *Memory) Submit(_ context.Context, kind string, params map[string]any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := &memTask{task: Task{
		ID:         newTaskID(),
		Kind:       kind,
		Params:     params,
		EnqueuedAt: m.now(),
	}}
	m.tasks = append(m.tasks, t)
	return t.task.ID, nil
}

func (m *Memory) Claim(_ context.Context) (*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for _, t := range m.tasks {
		if t.claimed && now.Sub(t.claimedAt) < m.lease {
			continue
		}
		t.claimed = true
		t.claimedAt = now
		t.task.Attempts++
		claimed := t.task
		return &claimed, nil
	}
	return nil, nil
}

func (m *Memory) Ack(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, t := range m.tasks {
		if t.task.ID == id {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *Memory) Nack(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.tasks {
		if t.task.ID == id {
			t.claimed = false
			return nil
		}
	}
	return nil
}

func (m *Memory) Depth(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks), nil
}

func (m *Memory) Close() error { return nil }

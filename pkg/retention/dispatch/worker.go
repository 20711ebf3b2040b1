package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"custodia-hq/saturn/pkg/document"
	"custodia-hq/saturn/pkg/queue"
	"custodia-hq/saturn/pkg/telemetry/metrics"
)

// Evaluator is the slice of the retention engine the workers invoke.
type Evaluator interface {
	ApplyEventBasedRules(ctx context.Context, documentID, eventName, eventInput string) (bool, error)
}

// PoolConfig configures the worker pool.
type PoolConfig struct {
	// Queue is the task source.
	Queue queue.Queue

	// Engine evaluates individual records.
	Engine Evaluator

	// Repo expands rule ids to record ids.
	Repo document.Repository

	// Workers is the number of concurrent consumers. Default: 4.
	Workers int

	// PollInterval is how often idle workers poll. Default: 1s.
	PollInterval time.Duration

	// Metrics is optional.
	Metrics *metrics.QueueMetrics
}

// Pool consumes evaluation tasks from the queue.
type Pool struct {
	cfg    PoolConfig
	logger *slog.Logger
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewPool creates a worker pool. Start must be called to begin consuming.
func NewPool(cfg PoolConfig) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	return &Pool{
		cfg:    cfg,
		logger: slog.Default().With("component", "retention.workers"),
	}
}

// Start launches the workers. They run until Stop is called or the context
// is canceled.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go p.run(ctx)
	}
	p.logger.Info("worker pool started", "workers", p.cfg.Workers)
}

// Stop cancels the workers and waits for in-flight tasks to finish.
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

func (p *Pool) run(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		task, err := p.cfg.Queue.Claim(ctx)
		if err != nil {
			p.logger.Error("claim failed", "error", err)
		} else if task != nil {
			p.handle(ctx, task)
			// Drain eagerly while tasks are available.
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *Pool) handle(ctx context.Context, task *queue.Task) {
	start := time.Now()
	err := p.process(ctx, task)
	result := "ok"
	if err != nil {
		result = "error"
	}
	if p.cfg.Metrics != nil {
		p.cfg.Metrics.RecordTask(task.Kind, result, time.Since(start))
		if depth, derr := p.cfg.Queue.Depth(ctx); derr == nil {
			p.cfg.Metrics.SetDepth(depth)
		}
	}

	if err != nil {
		p.logger.Error("task failed, requeueing",
			"task_id", task.ID,
			"kind", task.Kind,
			"attempts", task.Attempts,
			"error", err,
		)
		if nerr := p.cfg.Queue.Nack(ctx, task.ID); nerr != nil {
			p.logger.Error("nack failed", "task_id", task.ID, "error", nerr)
		}
		return
	}
	if aerr := p.cfg.Queue.Ack(ctx, task.ID); aerr != nil {
		p.logger.Error("ack failed", "task_id", task.ID, "error", aerr)
	}
}

// process executes one task. Per-record evaluation failures are logged and
// skipped so one bad record cannot wedge its batch; only malformed tasks
// and batch-level query failures surface as task errors.
func (p *Pool) process(ctx context.Context, task *queue.Task) error {
	switch task.Kind {
	case queue.KindEvalEventRules:
		return p.processEventRules(ctx, task)
	case queue.KindEvalDocs:
		return p.processDocs(ctx, task)
	default:
		// Drop poison tasks rather than retrying them forever.
		p.logger.Warn("unknown task kind dropped", "kind", task.Kind)
		return nil
	}
}

func (p *Pool) processEventRules(ctx context.Context, task *queue.Task) error {
	event, _ := task.Params["event"].(string)
	input, _ := task.Params["input"].(string)
	rawIDs, _ := task.Params["ruleIds"].([]any)
	if event == "" || len(rawIDs) == 0 {
		return fmt.Errorf("malformed eval-event-rules task %s", task.ID)
	}
	ruleIDs := make([]string, 0, len(rawIDs))
	for _, raw := range rawIDs {
		if id, ok := raw.(string); ok {
			ruleIDs = append(ruleIDs, id)
		}
	}

	docIDs, err := p.cfg.Repo.RecordIDsByRules(ctx, ruleIDs)
	if err != nil {
		return err
	}
	for _, id := range docIDs {
		if _, err := p.cfg.Engine.ApplyEventBasedRules(ctx, id, event, input); err != nil {
			p.logger.Error("record evaluation failed",
				"document_id", id,
				"event", event,
				"error", err,
			)
		}
	}
	return nil
}

func (p *Pool) processDocs(ctx context.Context, task *queue.Task) error {
	docs, _ := task.Params["docs"].(map[string]any)
	if len(docs) == 0 {
		return fmt.Errorf("malformed eval-docs task %s", task.ID)
	}
	for id, rawEvents := range docs {
		names, _ := rawEvents.([]any)
		for _, raw := range names {
			event, ok := raw.(string)
			if !ok {
				continue
			}
			if _, err := p.cfg.Engine.ApplyEventBasedRules(ctx, id, event, ""); err != nil {
				p.logger.Error("record evaluation failed",
					"document_id", id,
					"event", event,
					"error", err,
				)
			}
		}
	}
	return nil
}

package sweep

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"custodia-hq/saturn/pkg/document"
	"custodia-hq/saturn/pkg/telemetry/metrics"
)

// Expirer is the slice of the retention engine the sweeper invokes.
type Expirer interface {
	ProceedRetentionExpired(ctx context.Context, documentID string) error
}

// Config configures a Sweeper.
type Config struct {
	// Repo provides the expired-records projection query.
	Repo document.Repository

	// Engine processes each expired record.
	Engine Expirer

	// Timeout bounds one sweep cycle. Default: 5m.
	Timeout time.Duration

	// Metrics is optional.
	Metrics *metrics.RetentionMetrics

	// Now overrides the clock, used by tests.
	Now func() time.Time
}

// Sweeper finds expired records and runs their expiration processing.
type Sweeper struct {
	cfg    Config
	logger *slog.Logger

	mu   sync.Mutex
	seen map[string]time.Time // document id -> retain-until already processed
}

// NewSweeper creates a sweeper.
func NewSweeper(cfg Config) *Sweeper {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Sweeper{
		cfg:    cfg,
		logger: slog.Default().With("component", "retention.sweep"),
		seen:   make(map[string]time.Time),
	}
}

// Sweep runs one cycle: query expired record ids as of now, skip the ones
// already processed for the same retain-until, and run expiration
// processing for the rest. It returns the number of records processed.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	now := s.cfg.Now()
	ids, err := s.cfg.Repo.ExpiredRecordIDs(ctx, now)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, id := range ids {
		doc, err := s.cfg.Repo.Get(ctx, id)
		if err != nil {
			s.logger.Error("expired record load failed", "document_id", id, "error", err)
			continue
		}
		if doc.RetainUntil == nil {
			continue
		}
		if s.alreadyProcessed(id, *doc.RetainUntil) {
			continue
		}

		if err := s.cfg.Engine.ProceedRetentionExpired(ctx, id); err != nil {
			// Skip the seen marking so the next cycle retries.
			s.logger.Error("expiration processing failed",
				"document_id", id,
				"error", err,
			)
			continue
		}
		s.markProcessed(id, *doc.RetainUntil)
		processed++
	}

	if s.cfg.Metrics != nil {
		s.cfg.Metrics.RecordSweepDuration(time.Since(start))
	}
	if processed > 0 {
		s.logger.Info("sweep completed", "expired", processed)
	} else {
		s.logger.Debug("sweep completed, nothing expired")
	}
	return processed, nil
}

func (s *Sweeper) alreadyProcessed(id string, retainUntil time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.seen[id]
	return ok && t.Equal(retainUntil)
}

func (s *Sweeper) markProcessed(id string, retainUntil time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[id] = retainUntil
}

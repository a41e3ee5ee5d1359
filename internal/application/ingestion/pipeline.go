// Package ingestion runs registry-export loads: a chunked read-decode-persist
// loop shared by all entity kinds, tolerant of malformed rows and failed
// batches, fatal only on schema mismatch.
package ingestion

import (
	"context"
	"io"
	"time"

	"github.com/turtacn/patreg-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patreg-insight/internal/parsing"
	"github.com/turtacn/patreg-insight/pkg/errors"
)

// Status is the terminal state of one ingestion run.
type Status string

const (
	// StatusCompleted means the source was fully drained. Individual batches
	// may still have failed; consult the summary counters.
	StatusCompleted Status = "completed"

	// StatusAborted means a setup-time failure (schema mismatch, unreadable
	// source) stopped the run before or during reading. Chunks committed
	// before the failure stay committed.
	StatusAborted Status = "aborted"

	// StatusCancelled means the caller's context was cancelled between
	// chunks. Committed chunks stay committed.
	StatusCancelled Status = "cancelled"
)

// Summary is the outcome report of one ingestion run.
type Summary struct {
	Status              Status                       `json:"status"`
	Read                int64                        `json:"read"`
	Committed           int64                        `json:"committed"`
	FailedBatches       int64                        `json:"failed_batches"`
	RowsInFailedBatches int64                        `json:"rows_in_failed_batches"`
	SkippedByReason     map[parsing.SkipReason]int64 `json:"skipped_by_reason"`
	ExistingRecords     int64                        `json:"existing_records"`
}

func (s *Summary) skip(reason parsing.SkipReason, n int64) {
	if s.SkippedByReason == nil {
		s.SkippedByReason = make(map[parsing.SkipReason]int64)
	}
	s.SkippedByReason[reason] += n
}

// Store is the persistence half of the pipeline. InsertBatch must be
// all-or-nothing per call: either every record in the batch is committed or
// none is, so a uniqueness violation anywhere in a chunk fails the whole
// chunk and never leaves it half-written.
type Store[R any] interface {
	InsertBatch(ctx context.Context, records []R) error
	CountAll(ctx context.Context) (int64, error)
}

// Metrics receives ingestion observations. The monitoring layer provides the
// real implementation; NopMetrics is used where observability is not wired.
type Metrics interface {
	RowsRead(entity string, n int)
	RowsCommitted(entity string, n int)
	RowsSkipped(entity string, reason string, n int)
	BatchFailed(entity string, rows int)
	ChunkDuration(entity string, d time.Duration)
}

// NopMetrics discards all observations.
type NopMetrics struct{}

func (NopMetrics) RowsRead(string, int)                {}
func (NopMetrics) RowsCommitted(string, int)           {}
func (NopMetrics) RowsSkipped(string, string, int)     {}
func (NopMetrics) BatchFailed(string, int)             {}
func (NopMetrics) ChunkDuration(string, time.Duration) {}

// Pipeline drives one entity kind through decode, dedup and persistence.
type Pipeline[R any] struct {
	entity  string
	decoder parsing.RowDecoder[R]
	store   Store[R]
	logger  logging.Logger
	metrics Metrics
}

// NewPipeline constructs a pipeline for one entity kind. entity is the label
// used in logs and metrics, e.g. "patent".
func NewPipeline[R any](entity string, decoder parsing.RowDecoder[R], store Store[R], logger logging.Logger, metrics Metrics) *Pipeline[R] {
	if logger == nil {
		logger = logging.NewNop()
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Pipeline[R]{
		entity:  entity,
		decoder: decoder,
		store:   store,
		logger:  logger.Named("ingestion"),
		metrics: metrics,
	}
}

// Run drains the source chunk by chunk until EOF, cancellation or a fatal
// read error. The returned summary is always non-nil and reflects whatever
// progress was made; err is non-nil only for fatal conditions (schema
// mismatch, source read failure), never for skipped rows or failed batches.
func (p *Pipeline[R]) Run(ctx context.Context, src parsing.Source) (*Summary, error) {
	summary := &Summary{Status: StatusAborted}

	if err := p.decoder.DetectSchema(src.Columns()); err != nil {
		p.logger.Error("source schema mismatch",
			logging.String("entity", p.entity),
			logging.Err(err))
		return summary, err
	}

	existing, err := p.store.CountAll(ctx)
	if err != nil {
		return summary, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count existing records")
	}
	summary.ExistingRecords = existing

	p.logger.Info("ingestion started",
		logging.String("entity", p.entity),
		logging.Int64("existing_records", existing))

	for {
		// Cancellation is honored only on chunk boundaries, so a chunk is
		// never torn mid-commit.
		select {
		case <-ctx.Done():
			summary.Status = StatusCancelled
			p.logger.Warn("ingestion cancelled",
				logging.String("entity", p.entity),
				logging.Int64("committed", summary.Committed))
			return summary, nil
		default:
		}

		chunk, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			p.logger.Error("source read failed", logging.Err(err))
			return summary, err
		}

		p.processChunk(ctx, chunk, summary)
	}

	summary.Status = StatusCompleted
	p.logger.Info("ingestion completed",
		logging.String("entity", p.entity),
		logging.Int64("read", summary.Read),
		logging.Int64("committed", summary.Committed),
		logging.Int64("failed_batches", summary.FailedBatches))
	return summary, nil
}

func (p *Pipeline[R]) processChunk(ctx context.Context, chunk []parsing.Row, summary *Summary) {
	start := time.Now()

	summary.Read += int64(len(chunk))
	p.metrics.RowsRead(p.entity, len(chunk))

	batch := make([]R, 0, len(chunk))
	seen := make(map[string]struct{}, len(chunk))
	for _, row := range chunk {
		record, skip := p.decoder.DecodeRow(row)
		if skip != nil {
			summary.skip(skip.Reason, 1)
			p.metrics.RowsSkipped(p.entity, string(skip.Reason), 1)
			continue
		}
		// First occurrence wins within a chunk; later duplicates would fail
		// the whole batch at the uniqueness constraint.
		key := p.decoder.DedupKey(record)
		if _, dup := seen[key]; dup {
			summary.skip(parsing.SkipDuplicateInChunk, 1)
			p.metrics.RowsSkipped(p.entity, string(parsing.SkipDuplicateInChunk), 1)
			continue
		}
		seen[key] = struct{}{}
		batch = append(batch, record)
	}

	if len(batch) > 0 {
		if err := p.store.InsertBatch(ctx, batch); err != nil {
			summary.FailedBatches++
			summary.RowsInFailedBatches += int64(len(batch))
			p.metrics.BatchFailed(p.entity, len(batch))
			p.logger.Warn("batch rejected, continuing with next chunk",
				logging.String("entity", p.entity),
				logging.Int("rows", len(batch)),
				logging.Err(err))
		} else {
			summary.Committed += int64(len(batch))
			p.metrics.RowsCommitted(p.entity, len(batch))
		}
	}

	p.metrics.ChunkDuration(p.entity, time.Since(start))
}

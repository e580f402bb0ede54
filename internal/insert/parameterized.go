package insert

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/livinlefevreloca/bulkbench/internal/db"
	"github.com/livinlefevreloca/bulkbench/internal/generator"
	"github.com/livinlefevreloca/bulkbench/internal/progress"
)

// ParameterizedBatch inserts records with multi-row INSERT statements, one
// transaction per batch. A batch whose rows would exceed the driver's
// positional-parameter limit is split across several statements inside that
// transaction, so the batch still commits atomically. Smaller batches pay
// more commit overhead, larger ones hold locks longer.
type ParameterizedBatch struct {
	db        *db.DB
	gen       *generator.Generator
	batchSize int
	logger    *slog.Logger
}

// NewParameterizedBatch creates the strategy.
func NewParameterizedBatch(database *db.DB, gen *generator.Generator, batchSize int, logger *slog.Logger) *ParameterizedBatch {
	return &ParameterizedBatch{
		db:        database,
		gen:       gen,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Name implements BulkWriter.
func (w *ParameterizedBatch) Name() string { return StrategyParameterized }

// Write inserts total records in batches of up to batchSize.
func (w *ParameterizedBatch) Write(ctx context.Context, total int) (progress.Summary, error) {
	tracker := progress.NewTracker(logBatch(w.logger, w.Name()))

	cols := len(generator.CopyColumns)
	maxRows := w.db.MaxParams() / cols

	inserted := 0
	for inserted < total {
		n := min(w.batchSize, total-inserted)
		batch := w.gen.Batch(n)

		err := w.db.WithTransaction(func(tx *db.Tx) error {
			for len(batch) > 0 {
				chunk := batch[:min(maxRows, len(batch))]
				batch = batch[len(chunk):]

				args := make([]any, 0, len(chunk)*cols)
				for _, r := range chunk {
					args = appendRecordArgs(args, r)
				}
				if _, err := tx.ExecContext(ctx, buildInsertSQL(len(chunk)), args...); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return tracker.Summarize(), fmt.Errorf("parameterized insert failed after %d rows: %w", inserted, err)
		}

		inserted += n
		tracker.Observe(n)
	}

	return tracker.Summarize(), nil
}

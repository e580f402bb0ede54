package update

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/livinlefevreloca/bulkbench/internal/db"
	"github.com/livinlefevreloca/bulkbench/internal/generator"
	"github.com/livinlefevreloca/bulkbench/internal/progress"
)

const rangeUpdateSQL = "UPDATE " + db.TargetTable + " SET" +
	" salary = salary * $1," +
	" score = $2," +
	" department = $3," +
	" is_active = $4," +
	" first_name = first_name || '_updated'" +
	" WHERE id BETWEEN $5 AND $6"

// RangeScan updates rows with one set-based statement per id range. The
// salary multiplier preserves per-row variance, but score, department and
// is_active are sampled once per range, so every row in a batch receives the
// same values for them. Confirm with the product owner before changing this
// to per-row sampling; it is what keeps the strategy at one statement per
// batch. The '_updated' suffix on first_name marks touched rows for the
// verification pass.
type RangeScan struct {
	db        *db.DB
	gen       *generator.Generator
	batchSize int
	logger    *slog.Logger
}

// NewRangeScan creates the strategy.
func NewRangeScan(database *db.DB, gen *generator.Generator, batchSize int, logger *slog.Logger) *RangeScan {
	return &RangeScan{
		db:        database,
		gen:       gen,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Name implements Updater.
func (u *RangeScan) Name() string { return StrategyRange }

// Update walks [minID, maxID] in ranges of batchSize ids, committing one
// transaction per range. Gaps in the id sequence only shrink the affected
// count of the range that spans them.
func (u *RangeScan) Update(ctx context.Context, minID, maxID int64) (progress.Summary, error) {
	tracker := progress.NewTracker(logBatch(u.logger, u.Name()))

	for _, r := range Partition(minID, maxID, int64(u.batchSize)) {
		p := u.gen.RangePayload()

		var affected int64
		err := u.db.WithTransaction(func(tx *db.Tx) error {
			res, err := tx.ExecContext(ctx, rangeUpdateSQL,
				p.SalaryFactor, p.Score, p.Department, p.Active, r.Start, r.End)
			if err != nil {
				return err
			}
			affected, err = res.RowsAffected()
			return err
		})
		if err != nil {
			return tracker.Summarize(), fmt.Errorf("range update failed after %d rows: %w", tracker.Processed(), err)
		}

		tracker.Observe(int(affected))
	}

	return tracker.Summarize(), nil
}

package update

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/livinlefevreloca/bulkbench/internal/db"
	"github.com/livinlefevreloca/bulkbench/internal/generator"
	"github.com/livinlefevreloca/bulkbench/internal/progress"
)

const keyedUpdateSQL = "UPDATE " + db.TargetTable + " SET" +
	" salary = $1," +
	" score = $2," +
	" department = $3," +
	" is_active = $4" +
	" WHERE id = $5"

// KeyedBatch updates each row by primary key with its own generated payload.
// Ids are pulled in keyset-paginated pages, so gaps in the sequence cost
// nothing; the per-id statements of a page go to the server as one pipelined
// batch inside a single transaction. Unlike RangeScan it leaves first_name
// untouched.
type KeyedBatch struct {
	db        *db.DB
	gen       *generator.Generator
	batchSize int
	logger    *slog.Logger
}

// NewKeyedBatch creates the strategy.
func NewKeyedBatch(database *db.DB, gen *generator.Generator, batchSize int, logger *slog.Logger) *KeyedBatch {
	return &KeyedBatch{
		db:        database,
		gen:       gen,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Name implements Updater.
func (u *KeyedBatch) Name() string { return StrategyKeyed }

// Update pages through the ids in [minID, maxID], committing one transaction
// per page of batchSize rows.
func (u *KeyedBatch) Update(ctx context.Context, minID, maxID int64) (progress.Summary, error) {
	tracker := progress.NewTracker(logBatch(u.logger, u.Name()))

	afterID := minID - 1
	for {
		ids, err := u.db.FetchIDPage(ctx, afterID, maxID, u.batchSize)
		if err != nil {
			return tracker.Summarize(), fmt.Errorf("keyed update page fetch failed after %d rows: %w", tracker.Processed(), err)
		}
		if len(ids) == 0 {
			break
		}

		argSets := make([][]any, 0, len(ids))
		for _, id := range ids {
			p := u.gen.UpdatePayload()
			argSets = append(argSets, []any{p.Salary, p.Score, p.Department, p.Active, id})
		}

		affected, err := u.db.BatchExec(ctx, keyedUpdateSQL, argSets)
		if err != nil {
			return tracker.Summarize(), fmt.Errorf("keyed update failed after %d rows: %w", tracker.Processed(), err)
		}

		afterID = ids[len(ids)-1]
		tracker.Observe(int(affected))
	}

	return tracker.Summarize(), nil
}

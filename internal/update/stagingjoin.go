package update

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/livinlefevreloca/bulkbench/internal/db"
	"github.com/livinlefevreloca/bulkbench/internal/generator"
	"github.com/livinlefevreloca/bulkbench/internal/progress"
)

const (
	stagingTable   = "update_batch"
	stagingColumns = 5

	stagingCreateSQL = "CREATE TEMP TABLE " + stagingTable + " (" +
		"id INTEGER PRIMARY KEY," +
		" new_salary DECIMAL(12, 2)," +
		" new_score DECIMAL(5, 2)," +
		" new_department VARCHAR(50)," +
		" new_is_active BOOLEAN)"

	stagingJoinSQL = "UPDATE " + db.TargetTable + " AS t SET" +
		" salary = u.new_salary," +
		" score = u.new_score," +
		" department = u.new_department," +
		" is_active = u.new_is_active" +
		" FROM " + stagingTable + " AS u" +
		" WHERE t.id = u.id"

	stagingDropSQL = "DROP TABLE IF EXISTS " + stagingTable
)

// StagingJoin bulk-loads per-id payloads into a temporary staging table and
// applies them with a single join update per batch. Rows get fully
// independent values like KeyedBatch, at one set-based statement like
// RangeScan. The staging table is created, loaded, joined and dropped inside
// the batch transaction, so a rollback leaves no trace; the drop is retried
// outside the transaction on failure because the table is session-scoped and
// the session returns to the pool.
type StagingJoin struct {
	db        *db.DB
	gen       *generator.Generator
	batchSize int
	logger    *slog.Logger

	// preJoin, when set, runs after the staging load and before the join
	// update. Tests use it to inject mid-batch failures.
	preJoin func(tx *db.Tx) error
}

// NewStagingJoin creates the strategy.
func NewStagingJoin(database *db.DB, gen *generator.Generator, batchSize int, logger *slog.Logger) *StagingJoin {
	return &StagingJoin{
		db:        database,
		gen:       gen,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Name implements Updater.
func (u *StagingJoin) Name() string { return StrategyStagingJoin }

// Update walks [minID, maxID] in ranges of batchSize ids, one staging cycle
// and one transaction per range. Payloads are generated for every id in the
// range; ids without a matching row simply do not join.
func (u *StagingJoin) Update(ctx context.Context, minID, maxID int64) (progress.Summary, error) {
	tracker := progress.NewTracker(logBatch(u.logger, u.Name()))

	for _, r := range Partition(minID, maxID, int64(u.batchSize)) {
		affected, err := u.runBatch(ctx, r)
		if err != nil {
			return tracker.Summarize(), fmt.Errorf("staging-join update failed after %d rows: %w", tracker.Processed(), err)
		}
		tracker.Observe(int(affected))
	}

	return tracker.Summarize(), nil
}

func (u *StagingJoin) runBatch(ctx context.Context, r Range) (int64, error) {
	var affected int64
	err := u.db.WithTransaction(func(tx *db.Tx) error {
		if _, err := tx.ExecContext(ctx, stagingCreateSQL); err != nil {
			return fmt.Errorf("failed to create staging table: %w", err)
		}

		// Load in chunks that stay under the driver's parameter limit.
		maxRows := int64(u.db.MaxParams() / stagingColumns)
		for start := r.Start; start <= r.End; start += maxRows {
			end := min(start+maxRows-1, r.End)
			rows := int(end - start + 1)

			args := make([]any, 0, rows*stagingColumns)
			for id := start; id <= end; id++ {
				p := u.gen.UpdatePayload()
				args = append(args, id, p.Salary, p.Score, p.Department, p.Active)
			}
			if _, err := tx.ExecContext(ctx, buildStagingInsertSQL(rows), args...); err != nil {
				return fmt.Errorf("failed to load staging table: %w", err)
			}
		}

		if u.preJoin != nil {
			if err := u.preJoin(tx); err != nil {
				return err
			}
		}

		res, err := tx.ExecContext(ctx, stagingJoinSQL)
		if err != nil {
			return fmt.Errorf("join update failed: %w", err)
		}
		if affected, err = res.RowsAffected(); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, stagingDropSQL)
		return err
	})
	if err != nil {
		// The rollback already discarded the staging table along with the
		// transaction; drop again on the bare session in case the failure
		// happened after commit started.
		if _, dropErr := u.db.ExecContext(ctx, stagingDropSQL); dropErr != nil {
			u.logger.Warn("failed to drop staging table after batch failure", "error", dropErr)
		}
		return 0, err
	}
	return affected, nil
}

// buildStagingInsertSQL renders the multi-row staging load statement for the
// given row count, stagingColumns positional parameters per row.
func buildStagingInsertSQL(rows int) string {
	var b strings.Builder
	b.WriteString("INSERT INTO " + stagingTable +
		" (id, new_salary, new_score, new_department, new_is_active) VALUES ")

	param := 1
	for i := 0; i < rows; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j := 0; j < stagingColumns; j++ {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(param))
			param++
		}
		b.WriteByte(')')
	}
	return b.String()
}

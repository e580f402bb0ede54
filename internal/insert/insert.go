// Package insert implements the bulk append strategies for the target
// relation. Both strategies commit once per batch, never once per run: a
// mid-batch failure rolls back only the in-flight transaction and batches
// already committed stay applied. Re-running a strategy is therefore not
// idempotent.
package insert

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/livinlefevreloca/bulkbench/internal/db"
	"github.com/livinlefevreloca/bulkbench/internal/generator"
	"github.com/livinlefevreloca/bulkbench/internal/progress"
)

// Strategy selectors as exposed on the CLI.
const (
	StrategyParameterized = "parameterized"
	StrategyStreaming     = "streaming"
)

// BulkWriter appends synthetic rows to the target relation.
type BulkWriter interface {
	Name() string
	Write(ctx context.Context, total int) (progress.Summary, error)
}

// CopyStreamer is the narrow bulk-copy surface of db.DB, split out so tests
// can substitute a recording fake.
type CopyStreamer interface {
	CopyFrom(ctx context.Context, copySQL string, r io.Reader) (int64, error)
}

// buildInsertSQL builds a single multi-row INSERT with positional
// parameters for the given row count. Parameter count is rows * column
// count, which bounds usable batch sizes on drivers with a parameter limit.
func buildInsertSQL(rows int) string {
	cols := len(generator.CopyColumns)

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(db.TargetTable)
	b.WriteString(" (")
	b.WriteString(strings.Join(generator.CopyColumns, ", "))
	b.WriteString(") VALUES ")

	p := 1
	for row := 0; row < rows; row++ {
		if row > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for col := 0; col < cols; col++ {
			if col > 0 {
				b.WriteString(", ")
			}
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(p))
			p++
		}
		b.WriteByte(')')
	}
	return b.String()
}

func appendRecordArgs(args []any, r generator.Record) []any {
	return append(args,
		r.Username, r.Email, r.FirstName, r.LastName, r.Age,
		r.Salary, r.IsActive, r.CreatedAt, r.Department, r.Score,
	)
}

// logBatch is the shared per-batch progress callback.
func logBatch(logger *slog.Logger, strategy string) func(progress.BatchStat) {
	return func(s progress.BatchStat) {
		logger.Info("batch committed",
			"strategy", strategy,
			"processed", s.Processed,
			"batch_rows", s.BatchRows,
			"rate_per_sec", int64(s.Rate))
	}
}

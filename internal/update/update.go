// Package update implements the bulk mutation strategies over the target
// relation. Each strategy walks an inclusive id interval in batches, one
// transaction per batch, and reports progress after every commit. None of
// the strategies is a universal default: RangeScan trades payload diversity
// for one statement per batch, KeyedBatch trades statement count for fully
// independent per-row values, StagingJoin buys both at the cost of staging
// setup and teardown.
package update

import (
	"context"
	"log/slog"

	"github.com/livinlefevreloca/bulkbench/internal/progress"
)

// Strategy selectors as exposed on the CLI.
const (
	StrategyRange       = "range"
	StrategyKeyed       = "keyed"
	StrategyStagingJoin = "staging-join"
)

// Updater mutates existing rows of the target relation.
type Updater interface {
	Name() string
	Update(ctx context.Context, minID, maxID int64) (progress.Summary, error)
}

// Range is an inclusive id interval.
type Range struct {
	Start int64
	End   int64
}

// Rows returns the number of ids the range spans.
func (r Range) Rows() int64 {
	return r.End - r.Start + 1
}

// Partition splits [minID, maxID] into contiguous ranges of the given size.
// Ranges never overlap and together cover every id exactly once; the final
// range may be shorter when the interval does not divide evenly. An inverted
// interval yields no ranges.
func Partition(minID, maxID, size int64) []Range {
	if maxID < minID || size <= 0 {
		return nil
	}

	ranges := make([]Range, 0, (maxID-minID)/size+1)
	for start := minID; start <= maxID; start += size {
		end := start + size - 1
		if end > maxID {
			end = maxID
		}
		ranges = append(ranges, Range{Start: start, End: end})
	}
	return ranges
}

// logBatch is the shared per-batch progress callback.
func logBatch(logger *slog.Logger, strategy string) func(progress.BatchStat) {
	return func(s progress.BatchStat) {
		logger.Info("batch committed",
			"strategy", strategy,
			"updated", s.Processed,
			"batch_rows", s.BatchRows,
			"rate_per_sec", int64(s.Rate))
	}
}

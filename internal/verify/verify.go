// Package verify implements the post-run consistency checks. The checks are
// read-only and cheap relative to the mutation phases: a count comparison
// plus aggregate readouts for the operator to eyeball.
package verify

import (
	"context"
	"fmt"

	"github.com/livinlefevreloca/bulkbench/internal/db"
)

// Result captures the outcome of a verification pass. OK reports whether the
// hard check passed; the aggregates are informational.
type Result struct {
	RowCount    int64
	Expected    int64
	MarkerCount int64
	AvgSalary   float64
	AvgScore    float64
	OK          bool
	Detail      string
}

// Inserts checks that the target relation holds exactly expected rows and
// reads back the aggregate columns. A mismatch is a verification failure,
// not an error; errors are reserved for queries that could not run.
func Inserts(ctx context.Context, database *db.DB, expected int64) (Result, error) {
	count, err := database.CountRows(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to count rows: %w", err)
	}
	avgSalary, avgScore, err := database.Averages(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read aggregates: %w", err)
	}

	r := Result{
		RowCount:  count,
		Expected:  expected,
		AvgSalary: avgSalary,
		AvgScore:  avgScore,
		OK:        count == expected,
	}
	if r.OK {
		r.Detail = fmt.Sprintf("row count matches: %d", count)
	} else {
		r.Detail = fmt.Sprintf("row count mismatch: %d of %d expected", count, expected)
	}
	return r, nil
}

// Updates checks that the reported affected-row total matches the number of
// rows inside [minID, maxID], and reads back the marker count and aggregate
// columns. The marker count is informational: only the set-based range
// strategy writes the first_name marker.
func Updates(ctx context.Context, database *db.DB, minID, maxID, affected int64) (Result, error) {
	inRange, err := database.CountRowsBetween(ctx, minID, maxID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to count rows in range: %w", err)
	}
	markers, err := database.MarkerCount(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to count marked rows: %w", err)
	}
	avgSalary, avgScore, err := database.Averages(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read aggregates: %w", err)
	}

	r := Result{
		RowCount:    inRange,
		Expected:    affected,
		MarkerCount: markers,
		AvgSalary:   avgSalary,
		AvgScore:    avgScore,
		OK:          affected == inRange,
	}
	if r.OK {
		r.Detail = fmt.Sprintf("affected rows cover the id range: %d", affected)
	} else {
		r.Detail = fmt.Sprintf("affected row mismatch: %d reported, %d rows in range", affected, inRange)
	}
	return r, nil
}

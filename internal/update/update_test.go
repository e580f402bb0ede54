package update

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/livinlefevreloca/bulkbench/internal/db"
	"github.com/livinlefevreloca/bulkbench/internal/generator"
	"github.com/livinlefevreloca/bulkbench/internal/insert"
	"github.com/livinlefevreloca/bulkbench/internal/testutil"
)

func distinctValues(t *testing.T, database *db.DB, column string) int {
	t.Helper()

	var n int
	err := database.QueryRow("SELECT COUNT(DISTINCT " + column + ") FROM " + db.TargetTable).Scan(&n)
	if err != nil {
		t.Fatalf("failed to count distinct %s: %v", column, err)
	}
	return n
}

func stagingTableCount(t *testing.T, database *db.DB) int {
	t.Helper()

	var n int
	err := database.QueryRow(
		"SELECT COUNT(*) FROM sqlite_temp_master WHERE type = 'table' AND name = $1",
		stagingTable,
	).Scan(&n)
	if err != nil {
		t.Fatalf("failed to query temp tables: %v", err)
	}
	return n
}

func TestRangeScanMarksAndUpdates(t *testing.T) {
	database := testutil.OpenTestDB(t)
	testutil.SeedTargetRows(t, database, 20)
	ctx := context.Background()

	u := NewRangeScan(database, generator.New(1), 7, testutil.NewLogger())

	// 20 ids at batch size 7: ranges of 7, 7, 6.
	summary, err := u.Update(ctx, 1, 20)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if summary.Processed != 20 {
		t.Errorf("expected 20 processed, got %d", summary.Processed)
	}

	markers, err := database.MarkerCount(ctx)
	if err != nil {
		t.Fatalf("marker count failed: %v", err)
	}
	if markers != 20 {
		t.Errorf("expected every row marked, got %d of 20", markers)
	}

	// Score is sampled once per range, so 3 ranges allow at most 3 values.
	if n := distinctValues(t, database, "score"); n > 3 {
		t.Errorf("expected at most 3 distinct scores, got %d", n)
	}
}

func TestRangeScanSkipsMissingIDs(t *testing.T) {
	database := testutil.OpenTestDB(t)
	testutil.SeedTargetRows(t, database, 30)
	ctx := context.Background()

	if _, err := database.Exec("DELETE FROM "+db.TargetTable+" WHERE id BETWEEN $1 AND $2", 11, 20); err != nil {
		t.Fatalf("failed to punch id gap: %v", err)
	}

	u := NewRangeScan(database, generator.New(1), 10, testutil.NewLogger())

	summary, err := u.Update(ctx, 1, 30)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if summary.Processed != 20 {
		t.Errorf("expected 20 surviving rows processed, got %d", summary.Processed)
	}
}

func TestKeyedBatchUpdatesPerRow(t *testing.T) {
	database := testutil.OpenTestDB(t)
	testutil.SeedTargetRows(t, database, 30)
	ctx := context.Background()

	if _, err := database.Exec("DELETE FROM "+db.TargetTable+" WHERE id BETWEEN $1 AND $2", 5, 10); err != nil {
		t.Fatalf("failed to punch id gap: %v", err)
	}

	u := NewKeyedBatch(database, generator.New(1), 10, testutil.NewLogger())

	summary, err := u.Update(ctx, 1, 30)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if summary.Processed != 24 {
		t.Errorf("expected 24 processed, got %d", summary.Processed)
	}

	// No range marker: first_name stays as seeded.
	markers, err := database.MarkerCount(ctx)
	if err != nil {
		t.Fatalf("marker count failed: %v", err)
	}
	if markers != 0 {
		t.Errorf("expected no marked rows, got %d", markers)
	}

	// Every row got its own payload; 24 independent salary draws should
	// essentially never collide.
	if n := distinctValues(t, database, "salary"); n < 20 {
		t.Errorf("expected per-row salaries, got only %d distinct values", n)
	}
}

func TestKeyedBatchEmptyInterval(t *testing.T) {
	database := testutil.OpenTestDB(t)
	ctx := context.Background()

	u := NewKeyedBatch(database, generator.New(1), 10, testutil.NewLogger())

	summary, err := u.Update(ctx, 1, 100)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if summary.Processed != 0 {
		t.Errorf("expected 0 processed on empty relation, got %d", summary.Processed)
	}
}

func TestStagingJoinUpdatesWithDistinctPayloads(t *testing.T) {
	database := testutil.OpenTestDB(t)
	testutil.SeedTargetRows(t, database, 40)
	ctx := context.Background()

	u := NewStagingJoin(database, generator.New(1), 15, testutil.NewLogger())

	// 40 ids at batch size 15: ranges of 15, 15, 10.
	summary, err := u.Update(ctx, 1, 40)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if summary.Processed != 40 {
		t.Errorf("expected 40 processed, got %d", summary.Processed)
	}

	if n := distinctValues(t, database, "salary"); n < 35 {
		t.Errorf("expected per-row salaries, got only %d distinct values", n)
	}

	if n := stagingTableCount(t, database); n != 0 {
		t.Errorf("expected staging table dropped, found %d", n)
	}
}

func TestStagingJoinSplitsOversizedStagingLoad(t *testing.T) {
	database := testutil.OpenTestDB(t)
	ctx := context.Background()

	// 7,000 ids in one range put the staging load past the driver's
	// parameter limit; the load must be split but the join still covers
	// every row.
	seeder := insert.NewParameterizedBatch(database, generator.New(2), 1000, testutil.NewLogger())
	if _, err := seeder.Write(ctx, 7000); err != nil {
		t.Fatalf("failed to seed rows: %v", err)
	}

	u := NewStagingJoin(database, generator.New(1), 7000, testutil.NewLogger())

	summary, err := u.Update(ctx, 1, 7000)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if summary.Processed != 7000 {
		t.Errorf("expected 7000 processed, got %d", summary.Processed)
	}

	if n := stagingTableCount(t, database); n != 0 {
		t.Errorf("expected staging table dropped, found %d", n)
	}
}

func TestStagingJoinCleansUpOnFailure(t *testing.T) {
	database := testutil.OpenTestDB(t)
	testutil.SeedTargetRows(t, database, 10)
	ctx := context.Background()

	u := NewStagingJoin(database, generator.New(1), 10, testutil.NewLogger())
	u.preJoin = func(*db.Tx) error { return errors.New("injected join failure") }

	_, err := u.Update(ctx, 1, 10)
	if err == nil {
		t.Fatal("expected failure")
	}
	if !strings.Contains(err.Error(), "after 0 rows") {
		t.Errorf("expected processed count in error, got %v", err)
	}

	// The rollback must leave no staging table and no modified rows.
	if n := stagingTableCount(t, database); n != 0 {
		t.Errorf("expected staging table gone after rollback, found %d", n)
	}
	var untouched int64
	err = database.QueryRow("SELECT COUNT(*) FROM "+db.TargetTable+" WHERE salary = $1", 50000.0).Scan(&untouched)
	if err != nil {
		t.Fatalf("failed to count untouched rows: %v", err)
	}
	if untouched != 10 {
		t.Errorf("expected all 10 rows untouched, got %d", untouched)
	}

	// A fresh run on the same session must not trip over leftovers.
	u.preJoin = nil
	summary, err := u.Update(ctx, 1, 10)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if summary.Processed != 10 {
		t.Errorf("expected 10 processed on retry, got %d", summary.Processed)
	}
}

func TestBuildStagingInsertSQL(t *testing.T) {
	query := buildStagingInsertSQL(2)

	if !strings.HasPrefix(query, "INSERT INTO update_batch (id, new_salary,") {
		t.Errorf("unexpected prefix: %s", query)
	}
	if !strings.Contains(query, "($1, $2, $3, $4, $5)") {
		t.Errorf("missing first row placeholders: %s", query)
	}
	if !strings.Contains(query, "($6, $7, $8, $9, $10)") {
		t.Errorf("missing second row placeholders: %s", query)
	}
}

// Package testutil provides shared fixtures and fakes for engine and runner
// tests. Real runs target Postgres; tests run the portable SQL against an
// in-memory SQLite database instead.
package testutil

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/livinlefevreloca/bulkbench/internal/db"
)

// NewLogger creates a quiet logger for tests.
func NewLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// OpenTestDB creates an in-memory SQLite database with the target relation
// in place. The pool is pinned to one connection so :memory: state and temp
// tables live on a single session.
func OpenTestDB(t *testing.T) *db.DB {
	t.Helper()

	database, err := db.Open(db.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	database.SetMaxOpenConns(1)

	if err := database.EnsureTarget(context.Background()); err != nil {
		database.Close()
		t.Fatalf("failed to create target relation: %v", err)
	}

	t.Cleanup(func() {
		database.Close()
	})

	return database
}

// SeedTargetRows inserts n fixed rows, producing sequential ids 1..n on a
// fresh relation.
func SeedTargetRows(t *testing.T, database *db.DB, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		_, err := database.Exec(
			"INSERT INTO "+db.TargetTable+
				" (username, email, first_name, last_name, age, salary, is_active, created_at, department, score)"+
				" VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)",
			"user", "user@test.com", "First", "Last", 30, 50000.0, true,
			time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), "Engineering", 50.0,
		)
		if err != nil {
			t.Fatalf("failed to seed row %d: %v", i, err)
		}
	}
}

// CopyCall records one bulk-copy invocation against the fake streamer.
type CopyCall struct {
	SQL   string
	Lines int
	Data  []byte
}

// FakeCopyStreamer implements the insert engine's CopyStreamer, recording
// every call. FailAt, when non-zero, makes that call (1-based) return Err
// without consuming the stream as loaded rows.
type FakeCopyStreamer struct {
	Calls  []CopyCall
	FailAt int
	Err    error
}

// CopyFrom records the call and reports one loaded row per encoded line.
func (f *FakeCopyStreamer) CopyFrom(_ context.Context, copySQL string, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}

	if f.FailAt > 0 && len(f.Calls)+1 == f.FailAt {
		if f.Err == nil {
			f.Err = errors.New("injected copy failure")
		}
		return 0, f.Err
	}

	lines := bytes.Count(data, []byte{'\n'})
	f.Calls = append(f.Calls, CopyCall{SQL: copySQL, Lines: lines, Data: data})
	return int64(lines), nil
}

// TotalLines sums the lines across all recorded calls.
func (f *FakeCopyStreamer) TotalLines() int {
	total := 0
	for _, c := range f.Calls {
		total += c.Lines
	}
	return total
}

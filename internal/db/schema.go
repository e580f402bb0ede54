package db

import (
	"context"
	"fmt"
)

// TargetTable is the relation every insert and update strategy operates on.
const TargetTable = "test_users"

// targetColumnsSQL is the shared column definition list. Only the id column
// differs per driver (SERIAL vs AUTOINCREMENT).
const targetColumnsSQL = `
	username VARCHAR(50) NOT NULL,
	email VARCHAR(100) NOT NULL,
	first_name VARCHAR(50),
	last_name VARCHAR(50),
	age INTEGER,
	salary DECIMAL(12, 2),
	is_active BOOLEAN DEFAULT TRUE,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	department VARCHAR(50),
	score DECIMAL(5, 2)`

// EnsureTarget creates the target relation if it does not exist. Used by
// append mode, where previously inserted rows must survive.
func (db *DB) EnsureTarget(ctx context.Context) error {
	_, err := db.ExecContext(ctx, db.createTargetSQL())
	if err != nil {
		return fmt.Errorf("create %s: %w", TargetTable, err)
	}
	return nil
}

// ResetTarget drops and recreates the target relation, leaving it empty with
// a fresh id sequence.
func (db *DB) ResetTarget(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+TargetTable); err != nil {
		return fmt.Errorf("drop %s: %w", TargetTable, err)
	}
	return db.EnsureTarget(ctx)
}

func (db *DB) createTargetSQL() string {
	idColumn := "id SERIAL PRIMARY KEY,"
	if db.driver == DriverSQLite {
		idColumn = "id INTEGER PRIMARY KEY AUTOINCREMENT,"
	}
	return "CREATE TABLE IF NOT EXISTS " + TargetTable + " (\n\t" + idColumn + targetColumnsSQL + "\n)"
}

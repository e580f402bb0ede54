package db

import (
	"context"
	"database/sql"
)

// Read-back queries over the target relation. These back the verification
// pass and the update engines' range discovery.

// CountRows returns the total number of rows in the target relation.
func (db *DB) CountRows(ctx context.Context) (int64, error) {
	var count int64
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+TargetTable).Scan(&count)
	return count, err
}

// CountRowsBetween returns the number of rows with ids in [minID, maxID].
func (db *DB) CountRowsBetween(ctx context.Context, minID, maxID int64) (int64, error) {
	var count int64
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+TargetTable+" WHERE id BETWEEN $1 AND $2",
		minID, maxID,
	).Scan(&count)
	return count, err
}

// IDRange returns the minimum and maximum id of the target relation.
// Returns ErrEmptyRelation when the relation holds no rows.
func (db *DB) IDRange(ctx context.Context) (minID, maxID int64, err error) {
	var lo, hi sql.NullInt64
	err = db.QueryRowContext(ctx,
		"SELECT MIN(id), MAX(id) FROM "+TargetTable,
	).Scan(&lo, &hi)
	if err != nil {
		return 0, 0, err
	}
	if !lo.Valid || !hi.Valid {
		return 0, 0, ErrEmptyRelation
	}
	return lo.Int64, hi.Int64, nil
}

// MarkerCount returns how many rows carry the update marker suffix applied
// by the set-based range update.
func (db *DB) MarkerCount(ctx context.Context) (int64, error) {
	var count int64
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+TargetTable+" WHERE first_name LIKE '%_updated'",
	).Scan(&count)
	return count, err
}

// Averages returns the mean salary and score across the whole relation.
// Both are zero when the relation is empty.
func (db *DB) Averages(ctx context.Context) (avgSalary, avgScore float64, err error) {
	var salary, score sql.NullFloat64
	err = db.QueryRowContext(ctx,
		"SELECT AVG(salary), AVG(score) FROM "+TargetTable,
	).Scan(&salary, &score)
	if err != nil {
		return 0, 0, err
	}
	return salary.Float64, score.Float64, nil
}

// FetchIDPage returns up to limit ids greater than afterID and no greater
// than maxID, in ascending order. An empty result means the page walk is
// complete.
func (db *DB) FetchIDPage(ctx context.Context, afterID, maxID int64, limit int) ([]int64, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT id FROM "+TargetTable+" WHERE id > $1 AND id <= $2 ORDER BY id LIMIT $3",
		afterID, maxID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0, limit)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

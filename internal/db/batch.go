package db

import (
	"context"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

// BatchExec executes query once per argument set inside a single
// transaction. On the pgx driver the statements are pipelined and sent in
// one network round trip; other drivers fall back to sequential execution
// within the transaction. Returns the summed affected-row count.
func (db *DB) BatchExec(ctx context.Context, query string, argSets [][]any) (int64, error) {
	if db.driver == DriverPostgres {
		return db.pgxBatchExec(ctx, query, argSets)
	}

	var affected int64
	err := db.WithTransaction(func(tx *Tx) error {
		for _, args := range argSets {
			res, err := tx.ExecContext(ctx, query, args...)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			affected += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

func (db *DB) pgxBatchExec(ctx context.Context, query string, argSets [][]any) (int64, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	var affected int64
	err = conn.Raw(func(driverConn any) error {
		pgxConn, err := pgxConnFrom(driverConn)
		if err != nil {
			return err
		}

		tx, err := pgxConn.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		batch := &pgx.Batch{}
		for _, args := range argSets {
			batch.Queue(query, args...)
		}

		results := tx.SendBatch(ctx, batch)
		for range argSets {
			tag, err := results.Exec()
			if err != nil {
				results.Close()
				return err
			}
			affected += tag.RowsAffected()
		}
		if err := results.Close(); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// CopyFrom streams pre-encoded COPY text through the bulk-copy protocol
// inside its own transaction. copySQL must be a COPY ... FROM STDIN
// statement whose column order matches the encoded lines.
func (db *DB) CopyFrom(ctx context.Context, copySQL string, r io.Reader) (int64, error) {
	if db.driver != DriverPostgres {
		return 0, ErrCopyUnsupported
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	var rows int64
	err = conn.Raw(func(driverConn any) error {
		pgxConn, err := pgxConnFrom(driverConn)
		if err != nil {
			return err
		}

		tx, err := pgxConn.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		tag, err := tx.Conn().PgConn().CopyFrom(ctx, r, copySQL)
		if err != nil {
			return err
		}
		rows = tag.RowsAffected()

		return tx.Commit(ctx)
	})
	if err != nil {
		return 0, err
	}
	return rows, nil
}

func pgxConnFrom(driverConn any) (*pgx.Conn, error) {
	c, ok := driverConn.(*stdlib.Conn)
	if !ok {
		return nil, fmt.Errorf("db: unexpected driver connection type %T", driverConn)
	}
	return c.Conn(), nil
}

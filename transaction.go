package ormkit

import (
	"context"

	"github.com/ormkit/ormkit/driver"
)

type txMarkerKey struct{}

// txMarker is attached to ctx for the lifetime of the outermost
// transaction so nested Transaction calls on the same context can
// detect they are already inside one and flatten instead of issuing a
// nested BEGIN (spec.md §5 "nested transactions are flattened"), and so
// every query issued on ctx routes through the transaction's connection
// rather than db's plain connection (see Database.connFor).
type txMarker struct {
	conn     driver.Conn
	rollback *bool
}

// Transaction runs fn with ctx carrying an active transaction on db's
// connection: BEGIN before fn runs, COMMIT on fn returning nil, and
// ROLLBACK (re-surfacing fn's error) otherwise. A Transaction call
// nested inside another on the same context does not begin a new
// transaction; an inner error marks the outer transaction for rollback
// at its own close instead of committing (spec.md §5).
func (db *Database) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m, ok := ctx.Value(txMarkerKey{}).(*txMarker); ok {
		err := fn(ctx)
		if err != nil {
			*m.rollback = true
		}
		return err
	}

	conn, err := db.drv.BeginTransaction(ctx, db.connFor(ctx))
	if err != nil {
		return err
	}

	rollback := false
	txCtx := context.WithValue(ctx, txMarkerKey{}, &txMarker{conn: conn, rollback: &rollback})

	err = fn(txCtx)
	if err == nil && rollback {
		err = ErrTxRolledBack
	}
	if err != nil {
		if rbErr := db.drv.Rollback(ctx, conn); rbErr != nil {
			db.logError("", rbErr)
		}
		db.logError("", err)
		return err
	}
	if cErr := db.drv.Commit(ctx, conn); cErr != nil {
		return NewSqlExecError("COMMIT", cErr)
	}
	return nil
}

package migration

import (
	"context"
	"database/sql"
)

// Tx is a scoped transaction: statements take effect on Commit and are
// discarded on Rollback.
type Tx interface {
	// Exec runs one statement and returns the rows affected when the driver
	// reports it.
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	Commit() error
	Rollback() error
}

// Executor opens transactions.
type Executor interface {
	Begin(ctx context.Context) (Tx, error)
}

// TxBeginner is satisfied by *sql.DB and *sql.Conn.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// FromSQL adapts a database/sql handle to Executor.
func FromSQL(db TxBeginner) Executor {
	return sqlExecutor{db: db}
}

type sqlExecutor struct {
	db TxBeginner
}

func (e sqlExecutor) Begin(ctx context.Context) (Tx, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return sqlTx{tx: tx}, nil
}

type sqlTx struct {
	tx *sql.Tx
}

func (t sqlTx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

func (t sqlTx) Commit() error   { return t.tx.Commit() }
func (t sqlTx) Rollback() error { return t.tx.Rollback() }

package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/otterbrix/pgchurn/pkg/data"
	"github.com/otterbrix/pgchurn/pkg/targets"
)

// tx is the part of *sqlx.Tx the processor needs.
type tx interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	Commit() error
	Rollback() error
}

type beginFn func(ctx context.Context) (tx, error)

type processor struct {
	db    *sqlx.DB
	begin beginFn
	stmts *statementBuilder
}

// NewProcessor returns a Processor writing every batch to db in its own
// transaction. db may be nil when nothing is going to be loaded.
func NewProcessor(db *sqlx.DB, tables Tables) (targets.ProcessorCloser, error) {
	if err := tables.Validate(); err != nil {
		return nil, err
	}
	p := &processor{db: db, stmts: newStatementBuilder(tables)}
	if db != nil {
		p.begin = func(ctx context.Context) (tx, error) {
			return db.BeginTxx(ctx, nil)
		}
	}
	return p, nil
}

// ProcessBatch writes b in a single transaction. Any failing statement rolls
// the whole batch back.
func (p *processor) ProcessBatch(ctx context.Context, b *data.Batch, doLoad bool) (uint64, error) {
	stmts, err := p.stmts.batch(b)
	if err != nil {
		return 0, errors.Wrapf(err, "could not build statements for key %d", b.Key())
	}
	if !doLoad {
		return 0, nil
	}
	if p.begin == nil {
		return 0, errors.New("processor has no database to load into")
	}

	t, err := p.begin(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "could not begin transaction")
	}

	var rowCnt uint64
	for _, st := range stmts {
		res, err := t.ExecContext(ctx, st.query, st.args...)
		if err != nil {
			return 0, rollback(t, errors.Wrapf(err, "could not execute sql: %s", st.query))
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			rowCnt += uint64(n)
		}
	}

	if err := t.Commit(); err != nil {
		return 0, errors.Wrap(err, "could not commit transaction")
	}
	return rowCnt, nil
}

// Close releases the connection.
func (p *processor) Close(doLoad bool) error {
	if p.db == nil {
		return nil
	}
	return p.db.Close()
}

func rollback(t tx, cause error) error {
	if err := t.Rollback(); err != nil && err != sql.ErrTxDone {
		return errors.Wrapf(cause, "rollback also failed: %v", err)
	}
	return cause
}

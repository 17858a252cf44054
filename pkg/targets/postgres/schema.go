package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const (
	tableExistsQuery          = "SELECT 1 FROM pg_tables WHERE tablename = $1"
	qualifiedTableExistsQuery = "SELECT 1 FROM pg_tables WHERE schemaname = $1 AND tablename = $2"

	tablePollInterval = 100 * time.Millisecond
)

type tableExistsFn func(ctx context.Context, table string) (bool, error)

// WaitForTables blocks until every table exists or timeout elapses. The
// tables are created by another client, so not finding them yet is not an
// error until the deadline.
func WaitForTables(ctx context.Context, db *sqlx.DB, tables Tables, timeout time.Duration) error {
	return waitForTables(ctx, func(ctx context.Context, table string) (bool, error) {
		return tableExists(ctx, db, table)
	}, tables.Names(), tablePollInterval, timeout)
}

func waitForTables(ctx context.Context, exists tableExistsFn, tables []string, poll, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for _, table := range tables {
		for {
			ok, err := exists(ctx, table)
			if err != nil {
				return errors.Wrapf(err, "could not check for table %s", table)
			}
			if ok {
				break
			}
			select {
			case <-ctx.Done():
				return errors.Errorf("expected table %s not created after %v of waiting", table, timeout)
			case <-time.After(poll):
			}
		}
	}
	return nil
}

func tableExists(ctx context.Context, db *sqlx.DB, table string) (bool, error) {
	var one int
	var err error
	if i := strings.IndexByte(table, '.'); i >= 0 {
		err = db.GetContext(ctx, &one, qualifiedTableExistsQuery, table[:i], table[i+1:])
	} else {
		err = db.GetContext(ctx, &one, tableExistsQuery, table)
	}
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

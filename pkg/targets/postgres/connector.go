package postgres

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/otterbrix/pgchurn/internal/utils"
)

const (
	// DefaultConnectAttempts is the number of connection attempts before
	// the database is declared unavailable.
	DefaultConnectAttempts = 5
	// DefaultConnectBackoff is the wait between two connection attempts.
	DefaultConnectBackoff = 5 * time.Second
)

// ErrUnavailable is returned by Connector.Connect once every attempt failed.
var ErrUnavailable = errors.New("database unavailable")

// change for more useful testing
var (
	printFn = fmt.Printf
	openFn  = openDB
)

// DefaultRetryPolicy returns the connection retry policy of the reference
// generator: 5 attempts, 5 seconds apart.
func DefaultRetryPolicy() utils.RetryPolicy {
	return utils.RetryPolicy{
		MaxAttempts: DefaultConnectAttempts,
		Backoff:     DefaultConnectBackoff,
	}
}

// Connector acquires the single connection used by the workload, masking a
// database that is still starting up behind a bounded retry.
type Connector struct {
	opts   *ConnectOptions
	policy utils.RetryPolicy

	// Observe receives one call per attempt. It only reports and never
	// changes the outcome.
	Observe utils.AttemptObserver
}

// NewConnector returns a Connector for opts using the given retry policy.
func NewConnector(opts *ConnectOptions, policy utils.RetryPolicy) *Connector {
	return &Connector{
		opts:    opts,
		policy:  policy,
		Observe: printAttempt,
	}
}

// Connect opens and pings a handle limited to one connection. The first
// successful attempt wins. When every attempt fails the returned error
// matches ErrUnavailable and wraps the last cause.
func (c *Connector) Connect(ctx context.Context) (*sqlx.DB, error) {
	var db *sqlx.DB
	driver, dsn := c.opts.Driver(), c.opts.GetConnectString()
	err := utils.Retry(ctx, c.policy, func(ctx context.Context) error {
		var err error
		db, err = openFn(ctx, driver, dsn)
		return err
	}, c.observe)

	var exhausted *utils.ExhaustedError
	switch {
	case err == nil:
		return db, nil
	case errors.As(err, &exhausted):
		return nil, &unavailableError{target: c.opts.Redacted(), err: exhausted}
	default:
		return nil, errors.Wrapf(err, "connecting to %s", c.opts.Redacted())
	}
}

func (c *Connector) observe(attempt, maxAttempts int, err error) {
	if c.Observe == nil {
		return
	}
	defer func() {
		// reporting must never break the retry loop
		recover()
	}()
	c.Observe(attempt, maxAttempts, err)
}

func printAttempt(attempt, maxAttempts int, err error) {
	if err == nil {
		printFn("connected to database (attempt %d of %d)\n", attempt, maxAttempts)
		return
	}
	printFn("connection error: %v. attempt %d of %d\n", err, attempt, maxAttempts)
}

type unavailableError struct {
	target string
	err    *utils.ExhaustedError
}

func (e *unavailableError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrUnavailable, e.target, e.err)
}

func (e *unavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

func (e *unavailableError) Unwrap() error {
	return e.err
}

func openDB(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	// one writer, one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

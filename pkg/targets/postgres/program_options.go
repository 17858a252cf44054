package postgres

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

const (
	pgxDriver = "pgx" // default driver
	pqDriver  = "postgres"

	// DefaultPrimaryTable is the table receiving PrimaryRecords.
	DefaultPrimaryTable = "example1"
	// DefaultSecondaryTable is the table receiving SecondaryRecords.
	DefaultSecondaryTable = "example2"
)

var (
	connParamsRe  = regexp.MustCompile(`\b(host|dbname|user|port|password)=\S*`)
	identifierRe  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)
	errEmptyTable = errors.New("table name cannot be empty")
)

// ConnectOptions holds everything needed to reach the target database.
type ConnectOptions struct {
	PostgresConnect string `yaml:"postgres" mapstructure:"postgres"`
	Host            string `yaml:"host" mapstructure:"host"`
	Port            string `yaml:"port" mapstructure:"port"`
	User            string `yaml:"user" mapstructure:"user"`
	Pass            string `yaml:"pass" mapstructure:"pass"`
	DBName          string `yaml:"db-name" mapstructure:"db-name"`

	// ForceTextFormat switches to the lib/pq driver and disables binary
	// parameters.
	ForceTextFormat bool `yaml:"force-text-format" mapstructure:"force-text-format"`
}

// Tables names the two collections written by the workload.
type Tables struct {
	Primary   string `yaml:"primary-table" mapstructure:"primary-table"`
	Secondary string `yaml:"secondary-table" mapstructure:"secondary-table"`
}

// DefaultTables returns the table names of the reference schema.
func DefaultTables() Tables {
	return Tables{Primary: DefaultPrimaryTable, Secondary: DefaultSecondaryTable}
}

// Validate checks that both names are plain, optionally schema-qualified,
// identifiers. They are interpolated into SQL text.
func (t Tables) Validate() error {
	for _, name := range []string{t.Primary, t.Secondary} {
		if name == "" {
			return errEmptyTable
		}
		if !identifierRe.MatchString(name) {
			return errors.Errorf("invalid table name %q", name)
		}
	}
	return nil
}

// Names returns the primary and secondary table names.
func (t Tables) Names() []string {
	return []string{t.Primary, t.Secondary}
}

// Driver returns the database/sql driver name to use.
func (o *ConnectOptions) Driver() string {
	if o.ForceTextFormat {
		return pqDriver
	}
	return pgxDriver
}

// GetConnectString returns a libpq-style keyword/value connection string.
func (o *ConnectOptions) GetConnectString() string {
	// User might be passing in host=hostname the connect string out of habit which may override the
	// explicit settings. Same for dbname=, user=, port= and password=. This sanitizes that.
	connectString := strings.Join(strings.Fields(connParamsRe.ReplaceAllString(o.PostgresConnect, "")), " ")
	connectString = strings.TrimSpace(fmt.Sprintf("host=%s dbname=%s user=%s %s", o.Host, o.DBName, o.User, connectString))

	// For optional parameters, ensure they exist then interpolate them into the connectString
	if len(o.Port) > 0 {
		connectString = fmt.Sprintf("%s port=%s", connectString, o.Port)
	}
	if len(o.Pass) > 0 {
		connectString = fmt.Sprintf("%s password=%s", connectString, o.Pass)
	}

	if o.ForceTextFormat {
		// we assume we're using pq driver
		connectString = fmt.Sprintf("%s disable_prepared_binary_result=yes binary_parameters=no", connectString)
	}

	return connectString
}

// Redacted returns a printable description of the target without the
// password.
func (o *ConnectOptions) Redacted() string {
	return fmt.Sprintf("%s@%s:%s/%s", o.User, o.Host, o.Port, o.DBName)
}

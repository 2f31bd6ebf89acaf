package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/syssam/propel/dialect"
)

// ExecQuerier wraps the standard Exec and Query methods shared by *sql.DB,
// *sql.Conn and *sql.Tx.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Driver applies generated DDL scripts to a database.
type Driver struct {
	db            *sql.DB
	dialect       string
	logger        *slog.Logger
	stats         *Stats
	slowThreshold time.Duration
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger used for statement and slow-statement logs.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// WithSlowThreshold sets the duration above which a statement is counted and
// logged as slow. Default is one second.
func WithSlowThreshold(t time.Duration) Option {
	return func(d *Driver) { d.slowThreshold = t }
}

// driverNames maps dialects to the database/sql driver names registered by
// the supported drivers.
var driverNames = map[string]string{
	dialect.MySQL:    "mysql",
	dialect.Postgres: "postgres",
	dialect.SQLite:   "sqlite",
}

// Open opens a connection for the given dialect. The driver must be
// registered, which importing dialect/sql/platform does for MySQL,
// PostgreSQL and SQLite.
func Open(name, source string, opts ...Option) (*Driver, error) {
	name = dialect.Normalize(name)
	drv, ok := driverNames[name]
	if !ok {
		return nil, fmt.Errorf("dialect/sql: no database driver for dialect %q", name)
	}
	db, err := sql.Open(drv, source)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: open: %w", err)
	}
	return OpenDB(name, db, opts...), nil
}

// OpenDB wraps an open *sql.DB.
func OpenDB(name string, db *sql.DB, opts ...Option) *Driver {
	d := &Driver{
		db:            db,
		dialect:       dialect.Normalize(name),
		logger:        slog.Default(),
		stats:         &Stats{},
		slowThreshold: time.Second,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DB returns the underlying *sql.DB.
func (d *Driver) DB() *sql.DB { return d.db }

// Dialect returns the canonical dialect name.
func (d *Driver) Dialect() string { return d.dialect }

// Stats returns the statement statistics of the driver.
func (d *Driver) Stats() *Stats { return d.stats }

// Close closes the underlying connection.
func (d *Driver) Close() error { return d.db.Close() }

// Apply splits script into statements and executes them in order inside one
// transaction. The first failing statement rolls the transaction back.
// MySQL commits DDL implicitly, so a failure there leaves earlier statements
// applied.
func (d *Driver) Apply(ctx context.Context, script string) (rerr error) {
	stmts := SplitStatements(script)
	if len(stmts) == 0 {
		return nil
	}
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("dialect/sql: begin: %w", err)
	}
	defer func() {
		if rerr != nil {
			rerr = errors.Join(rerr, tx.Rollback())
		}
	}()
	for i, stmt := range stmts {
		if err := d.exec(ctx, tx, stmt); err != nil {
			return fmt.Errorf("dialect/sql: statement %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("dialect/sql: commit: %w", err)
	}
	d.logger.Info("applied ddl", "dialect", d.dialect, "statements", len(stmts))
	return nil
}

func (d *Driver) exec(ctx context.Context, ex ExecQuerier, stmt string) error {
	start := time.Now()
	_, err := ex.ExecContext(ctx, stmt)
	elapsed := time.Since(start)
	d.stats.record(elapsed, err, elapsed > d.slowThreshold)
	if elapsed > d.slowThreshold {
		d.logger.Warn("slow statement", "duration", elapsed, "statement", stmt)
	} else {
		d.logger.Debug("exec", "duration", elapsed, "statement", stmt)
	}
	return err
}

// SplitStatements splits an SQL script on semicolons, ignoring those inside
// quoted strings or identifiers and skipping blank statements, "--" line
// comments and "#" comments at the start of a line.
func SplitStatements(script string) []string {
	var (
		stmts []string
		b     strings.Builder
		quote rune
	)
	flush := func() {
		if s := strings.TrimSpace(b.String()); s != "" {
			stmts = append(stmts, s)
		}
		b.Reset()
	}
	rs := []rune(script)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch {
		case quote != 0:
			b.WriteRune(r)
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"' || r == '`':
			quote = r
			b.WriteRune(r)
		case r == '[':
			quote = ']'
			b.WriteRune(r)
		case r == '-' && i+1 < len(rs) && rs[i+1] == '-',
			r == '#' && (i == 0 || rs[i-1] == '\n'):
			for i < len(rs) && rs[i] != '\n' {
				i++
			}
			b.WriteRune('\n')
		case r == ';':
			flush()
		default:
			b.WriteRune(r)
		}
	}
	flush()
	return stmts
}

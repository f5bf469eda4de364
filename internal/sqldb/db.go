// Package sqldb wraps a single SQLite database file with the connection
// discipline the hint store expects: one writer lane, a pool of reader
// connections and a schema version stored in PRAGMA user_version.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const (
	driverName = "sqlite"

	// DefaultMaxVariables mirrors SQLite's historical bound-parameter
	// ceiling (SQLITE_MAX_VARIABLE_NUMBER).
	DefaultMaxVariables = 999

	// DefaultReaders is the size of the reader connection pool.
	DefaultReaders = 4

	// DefaultSchemaVersion is stamped into user_version of freshly
	// created database files.
	DefaultSchemaVersion = 2
)

// DB holds two database/sql handles on the same file. The writer is
// limited to a single open connection so write transactions serialise;
// readers run outside transactions on their own pool.
type DB struct {
	writer       *sql.DB
	readers      *sql.DB
	version      int
	maxVariables int
}

type options struct {
	version      int
	maxVariables int
	readers      int
}

type Option func(*options)

// WithSchemaVersion sets the version stamped into fresh database files.
// Existing files keep whatever version they already carry.
func WithSchemaVersion(version int) Option {
	return func(o *options) {
		o.version = version
	}
}

// WithMaxVariables overrides the bound-parameter ceiling reported by
// MaxVariables.
func WithMaxVariables(n int) Option {
	return func(o *options) {
		o.maxVariables = n
	}
}

// WithReaders sets the reader pool size.
func WithReaders(n int) Option {
	return func(o *options) {
		o.readers = n
	}
}

// Open opens (creating if necessary) the database file at path.
func Open(path string, opts ...Option) (*DB, error) {
	o := options{
		version:      DefaultSchemaVersion,
		maxVariables: DefaultMaxVariables,
		readers:      DefaultReaders,
	}
	for _, opt := range opts {
		opt(&o)
	}

	// Per-connection pragmas ride in the DSN so they survive pool churn.
	dsn := "file:" + path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)"

	writer, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}
	writer.SetMaxOpenConns(1)

	readers, err := sql.Open(driverName, dsn)
	if err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("open readers: %w", err)
	}
	readers.SetMaxOpenConns(o.readers)

	db := &DB{
		writer:       writer,
		readers:      readers,
		maxVariables: o.maxVariables,
	}

	version, err := db.initVersion(o.version)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	db.version = version

	return db, nil
}

// initVersion reads user_version, stamping fresh files with want.
func (d *DB) initVersion(want int) (int, error) {
	var version int
	if err := d.writer.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("read user_version: %w", err)
	}
	if version != 0 {
		return version, nil
	}
	if _, err := d.writer.Exec(fmt.Sprintf("PRAGMA user_version = %d", want)); err != nil {
		return 0, fmt.Errorf("stamp user_version: %w", err)
	}
	return want, nil
}

// Version reports the schema version of the underlying file.
func (d *DB) Version() int {
	return d.version
}

// MaxVariables reports the maximum number of bound parameters a single
// query may carry.
func (d *DB) MaxVariables() int {
	return d.maxVariables
}

// Read runs fn with a connection from the reader pool, outside any
// transaction. The connection is returned to the pool when fn returns.
func (d *DB) Read(ctx context.Context, fn func(context.Context, *sql.Conn) error) error {
	conn, err := d.readers.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire reader connection: %w", err)
	}
	defer conn.Close()

	return fn(ctx, conn)
}

// Write runs fn inside a transaction on the writer lane, committing when
// fn returns nil and rolling back otherwise.
func (d *DB) Write(ctx context.Context, fn func(context.Context, *sql.Tx) error) error {
	tx, err := d.writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin write transaction: %w", err)
	}
	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit write transaction: %w", err)
	}
	return nil
}

// Stats exposes both pools' statistics, writer first.
func (d *DB) Stats() (writer, readers sql.DBStats) {
	return d.writer.Stats(), d.readers.Stats()
}

func (d *DB) Close() error {
	return errors.Join(d.writer.Close(), d.readers.Close())
}

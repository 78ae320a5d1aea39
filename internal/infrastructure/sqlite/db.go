// Package sqlite provides the SQLite storage context: the shared
// connection, the migrated schema, the mapper registry, and the current
// unit of work.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"go.opentelemetry.io/otel/trace"
	_ "modernc.org/sqlite"

	"github.com/georgekorob/patterns-project/internal/infrastructure/sqlite/migrations"
	"github.com/georgekorob/patterns-project/internal/log"
	"github.com/georgekorob/patterns-project/internal/mapper"
	"github.com/georgekorob/patterns-project/internal/pubsub"
	"github.com/georgekorob/patterns-project/internal/tracing"
	"github.com/georgekorob/patterns-project/internal/uow"
)

// Driver selects the database/sql driver.
type Driver string

const (
	// DriverNcruces is the wasm-based github.com/ncruces/go-sqlite3 driver.
	DriverNcruces Driver = "ncruces"
	// DriverModernc is the transpiled modernc.org/sqlite driver.
	DriverModernc Driver = "modernc"
)

const defaultBusyTimeout = 5 * time.Second

// ErrNoCurrentUnit is returned by Current before NewUnit was called.
var ErrNoCurrentUnit = errors.New("no current unit of work")

// ParseDriver validates a driver name. An empty name selects ncruces.
func ParseDriver(name string) (Driver, error) {
	switch Driver(name) {
	case "", DriverNcruces:
		return DriverNcruces, nil
	case DriverModernc:
		return DriverModernc, nil
	default:
		return "", fmt.Errorf("unknown database driver %q (must be %q or %q)", name, DriverNcruces, DriverModernc)
	}
}

func (d Driver) sqlName() string {
	if d == DriverModernc {
		return "sqlite"
	}
	return "sqlite3"
}

// DB is the storage context shared by every mapper and unit of work of
// one process.
type DB struct {
	conn     *sql.DB
	path     string
	driver   Driver
	registry *mapper.Registry
	events   *pubsub.Broker[uow.Change]
	logger   *log.Logger
	tracer   trace.Tracer
	timeout  time.Duration

	current *uow.UnitOfWork
}

// Option configures NewDB.
type Option func(*DB)

// WithDriver selects the SQLite driver.
func WithDriver(d Driver) Option {
	return func(db *DB) {
		db.driver = d
	}
}

// WithLogger sets the logger shared with the registry and units.
func WithLogger(logger *log.Logger) Option {
	return func(db *DB) {
		db.logger = logger
	}
}

// WithTracer sets the tracer shared with the registry and units.
func WithTracer(tracer trace.Tracer) Option {
	return func(db *DB) {
		db.tracer = tracer
	}
}

// WithBusyTimeout overrides the 5s busy timeout.
func WithBusyTimeout(d time.Duration) Option {
	return func(db *DB) {
		if d > 0 {
			db.timeout = d
		}
	}
}

// NewDB opens the database at path, creating the parent directory with
// 0700 permissions if needed. An existing file is copied to path+".bak"
// before migrations run.
func NewDB(path string, opts ...Option) (*DB, error) {
	db := &DB{
		path:    path,
		driver:  DriverNcruces,
		logger:  log.Nop(),
		tracer:  tracing.NoopTracer(),
		timeout: defaultBusyTimeout,
	}
	for _, opt := range opts {
		opt(db)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := backupFile(path, path+".bak"); err != nil {
			return nil, fmt.Errorf("failed to back up database: %w", err)
		}
		db.logger.Debug(log.CatDB, "Backed up database", "path", path+".bak")
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)&_pragma=journal_mode(wal)",
		path, db.timeout.Milliseconds())
	conn, err := sql.Open(db.driver.sqlName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: the mappers run nested queries sequentially on it.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := runMigrations(conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	registry := mapper.NewRegistry(conn, mapper.WithLogger(db.logger), mapper.WithTracer(db.tracer))
	if err := registry.Register(CatalogSchemas()...); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to register schemas: %w", err)
	}

	db.conn = conn
	db.registry = registry
	db.events = pubsub.NewBrokerWithBuffer[uow.Change](256)
	db.logger.Info(log.CatDB, "Opened database", "path", path, "driver", db.driver)
	return db, nil
}

func runMigrations(conn *sql.DB) error {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	defer func() { _ = src.Close() }()

	driver, err := migratesqlite.WithInstance(conn, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("migrator: %w", err)
	}
	// m.Close would close conn; only the source is released.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func backupFile(src, dst string) error {
	in, err := os.Open(src) // #nosec G304 -- path comes from config
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600) // #nosec G304 -- derived from config path
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// Path returns the database file path.
func (db *DB) Path() string { return db.path }

// Driver returns the driver in use.
func (db *DB) Driver() Driver { return db.driver }

// Conn returns the underlying connection pool.
func (db *DB) Conn() *sql.DB { return db.conn }

// Registry returns the mapper registry with every catalog schema.
func (db *DB) Registry() *mapper.Registry { return db.registry }

// Events returns the broker every unit created by NewUnit publishes to.
func (db *DB) Events() *pubsub.Broker[uow.Change] { return db.events }

// NewUnit installs and returns a fresh current unit of work. A previous
// unit is discarded along with anything it buffered.
func (db *DB) NewUnit() *uow.UnitOfWork {
	if db.current != nil && db.current.Pending().Total() > 0 {
		db.logger.Warn(log.CatUoW, "Discarding unit with pending changes",
			"unit", db.current.ID(), "pending", db.current.Pending().Total())
	}
	db.current = uow.New(
		uow.WithRegistry(db.registry),
		uow.WithLogger(db.logger),
		uow.WithTracer(db.tracer),
		uow.WithBroker(db.events),
	)
	return db.current
}

// Current returns the unit installed by the last NewUnit call.
func (db *DB) Current() (*uow.UnitOfWork, error) {
	if db.current == nil {
		return nil, ErrNoCurrentUnit
	}
	return db.current, nil
}

// Close closes the event broker and the connection.
func (db *DB) Close() error {
	if db.events != nil {
		db.events.Close()
	}
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

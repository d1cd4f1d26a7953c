package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"journal/apperrors"
	"journal/logger"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// dsnOptions enable foreign keys (cascading entry_tags deletes) and open every transaction with
// BEGIN IMMEDIATE so concurrent writers serialize on the database lock instead of racing.
const dsnOptions = "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate"

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Store is the SQLite persistence layer for users, entries and tags.
//
// The root Store returned by Open runs statements on the connection pool. Acquire derives a
// Store pinned to one connection and WithTx derives one bound to a transaction; all three
// expose the same methods.
type Store struct {
	db   *sql.DB
	conn txBeginner
	q    querier
	inTx bool
}

// Open opens (creating if needed) the database at path and applies pending migrations.
func Open(path string) (*Store, error) {
	dbDir := filepath.Dir(path)
	if dbDir != "." && dbDir != "" {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			logger.Error("Failed to create database directory %s: %v", dbDir, err)
			return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+dsnOptions)
	if err != nil {
		logger.Error("Failed to open database: %v", err)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		logger.Error("Failed to connect to database: %v", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, conn: db, q: db}, nil
}

func applyMigrations(db *sql.DB) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to initialize migration driver: %w", err)
	}
	// m.Close is not called: the sqlite3 driver would close db with it.
	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		logger.Error("Failed to initialize migrations: %v", err)
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}

	logger.Info("Applying database migrations...")
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Failed to apply migrations: %v", err)
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	logger.Info("Database migrations applied successfully (or no changes).")
	return nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Shutdown closes the store when the service container shuts down.
func (s *Store) Shutdown() error {
	logger.Info("Closing database.")
	return s.Close()
}

// DB exposes the connection pool for maintenance queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Acquire pins a single connection for the lifetime of a request.
// The returned release func must be called on every exit path.
func (s *Store) Acquire(ctx context.Context) (*Store, func(), error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, func() {}, fmt.Errorf("acquiring database connection: %w", err)
	}
	scoped := &Store{db: s.db, conn: conn, q: conn}
	release := func() {
		if err := conn.Close(); err != nil {
			logger.Error("Store.Acquire: Error releasing connection: %v", err)
		}
	}
	return scoped, release, nil
}

type storeContextKey struct{}

// NewContext returns a copy of ctx carrying the request-scoped store.
func NewContext(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, storeContextKey{}, s)
}

// Scoped returns the request-scoped store carried by ctx if it belongs to the same database,
// otherwise s itself.
func (s *Store) Scoped(ctx context.Context) *Store {
	if scoped, ok := ctx.Value(storeContextKey{}).(*Store); ok && scoped.db == s.db {
		return scoped
	}
	return s
}

// WithTx runs fn inside a transaction, committing when fn returns nil and rolling back
// otherwise. Calls made on a Store that is already transactional join the open transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.inTx {
		return fn(s)
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Store{db: s.db, conn: s.conn, q: tx, inTx: true}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logger.Error("Store.WithTx: Error rolling back: %v", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// notFoundOr maps sql.ErrNoRows to a NotFound error and wraps anything else.
func notFoundOr(err error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.Wrap(err, apperrors.CodeNotFound, fmt.Sprintf(format, args...)+" not found")
	}
	return fmt.Errorf("querying "+format+": %w", append(args, err)...)
}

// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/swamys/hotfoods/internal/model"
	"github.com/swamys/hotfoods/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	queries
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return newStore(db), nil
}

func newStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{queries: queries{db: db}, db: db}
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// RunInTransaction begins a database transaction, creates a txStore that
// delegates to it, calls fn, and commits on success or rolls back on error.
func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&txStore{queries: queries{db: tx}}); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txStore implements store.Store using a *sql.Tx.
type txStore struct {
	queries
}

// Compile-time check that txStore implements store.Store.
var _ store.Store = (*txStore)(nil)

// RunInTransaction on a txStore reuses the existing transaction (no nesting).
func (s *txStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

// Close is a no-op for a transaction store; the parent store owns the connection.
func (s *txStore) Close() error {
	return nil
}

// queries binds the query functions to an executor. Both the pooled store
// and transaction stores embed it.
type queries struct {
	db executor
}

func (q queries) GetStoreConfig(ctx context.Context) (*model.StoreConfig, error) {
	return queryGetStoreConfig(ctx, q.db)
}

func (q queries) LockStoreConfig(ctx context.Context) (*model.StoreConfig, error) {
	return queryLockStoreConfig(ctx, q.db)
}

func (q queries) CreateStoreConfig(ctx context.Context, cfg *model.StoreConfig) (*model.StoreConfig, error) {
	return queryCreateStoreConfig(ctx, q.db, cfg)
}

func (q queries) SaveStoreConfig(ctx context.Context, cfg *model.StoreConfig) error {
	return querySaveStoreConfig(ctx, q.db, cfg)
}

func (q queries) CreateMenuItem(ctx context.Context, item *model.MenuItem) error {
	return queryCreateMenuItem(ctx, q.db, item)
}

func (q queries) GetMenuItem(ctx context.Context, id string) (*model.MenuItem, error) {
	return queryGetMenuItem(ctx, q.db, id)
}

func (q queries) ListMenuItems(ctx context.Context, filter model.MenuFilter) ([]*model.MenuItem, error) {
	return queryListMenuItems(ctx, q.db, filter)
}

func (q queries) UpdateMenuItem(ctx context.Context, item *model.MenuItem) error {
	return queryUpdateMenuItem(ctx, q.db, item)
}

func (q queries) DeleteMenuItem(ctx context.Context, id string) error {
	return queryDeleteMenuItem(ctx, q.db, id)
}

func (q queries) AssignTemplate(ctx context.Context, menuIDs []string, key string, at time.Time) (int, error) {
	return queryAssignTemplate(ctx, q.db, menuIDs, key, at)
}

func (q queries) CreateTemplate(ctx context.Context, tmpl *model.TimingTemplate) error {
	return queryCreateTemplate(ctx, q.db, tmpl)
}

func (q queries) GetTemplate(ctx context.Context, id string) (*model.TimingTemplate, error) {
	return queryGetTemplate(ctx, q.db, id)
}

func (q queries) GetTemplateByKey(ctx context.Context, key string) (*model.TimingTemplate, error) {
	return queryGetTemplateByKey(ctx, q.db, key)
}

func (q queries) ListTemplates(ctx context.Context) ([]*model.TimingTemplate, error) {
	return queryListTemplates(ctx, q.db)
}

func (q queries) UpdateTemplate(ctx context.Context, tmpl *model.TimingTemplate) error {
	return queryUpdateTemplate(ctx, q.db, tmpl)
}

func (q queries) DeactivateTemplate(ctx context.Context, id string, at time.Time) error {
	return queryDeactivateTemplate(ctx, q.db, id, at)
}

func (q queries) CreateUser(ctx context.Context, user *model.User) error {
	return queryCreateUser(ctx, q.db, user)
}

func (q queries) GetUser(ctx context.Context, id string) (*model.User, error) {
	return queryGetUser(ctx, q.db, id)
}

func (q queries) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return queryGetUserByUsername(ctx, q.db, username)
}

func (q queries) CreateSession(ctx context.Context, sess *model.Session) error {
	return queryCreateSession(ctx, q.db, sess)
}

func (q queries) GetSession(ctx context.Context, token string) (*model.Session, error) {
	return queryGetSession(ctx, q.db, token)
}

func (q queries) DeleteSession(ctx context.Context, token string) error {
	return queryDeleteSession(ctx, q.db, token)
}

func (q queries) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	return queryDeleteExpiredSessions(ctx, q.db, now)
}

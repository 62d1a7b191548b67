// Package stores persists the local registration ledger: one row per flow
// registered with the workflow engine, for later inspection from the CLI.
package stores

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"

	"github.com/openbakery/openbakery/pkg/registrar"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Ledger is the SQLite-backed registration ledger. It implements
// registrar.RegistrationLedger.
type Ledger struct {
	db   *sql.DB
	path string
}

// Config holds ledger configuration.
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewLedger creates a ledger instance. Call Init before use.
func NewLedger(cfg Config) (*Ledger, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("ledger path is required")
	}
	return &Ledger{path: cfg.Path}, nil
}

// Init opens the database, enables WAL mode and runs migrations.
func (l *Ledger) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", l.path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping ledger: %w", err)
	}

	l.db = db
	return l.migrate()
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

func (l *Ledger) migrate() error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}
	driver, err := sqlite3.WithInstance(l.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("create migration instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Record implements registrar.RegistrationLedger.
func (l *Ledger) Record(ctx context.Context, reg registrar.Registration) error {
	const query = `
		INSERT INTO registrations
			(id, flow_id, recipe_id, bakery_id, project, run_id, correlation_id, registered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := l.db.ExecContext(ctx, query,
		reg.ID, reg.FlowID, reg.RecipeID, reg.BakeryID, reg.Project,
		reg.RunID, reg.CorrelationID, reg.RegisteredAt)
	if err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

// List returns the most recent registrations, newest first.
func (l *Ledger) List(ctx context.Context, limit int) ([]registrar.Registration, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT id, flow_id, recipe_id, bakery_id, project, run_id, correlation_id, registered_at
		FROM registrations
		ORDER BY registered_at DESC
		LIMIT ?`

	rows, err := l.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query registrations: %w", err)
	}
	defer rows.Close()

	var regs []registrar.Registration
	for rows.Next() {
		var reg registrar.Registration
		if err := rows.Scan(&reg.ID, &reg.FlowID, &reg.RecipeID, &reg.BakeryID,
			&reg.Project, &reg.RunID, &reg.CorrelationID, &reg.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

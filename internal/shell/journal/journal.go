// Package journal persists receipts of broadcast deployment transactions.
// The journal is best-effort bookkeeping: orchestration never fails because
// a receipt could not be written.
package journal

import (
	"context"
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/artpar/chaindeploy/internal/core/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// =============================================================================
// Journal Interface
// =============================================================================

// Journal records broadcast receipts.
type Journal interface {
	// Record persists one receipt.
	Record(ctx context.Context, receipt domain.Receipt) error

	// Close releases the journal's resources.
	Close() error
}

// =============================================================================
// SQLite Journal
// =============================================================================

// SQLiteJournal implements Journal on a local SQLite database.
type SQLiteJournal struct {
	db *sqlx.DB
}

// Open opens the journal database at path and runs migrations.
func Open(path string) (*SQLiteJournal, error) {
	db, err := sqlx.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping journal: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate journal: %w", err)
	}

	return &SQLiteJournal{db: db}, nil
}

func runMigrations(db *sqlx.DB) error {
	driver, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{NoTxWrap: true})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Record persists one receipt.
func (j *SQLiteJournal) Record(ctx context.Context, receipt domain.Receipt) error {
	const query = `
		INSERT INTO receipts (id, run_id, program, deployment_id, network, endpoint, fee_paid, broadcast_at)
		VALUES (:id, :run_id, :program, :deployment_id, :network, :endpoint, :fee_paid, :broadcast_at)`

	if _, err := j.db.NamedExecContext(ctx, query, receipt); err != nil {
		return fmt.Errorf("insert receipt for %s: %w", receipt.Program, err)
	}
	return nil
}

// ListByRun returns the receipts of one orchestration run, in broadcast order.
func (j *SQLiteJournal) ListByRun(ctx context.Context, runID string) ([]domain.Receipt, error) {
	const query = `
		SELECT id, run_id, program, deployment_id, network, endpoint, fee_paid, broadcast_at
		FROM receipts WHERE run_id = ? ORDER BY rowid`

	var receipts []domain.Receipt
	if err := j.db.SelectContext(ctx, &receipts, query, runID); err != nil {
		return nil, fmt.Errorf("list receipts for run %s: %w", runID, err)
	}
	return receipts, nil
}

// Close closes the underlying database.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

// =============================================================================
// No-Op Journal (for runs without a configured journal)
// =============================================================================

// NoOpJournal discards every receipt.
type NoOpJournal struct{}

// NewNoOpJournal creates a no-op journal.
func NewNoOpJournal() *NoOpJournal {
	return &NoOpJournal{}
}

// Record does nothing.
func (j *NoOpJournal) Record(ctx context.Context, receipt domain.Receipt) error {
	return nil
}

// Close does nothing.
func (j *NoOpJournal) Close() error {
	return nil
}

package journal

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite repository.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	repo := &SQLiteRepository{db: db}

	if err := repo.Migrate(context.Background()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return repo, nil
}

// Migrate runs database migrations.
func (r *SQLiteRepository) Migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS signals (
			id TEXT PRIMARY KEY,
			received_at DATETIME NOT NULL,
			action TEXT NOT NULL,
			sub_action TEXT,
			symbol TEXT,
			stop_loss TEXT,
			take_profit TEXT,
			confidence REAL NOT NULL DEFAULT 0,
			notes TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_received_at ON signals(received_at)`,

		`CREATE TABLE IF NOT EXISTS outcomes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			signal_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			symbol TEXT,
			ticket INTEGER NOT NULL DEFAULT 0,
			retcode INTEGER NOT NULL DEFAULT 0,
			detail TEXT,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_signal_id ON outcomes(signal_id)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_created_at ON outcomes(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("execute migration: %w", err)
		}
	}

	return nil
}

// SaveSignal persists a signal record.
func (r *SQLiteRepository) SaveSignal(ctx context.Context, rec SignalRecord) error {
	query := `INSERT INTO signals (id, received_at, action, sub_action, symbol, stop_loss, take_profit, confidence, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.ReceivedAt,
		rec.Action,
		rec.SubAction,
		rec.Symbol,
		rec.StopLoss,
		rec.TakeProfit,
		rec.Confidence,
		rec.Notes,
	)
	if err != nil {
		return fmt.Errorf("save signal: %w", err)
	}
	return nil
}

// SaveOutcome persists an outcome record.
func (r *SQLiteRepository) SaveOutcome(ctx context.Context, rec OutcomeRecord) error {
	query := `INSERT INTO outcomes (signal_id, kind, symbol, ticket, retcode, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		rec.SignalID,
		rec.Kind,
		rec.Symbol,
		rec.Ticket,
		rec.Retcode,
		rec.Detail,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save outcome: %w", err)
	}
	return nil
}

// RecentOutcomes returns the most recent outcomes, newest first.
func (r *SQLiteRepository) RecentOutcomes(ctx context.Context, limit int) ([]OutcomeRecord, error) {
	query := `SELECT id, signal_id, kind, symbol, ticket, retcode, detail, created_at
		FROM outcomes ORDER BY id DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanOutcomes(rows)
}

// OutcomesBySignal returns all outcomes recorded for a signal, oldest first.
func (r *SQLiteRepository) OutcomesBySignal(ctx context.Context, signalID string) ([]OutcomeRecord, error) {
	query := `SELECT id, signal_id, kind, symbol, ticket, retcode, detail, created_at
		FROM outcomes WHERE signal_id = ? ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, signalID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanOutcomes(rows)
}

func scanOutcomes(rows *sql.Rows) ([]OutcomeRecord, error) {
	var records []OutcomeRecord
	for rows.Next() {
		var rec OutcomeRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.SignalID,
			&rec.Kind,
			&rec.Symbol,
			&rec.Ticket,
			&rec.Retcode,
			&rec.Detail,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the database.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

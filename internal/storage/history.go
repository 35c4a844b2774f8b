package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/glebarez/go-sqlite"

	"roxom_mm/internal/domain"
)

// HistoryStore persists applied order transitions to SQLite for post-mortem
// diagnostics. It is insert-only and never read back at startup: the venue
// rebuilds live state, this table just survives it.
type HistoryStore struct {
	db *sql.DB
}

// NewHistoryStore opens (or creates) the audit database with WAL mode enabled.
func NewHistoryStore(dbPath string) (*HistoryStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS order_transitions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			order_id TEXT NOT NULL,
			previous_status TEXT NOT NULL,
			new_status TEXT NOT NULL,
			executed_qty TEXT,
			remaining_qty TEXT,
			avg_price TEXT,
			venue_ts TEXT,
			processed_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create order_transitions table: %w", err)
	}

	return &HistoryStore{db: db}, nil
}

// Insert appends one transition. Implements TransitionSink.
func (s *HistoryStore) Insert(t domain.OrderTransition) error {
	_, err := s.db.Exec(
		`INSERT INTO order_transitions
			(order_id, previous_status, new_status, executed_qty, remaining_qty, avg_price, venue_ts, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.OrderID, string(t.PreviousStatus), string(t.NewStatus),
		t.ExecutedQty, t.RemainingQty, t.AvgPrice, t.VenueTimestamp,
		t.ProcessedAt.UnixMicro(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transition: %w", err)
	}
	return nil
}

// Count returns the number of stored transitions.
func (s *HistoryStore) Count() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM order_transitions").Scan(&n)
	return n, err
}

// Close closes the database connection.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

const cartSnapshotsSchema = `
CREATE TABLE IF NOT EXISTS cart_snapshots (
	session_id TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

// PostgresCartStore stores cart payloads in the cart_snapshots table
type PostgresCartStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresCartStore(db *sql.DB) *PostgresCartStore {
	return &PostgresCartStore{db: db, now: time.Now}
}

// EnsureSchema creates the cart_snapshots table when it does not exist
func (s *PostgresCartStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, cartSnapshotsSchema); err != nil {
		return fmt.Errorf("failed to create cart_snapshots: %w", err)
	}
	return nil
}

func (s *PostgresCartStore) Load(ctx context.Context, sessionID string) ([]byte, bool, error) {
	if sessionID == "" {
		return nil, false, ErrEmptySessionID
	}

	var payload []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM cart_snapshots WHERE session_id = $1",
		sessionID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load cart: %w", err)
	}
	return payload, true, nil
}

func (s *PostgresCartStore) Save(ctx context.Context, sessionID string, payload []byte) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cart_snapshots (session_id, payload, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (session_id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
		sessionID,
		payload,
		s.now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

func (s *PostgresCartStore) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM cart_snapshots WHERE session_id = $1", sessionID); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

// ConnectPostgres establishes a connection to PostgreSQL
func ConnectPostgres(ctx context.Context, connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

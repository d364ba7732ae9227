package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// PostgresSlotRepository stores slots in the enrollment_slots table.
type PostgresSlotRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewPostgresSlotRepository constructs the repository.
func NewPostgresSlotRepository(db *sqlx.DB) *PostgresSlotRepository {
	return &PostgresSlotRepository{db: db, now: time.Now}
}

// Get fetches the payload for key.
func (r *PostgresSlotRepository) Get(ctx context.Context, key string) ([]byte, error) {
	const query = `SELECT payload FROM enrollment_slots WHERE slot_key = $1`
	var payload []byte
	if err := r.db.GetContext(ctx, &payload, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, slotEmpty(key)
		}
		return nil, fmt.Errorf("get slot %s: %w", key, err)
	}
	return payload, nil
}

// Set upserts the payload for key.
func (r *PostgresSlotRepository) Set(ctx context.Context, key string, payload []byte) error {
	const query = `INSERT INTO enrollment_slots (slot_key, payload, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (slot_key)
DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, key, string(payload), r.now().UTC()); err != nil {
		return fmt.Errorf("upsert slot %s: %w", key, err)
	}
	return nil
}

// Remove deletes the row for key.
func (r *PostgresSlotRepository) Remove(ctx context.Context, key string) error {
	const query = `DELETE FROM enrollment_slots WHERE slot_key = $1`
	if _, err := r.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("delete slot %s: %w", key, err)
	}
	return nil
}

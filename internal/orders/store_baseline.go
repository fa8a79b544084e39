package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// baselineKey identifies the single global baseline record. The table is
// keyed so per-workspace baselines can be added without a schema change.
const baselineKey = "global"

// SaveBaseline upserts the serialized learned-baseline record.
func (s *Store) SaveBaseline(ctx context.Context, payload []byte) error {
	if len(payload) == 0 {
		return errors.New("baseline payload is empty")
	}
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO baseline_records (key, payload, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		baselineKey,
		string(payload),
		formatTime(time.Now().UTC()),
	)
	if err != nil {
		return fmt.Errorf("save baseline: %w", err)
	}
	return nil
}

// LoadBaseline returns the serialized baseline record, or nil when none has
// been persisted yet.
func (s *Store) LoadBaseline(ctx context.Context) ([]byte, error) {
	var payload string
	row := s.db.QueryRowContext(ctx, `SELECT payload FROM baseline_records WHERE key = ?`, baselineKey)
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load baseline: %w", err)
	}
	return []byte(payload), nil
}

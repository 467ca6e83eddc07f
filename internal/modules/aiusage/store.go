// README: Allowance store backed by PostgreSQL; one row per owner, reset lazily per month.
package aiusage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"voyage/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Consume takes one unit for period in a single statement. A new owner or a new
// period starts from allowance. Returns the units left, or ErrQuotaExceeded.
func (s *Store) Consume(ctx context.Context, ownerID types.ID, period string, allowance int) (int, error) {
	var remaining int
	err := s.db.QueryRow(ctx, `
		INSERT INTO ai_usage (owner_id, remaining, period, updated_at)
		VALUES ($1, $2 - 1, $3, NOW())
		ON CONFLICT (owner_id) DO UPDATE
		SET remaining = CASE
				WHEN ai_usage.period <> EXCLUDED.period THEN $2 - 1
				ELSE ai_usage.remaining - 1
			END,
			period = EXCLUDED.period,
			updated_at = NOW()
		WHERE ai_usage.period <> EXCLUDED.period OR ai_usage.remaining > 0
		RETURNING remaining`,
		string(ownerID), allowance, period,
	).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrQuotaExceeded
	}
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

// README: Itinerary store backed by PostgreSQL.
package itinerary

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"voyage/internal/types"
)

var _ Repository = (*Store)(nil)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const planColumns = `id, owner_id, departure, destination, duration, start_date,
	budget, travelers, interests, generated_plan, version, created_at, updated_at`

func (s *Store) Create(ctx context.Context, p *Plan) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO trip_plans (`+planColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		string(p.ID),
		string(p.OwnerID),
		p.Departure,
		p.Destination,
		p.Duration,
		p.StartDate,
		p.Budget,
		p.Travelers,
		p.Interests,
		p.GeneratedPlan,
		p.Version,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, ownerID, id types.ID) (*Plan, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+planColumns+`
		FROM trip_plans
		WHERE id = $1 AND owner_id = $2`, string(id), string(ownerID),
	)
	p, err := scanPlan(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) ListByOwner(ctx context.Context, ownerID types.ID) ([]*Plan, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+planColumns+`
		FROM trip_plans
		WHERE owner_id = $1
		ORDER BY created_at DESC`, string(ownerID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := []*Plan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (s *Store) Update(ctx context.Context, p *Plan, expectedVersion int) error {
	var version int
	var updatedAt time.Time
	err := s.db.QueryRow(ctx, `
		UPDATE trip_plans
		SET departure = $1,
			destination = $2,
			duration = $3,
			start_date = $4,
			budget = $5,
			travelers = $6,
			interests = $7,
			generated_plan = $8,
			version = version + 1,
			updated_at = $9
		WHERE id = $10 AND owner_id = $11 AND version = $12
		RETURNING version, updated_at`,
		p.Departure,
		p.Destination,
		p.Duration,
		p.StartDate,
		p.Budget,
		p.Travelers,
		p.Interests,
		p.GeneratedPlan,
		p.UpdatedAt,
		string(p.ID),
		string(p.OwnerID),
		expectedVersion,
	).Scan(&version, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrConflict
	}
	if err != nil {
		return err
	}
	p.Version = version
	p.UpdatedAt = updatedAt
	return nil
}

func (s *Store) Delete(ctx context.Context, ownerID, id types.ID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM trip_plans WHERE id = $1 AND owner_id = $2`, string(id), string(ownerID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPlan(row pgx.Row) (*Plan, error) {
	var p Plan
	var id, ownerID string
	err := row.Scan(
		&id, &ownerID, &p.Departure, &p.Destination, &p.Duration, &p.StartDate,
		&p.Budget, &p.Travelers, &p.Interests, &p.GeneratedPlan, &p.Version, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.ID = types.ID(id)
	p.OwnerID = types.ID(ownerID)
	return &p, nil
}

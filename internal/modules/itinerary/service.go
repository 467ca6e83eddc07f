// README: Itinerary service implements owner-scoped CRUD with optimistic versioning.
package itinerary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"voyage/internal/types"
)

var (
	ErrNotFound   = errors.New("trip plan not found")
	ErrConflict   = errors.New("trip plan was modified concurrently")
	ErrValidation = errors.New("invalid trip plan")
)

// Repository persists plans. Every lookup is scoped to the owner, so a plan
// belonging to someone else is indistinguishable from a missing one.
type Repository interface {
	Create(ctx context.Context, p *Plan) error
	Get(ctx context.Context, ownerID, id types.ID) (*Plan, error)
	ListByOwner(ctx context.Context, ownerID types.ID) ([]*Plan, error)
	// Update writes every mutable field when the stored version equals
	// expectedVersion, then bumps p.Version. A version miss returns ErrConflict.
	Update(ctx context.Context, p *Plan, expectedVersion int) error
	Delete(ctx context.Context, ownerID, id types.ID) error
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

type CreateCommand struct {
	OwnerID       types.ID
	Spec          TripSpec
	GeneratedPlan string
}

type UpdateCommand struct {
	OwnerID types.ID
	ID      types.ID
	Patch   Patch
	// Version, when set, must match the stored version.
	Version *int
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Plan, error) {
	if cmd.OwnerID == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrValidation)
	}
	spec := cmd.Spec
	spec.Normalize()
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cmd.GeneratedPlan) == "" {
		return nil, fmt.Errorf("%w: generated plan is required", ErrValidation)
	}

	now := s.now()
	p := &Plan{
		ID:            types.ID(uuid.NewString()),
		OwnerID:       cmd.OwnerID,
		TripSpec:      spec,
		GeneratedPlan: cmd.GeneratedPlan,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, ownerID, id types.ID) (*Plan, error) {
	if !validPlanID(id) {
		return nil, ErrNotFound
	}
	return s.repo.Get(ctx, ownerID, id)
}

// List returns the owner's plans, newest first.
func (s *Service) List(ctx context.Context, ownerID types.ID) ([]*Plan, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *Service) Update(ctx context.Context, cmd UpdateCommand) (*Plan, error) {
	cur, err := s.Get(ctx, cmd.OwnerID, cmd.ID)
	if err != nil {
		return nil, err
	}
	if cmd.Version != nil && *cmd.Version != cur.Version {
		return nil, ErrConflict
	}

	next := cur.Clone()
	cmd.Patch.Apply(&next)
	if err := next.TripSpec.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(next.GeneratedPlan) == "" {
		return nil, fmt.Errorf("%w: generated plan is required", ErrValidation)
	}
	return s.Save(ctx, next, cur.Version)
}

// Save commits a reconciled plan. It is the single write point for refinements:
// a retry of a write that already landed returns the stored plan instead of
// ErrConflict, so repeating the same logical write is safe.
func (s *Service) Save(ctx context.Context, p Plan, expectedVersion int) (*Plan, error) {
	p.UpdatedAt = s.now()
	err := s.repo.Update(ctx, &p, expectedVersion)
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, ErrConflict) {
		return nil, err
	}

	stored, gerr := s.repo.Get(ctx, p.OwnerID, p.ID)
	if gerr != nil {
		return nil, gerr
	}
	if stored.SameContent(p) {
		return stored, nil
	}
	return nil, ErrConflict
}

func (s *Service) Delete(ctx context.Context, ownerID, id types.ID) error {
	if !validPlanID(id) {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, ownerID, id)
}

func validPlanID(id types.ID) bool {
	_, err := uuid.Parse(string(id))
	return err == nil
}

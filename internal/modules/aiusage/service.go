// README: Allowance service; one unit per completion-backed request.
package aiusage

import (
	"context"
	"time"

	"voyage/internal/types"
)

type Service struct {
	store     *Store
	allowance int
	now       func() time.Time
}

// NewService returns nil when allowance is not positive, which disables the check.
func NewService(store *Store, allowance int) *Service {
	if allowance <= 0 {
		return nil
	}
	return &Service{store: store, allowance: allowance, now: time.Now}
}

// Use consumes one unit of the owner's allowance for the current month.
func (s *Service) Use(ctx context.Context, ownerID types.ID) error {
	if s == nil {
		return nil
	}
	_, err := s.store.Consume(ctx, ownerID, s.now().UTC().Format(periodLayout), s.allowance)
	return err
}

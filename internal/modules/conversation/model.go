// README: Conversation turns and the bounded per-owner log contract.
package conversation

import (
	"context"
	"time"

	"voyage/internal/types"
)

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// DefaultLimit is the number of most recent turns kept per owner.
const DefaultLimit = 50

type Turn struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Log is an append-only, bounded sequence of turns per owner. Append trims
// to the limit in the same atomic step, keeping the most recent turns.
type Log interface {
	Append(ctx context.Context, ownerID types.ID, turns ...Turn) error
	GetAll(ctx context.Context, ownerID types.ID) ([]Turn, error)
	Clear(ctx context.Context, ownerID types.ID) error
}

// Exchange builds the user/model pair recorded for one round trip.
func Exchange(userText, modelText string, at time.Time) []Turn {
	return []Turn{
		{Role: RoleUser, Text: userText, Timestamp: at},
		{Role: RoleModel, Text: modelText, Timestamp: at},
	}
}

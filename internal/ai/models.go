// README: Provider-neutral request/response types and failure taxonomy.
package ai

import (
	"errors"
	"strings"
)

var (
	ErrRateLimited         = errors.New("completion service rate limited")
	ErrUpstreamUnavailable = errors.New("completion service unavailable")
)

// Roles used in Turn.Role.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

const (
	// TruncationNotice is appended to partial text when the output hit the length cap.
	TruncationNotice = "\n\n[Note : réponse tronquée, veuillez poser des questions plus courtes]"
	// TooLongReply replaces an answer that was cut off before producing any text.
	TooLongReply = "Désolé, ma réponse était trop longue. Pouvez-vous poser une question plus précise ?"
)

// SystemInstruction is the persona sent with every completion request.
const SystemInstruction = `Tu es l'assistant de voyage de Voyage Évasion.
Tu aides les voyageurs à préparer des séjours réalistes : itinéraires jour par jour, budgets, transports, hébergements et activités.
Réponds en français, avec des titres clairs et des listes à puces. Sois précis sur les prix et les durées, et signale les contraintes (saison, visas, budget) quand elles comptent.`

// Turn is one prior exchange passed as context.
type Turn struct {
	Role string
	Text string
}

// Completion is the text returned by a provider.
type Completion struct {
	Text      string
	Truncated bool
}

// finish assembles provider output into a Completion, applying the truncation policy.
func finish(parts []string, truncated bool) Completion {
	text := strings.TrimSpace(strings.Join(parts, ""))
	if !truncated {
		return Completion{Text: text}
	}
	if text == "" {
		return Completion{Text: TooLongReply, Truncated: true}
	}
	return Completion{Text: text + TruncationNotice, Truncated: true}
}

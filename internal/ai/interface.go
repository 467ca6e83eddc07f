// README: Completion contract shared by the Gemini and OpenAI providers.
package ai

import "context"

// Completer sends a prompt plus prior turns to a text-generation service.
// Implementations are stateless per call: history is read, never mutated.
//
// Errors: ErrRateLimited when the upstream throttles, ErrUpstreamUnavailable for
// configuration and transport failures. A length-capped answer is not an error;
// it comes back with Completion.Truncated set and the notice already appended.
type Completer interface {
	Complete(ctx context.Context, prompt string, history []Turn) (Completion, error)
	Name() string
}

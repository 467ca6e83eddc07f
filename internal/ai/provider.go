// README: Provider selection from configuration.
package ai

import (
	"context"
	"fmt"

	"voyage/internal/config"
)

// NewCompleter builds the provider named by cfg.Provider.
func NewCompleter(ctx context.Context, cfg config.AIConfig) (Completer, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiProvider(ctx, cfg.GeminiKey, GeminiOptions{
			Model:       cfg.GeminiModel,
			Temperature: float32(cfg.Temperature),
			MaxTokens:   int32(cfg.MaxTokens),
		})
	case config.ProviderOpenAI:
		return NewOpenAIProvider(cfg.OpenAIKey, OpenAIOptions{
			Model:       cfg.OpenAIModel,
			Temperature: float32(cfg.Temperature),
			MaxTokens:   cfg.MaxTokens,
		})
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.Provider)
	}
}

package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("JWT_SECRET", "secret")
}

func TestFromEnv_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := fromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, ProviderGemini, cfg.AI.Provider)
	assert.Equal(t, "gemini-2.0-flash", cfg.AI.GeminiModel)
	assert.Equal(t, 8192, cfg.AI.MaxTokens)
	assert.InDelta(t, 0.7, cfg.AI.Temperature, 1e-9)
	assert.Equal(t, 50, cfg.Conversation.HistoryLimit)
	assert.Equal(t, 100, cfg.AI.MonthlyQuota)
}

func TestFromEnv_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("VOYAGE_HTTP_ADDR", ":9090")
	t.Setenv("VOYAGE_AI_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("VOYAGE_AI_MAX_TOKENS", "1024")
	t.Setenv("VOYAGE_AI_TEMPERATURE", "not-a-number")

	cfg, err := fromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, ProviderOpenAI, cfg.AI.Provider)
	assert.Equal(t, 1024, cfg.AI.MaxTokens)
	assert.InDelta(t, 0.7, cfg.AI.Temperature, 1e-9, "invalid float keeps the default")
}

func TestFromEnv_MissingProviderKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("JWT_SECRET", "secret")

	_, err := fromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestFromEnv_UnknownProvider(t *testing.T) {
	setRequired(t)
	t.Setenv("VOYAGE_AI_PROVIDER", "llama")

	_, err := fromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llama")
}

func TestFromEnv_NeedsIdentityProvider(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("VOYAGE_FIREBASE_PROJECT_ID", "")

	_, err := fromEnv()
	require.Error(t, err)

	t.Setenv("VOYAGE_FIREBASE_PROJECT_ID", "voyage-prod")
	_, err = fromEnv()
	assert.NoError(t, err)
}

func TestSlogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for name, want := range cases {
		var cfg Config
		cfg.Log.Level = name
		assert.Equal(t, want, cfg.SlogLevel(), name)
	}
}

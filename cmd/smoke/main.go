// README: Smoke runner against a deployed API; checks DB, Redis, schema and the trip-plan HTTP flow.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func main() {
	cfg := loadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	runner := NewRunner(cfg)
	results := runner.RunAll(ctx)

	fmt.Println("\n== Summary ==")
	pass, fail, skipped := 0, 0, 0
	for _, r := range results {
		switch r.Status {
		case statusPass:
			pass++
		case statusFail:
			fail++
		case statusSkip:
			skipped++
		}
	}
	fmt.Printf("PASS=%d FAIL=%d SKIP=%d\n", pass, fail, skipped)

	if fail > 0 || (cfg.Strict && skipped > 0) {
		os.Exit(1)
	}
}

type Config struct {
	BaseURL     string
	DSN         string
	RedisAddr   string
	Token       string
	OtherToken  string
	JWTSecret   string
	WithAI      bool
	Strict      bool
	Timeout     time.Duration
	Concurrency int
	Duration    time.Duration
}

func loadConfig() Config {
	var cfg Config
	flag.StringVar(&cfg.BaseURL, "base-url", envOrDefault("VOYAGE_SMOKE_BASE_URL", "http://localhost:8080"), "API base URL")
	flag.StringVar(&cfg.DSN, "dsn", os.Getenv("VOYAGE_DB_DSN"), "Postgres DSN (optional)")
	flag.StringVar(&cfg.RedisAddr, "redis", os.Getenv("VOYAGE_REDIS_ADDR"), "Redis address (optional)")
	flag.StringVar(&cfg.Token, "token", os.Getenv("VOYAGE_SMOKE_TOKEN"), "bearer token for authenticated cases")
	flag.StringVar(&cfg.OtherToken, "other-token", os.Getenv("VOYAGE_SMOKE_OTHER_TOKEN"), "bearer token of a second user for ownership cases")
	flag.StringVar(&cfg.JWTSecret, "jwt-secret", os.Getenv("JWT_SECRET"), "sign a throwaway HS256 token when -token is empty")
	flag.BoolVar(&cfg.WithAI, "with-ai", envOrDefaultBool("VOYAGE_SMOKE_WITH_AI", false), "run cases that call the completion provider")
	flag.BoolVar(&cfg.Strict, "strict", envOrDefaultBool("VOYAGE_SMOKE_STRICT", false), "fail on skipped cases")
	flag.DurationVar(&cfg.Timeout, "timeout", envOrDefaultDuration("VOYAGE_SMOKE_TIMEOUT", 3*time.Minute), "total timeout")
	flag.IntVar(&cfg.Concurrency, "concurrency", envOrDefaultInt("VOYAGE_SMOKE_CONCURRENCY", 10), "concurrency for race and load cases")
	flag.DurationVar(&cfg.Duration, "duration", envOrDefaultDuration("VOYAGE_SMOKE_DURATION", 5*time.Second), "duration for the load case")
	flag.Parse()
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.JWTSecret != "" {
		if cfg.Token == "" {
			cfg.Token = signToken(cfg.JWTSecret)
		}
		if cfg.OtherToken == "" {
			cfg.OtherToken = signToken(cfg.JWTSecret)
		}
	}
	return cfg
}

// signToken mints a token for a fresh user so runs never see each other's plans.
func signToken(secret string) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": "smoke-" + uuid.NewString(),
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte(secret))
	if err != nil {
		return ""
	}
	return s
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(v)
		return v == "1" || v == "true" || v == "yes"
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var n int
		_, _ = fmt.Sscanf(v, "%d", &n)
		if n > 0 {
			return n
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// README: Smoke cases; environment, schema, auth, trip-plan CRUD, version races and light load.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"

	"voyage/migrations"
)

const (
	statusPass = "PASS"
	statusFail = "FAIL"
	statusSkip = "SKIP"
)

const smokePlan = "## Jour 1\nArrivée, check-in et dîner sur le port."

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client

	// planID is shared by the CRUD cases, which run in order.
	planID  string
	version int
}

type Result struct {
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 70 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))
	for _, tc := range tests {
		res := tc.Run(ctx, r)
		results = append(results, res)
		fmt.Printf("%-5s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency.Round(time.Millisecond))
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}
	return results
}

func (r *Runner) cases() []TestCase {
	return []TestCase{
		{Name: "Env: Postgres connect", Run: func(ctx context.Context, r *Runner) Result {
			if r.db == nil {
				return Result{Status: statusSkip, Note: "dsn not configured"}
			}
			ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			if err := r.db.Ping(ctx); err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			return Result{Status: statusPass}
		}},
		{Name: "Env: Redis connect", Run: func(ctx context.Context, r *Runner) Result {
			if r.redis == nil {
				return Result{Status: statusSkip, Note: "redis not configured"}
			}
			ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			if err := r.redis.Ping(ctx).Err(); err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			return Result{Status: statusPass}
		}},
		{Name: "Schema: tables exist", Run: checkTables},
		{Name: "HTTP: health", Run: func(ctx context.Context, r *Runner) Result {
			return r.expect(ctx, http.MethodGet, "/health", nil, "", nil, http.StatusOK)
		}},
		{Name: "HTTP: missing token rejected", Run: func(ctx context.Context, r *Runner) Result {
			return r.expect(ctx, http.MethodGet, "/api/trip-plans", nil, "", nil, http.StatusUnauthorized)
		}},
		{Name: "Plans: create", Run: authed(func(ctx context.Context, r *Runner) Result {
			var p planBody
			res := r.expect(ctx, http.MethodPost, "/api/trip-plans", map[string]any{
				"departure":     "Lyon",
				"destination":   "Marseille",
				"duration":      2,
				"budget":        300,
				"travelers":     1,
				"generatedPlan": smokePlan,
			}, r.cfg.Token, &p, http.StatusCreated)
			r.planID, r.version = p.ID, p.Version
			return res
		})},
		{Name: "Plans: get", Run: withPlan(func(ctx context.Context, r *Runner) Result {
			return r.expect(ctx, http.MethodGet, "/api/trip-plans/"+r.planID, nil, r.cfg.Token, nil, http.StatusOK)
		})},
		{Name: "Plans: non-owner gets 404", Run: withPlan(func(ctx context.Context, r *Runner) Result {
			if r.cfg.OtherToken == "" {
				return Result{Status: statusSkip, Note: "no second token"}
			}
			return r.expect(ctx, http.MethodGet, "/api/trip-plans/"+r.planID, nil, r.cfg.OtherToken, nil, http.StatusNotFound)
		})},
		{Name: "Plans: list", Run: authed(func(ctx context.Context, r *Runner) Result {
			return r.expect(ctx, http.MethodGet, "/api/trip-plans", nil, r.cfg.Token, nil, http.StatusOK)
		})},
		{Name: "Plans: malformed id is 404", Run: authed(func(ctx context.Context, r *Runner) Result {
			return r.expect(ctx, http.MethodGet, "/api/trip-plans/not-a-plan", nil, r.cfg.Token, nil, http.StatusNotFound)
		})},
		{Name: "Plans: concurrent versioned updates", Run: withPlan(versionRace)},
		{Name: "Plans: stale version is 409", Run: withPlan(func(ctx context.Context, r *Runner) Result {
			return r.expect(ctx, http.MethodPut, "/api/trip-plans/"+r.planID,
				map[string]any{"budget": 999, "version": r.version - 1}, r.cfg.Token, nil, http.StatusConflict)
		})},
		{Name: "Plans: refine (completion)", Run: withPlan(func(ctx context.Context, r *Runner) Result {
			if !r.cfg.WithAI {
				return Result{Status: statusSkip, Note: "with-ai=false"}
			}
			return r.expect(ctx, http.MethodPost, "/api/trip-plans/"+r.planID+"/refine",
				map[string]string{"message": "Ajoute une visite des calanques le jour 2"}, r.cfg.Token, nil, http.StatusOK)
		})},
		{Name: "Chat: history readable", Run: authed(func(ctx context.Context, r *Runner) Result {
			return r.expect(ctx, http.MethodGet, "/api/chatbot/history", nil, r.cfg.Token, nil, http.StatusOK)
		})},
		{Name: "Load: list plans", Run: authed(func(ctx context.Context, r *Runner) Result {
			return listLoad(ctx, r)
		})},
		{Name: "Plans: delete", Run: withPlan(func(ctx context.Context, r *Runner) Result {
			return r.expect(ctx, http.MethodDelete, "/api/trip-plans/"+r.planID, nil, r.cfg.Token, nil, http.StatusNoContent)
		})},
	}
}

type planBody struct {
	ID      string `json:"id"`
	Version int    `json:"version"`
}

func authed(fn func(ctx context.Context, r *Runner) Result) func(ctx context.Context, r *Runner) Result {
	return func(ctx context.Context, r *Runner) Result {
		if r.cfg.Token == "" {
			return Result{Status: statusSkip, Note: "no token (set -token or -jwt-secret)"}
		}
		return fn(ctx, r)
	}
}

func withPlan(fn func(ctx context.Context, r *Runner) Result) func(ctx context.Context, r *Runner) Result {
	return authed(func(ctx context.Context, r *Runner) Result {
		if r.planID == "" {
			return Result{Status: statusSkip, Note: "no plan created"}
		}
		return fn(ctx, r)
	})
}

// expect performs one request and passes when the status is one of want.
// When out is non-nil the response body is decoded into it.
func (r *Runner) expect(ctx context.Context, method, path string, body any, token string, out any, want ...int) Result {
	status, latency, err := r.do(ctx, method, path, body, token, out)
	if err != nil {
		return Result{Status: statusFail, Latency: latency, Note: err.Error()}
	}
	note := fmt.Sprintf("status=%d", status)
	if lo.Contains(want, status) {
		return Result{Status: statusPass, Latency: latency, Note: note}
	}
	return Result{Status: statusFail, Latency: latency, Note: note}
}

func (r *Runner) do(ctx context.Context, method, path string, body any, token string, out any) (int, time.Duration, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return 0, 0, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, r.cfg.BaseURL+path, &buf)
	if err != nil {
		return 0, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := r.httpc.Do(req)
	latency := time.Since(start)
	if err != nil {
		return 0, latency, err
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, latency, err
		}
		return resp.StatusCode, latency, nil
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, latency, nil
}

var createTable = regexp.MustCompile(`(?i)create\s+table\s+(?:if\s+not\s+exists\s+)?([a-zA-Z0-9_]+)`)

// checkTables compares the tables declared by the embedded migrations with the live schema.
func checkTables(ctx context.Context, r *Runner) Result {
	if r.db == nil {
		return Result{Status: statusSkip, Note: "dsn not configured"}
	}
	var tables []string
	err := fs.WalkDir(migrations.FS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		b, err := fs.ReadFile(migrations.FS, path)
		if err != nil {
			return err
		}
		for _, m := range createTable.FindAllStringSubmatch(string(b), -1) {
			tables = append(tables, m[1])
		}
		return nil
	})
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	for _, t := range tables {
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, "public."+t).Scan(&exists); err != nil {
			return Result{Status: statusFail, Note: err.Error()}
		}
		if !exists {
			return Result{Status: statusFail, Note: "missing table: " + t}
		}
	}
	return Result{Status: statusPass, Note: fmt.Sprintf("tables=%d", len(tables))}
}

// versionRace sends concurrent updates carrying the same version; exactly one may win.
func versionRace(ctx context.Context, r *Runner) Result {
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succ      int
		conflicts int
		winner    planBody
	)
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var p planBody
			status, _, err := r.do(ctx, http.MethodPut, "/api/trip-plans/"+r.planID, map[string]any{
				"budget":  300 + i + 1,
				"version": r.version,
			}, r.cfg.Token, &p)
			if err != nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			switch status {
			case http.StatusOK:
				succ++
				winner = p
			case http.StatusConflict:
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	note := fmt.Sprintf("success=%d conflict=%d", succ, conflicts)
	if succ != 1 {
		return Result{Status: statusFail, Note: note}
	}
	r.version = winner.Version
	return Result{Status: statusPass, Note: note}
}

func listLoad(ctx context.Context, r *Runner) Result {
	end := time.Now().Add(r.cfg.Duration)
	var (
		count    int64
		errCount int64
		mu       sync.Mutex
		wg       sync.WaitGroup
	)
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				status, _, err := r.do(ctx, http.MethodGet, "/api/trip-plans", nil, r.cfg.Token, nil)
				mu.Lock()
				if err != nil || status != http.StatusOK {
					errCount++
				} else {
					count++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: statusFail, Note: "no requests completed"}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: statusPass, Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount)}
}

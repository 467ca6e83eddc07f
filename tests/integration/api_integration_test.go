// README: End-to-end tests against a running voyage-api; skipped unless the API and a JWT secret are configured.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

type apiEnv struct {
	baseURL string
	secret  string
	client  *http.Client
}

func setupAPI(t *testing.T) apiEnv {
	t.Helper()
	loadDotEnv(t)

	baseURL := strings.TrimRight(os.Getenv("VOYAGE_API_BASE_URL"), "/")
	secret := os.Getenv("JWT_SECRET")
	if baseURL == "" || secret == "" {
		t.Skip("VOYAGE_API_BASE_URL and JWT_SECRET must be set for integration tests")
	}
	env := apiEnv{baseURL: baseURL, secret: secret, client: &http.Client{Timeout: 70 * time.Second}}
	waitForAPIReady(t, env.client, baseURL)
	return env
}

func TestChatQuotaGuard(t *testing.T) {
	t.Logf("[TEST LOG] starting TestChatQuotaGuard")
	env := setupAPI(t)

	dsn := firstNonEmpty(
		strings.TrimSpace(os.Getenv("VOYAGE_TEST_DSN")),
		strings.TrimSpace(os.Getenv("VOYAGE_DB_DSN")),
	)
	if dsn == "" {
		t.Skip("VOYAGE_TEST_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect %s: %v", redactedDSN(dsn), err)
	}
	t.Cleanup(db.Close)

	uid := fmt.Sprintf("it-%d", time.Now().UnixNano())
	period := time.Now().UTC().Format("2006-01")
	if _, err := db.Exec(ctx, `
		INSERT INTO ai_usage (owner_id, remaining, period)
		VALUES ($1, 1, $2)
		ON CONFLICT (owner_id) DO UPDATE SET remaining = EXCLUDED.remaining, period = EXCLUDED.period
	`, uid, period); err != nil {
		t.Fatalf("seed ai_usage: %v", err)
	}
	t.Cleanup(func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cleanupCancel()
		_, _ = db.Exec(cleanupCtx, "DELETE FROM ai_usage WHERE owner_id = $1", uid)
	})

	token := env.token(t, uid)
	status1, body1 := env.call(t, http.MethodPost, "/api/chatbot/chat", token, map[string]string{"message": "Dis bonjour en une phrase."})
	if status1 != http.StatusOK {
		t.Fatalf("first call: expected %d, got %d, body=%s", http.StatusOK, status1, body1)
	}
	var okResp struct {
		Reply string `json:"reply"`
	}
	if err := json.Unmarshal(body1, &okResp); err != nil || strings.TrimSpace(okResp.Reply) == "" {
		t.Fatalf("first call: expected non-empty reply, raw=%s", body1)
	}

	status2, body2 := env.call(t, http.MethodPost, "/api/chatbot/chat", token, map[string]string{"message": "Encore une fois."})
	if status2 != http.StatusTooManyRequests {
		t.Fatalf("second call: expected %d, got %d, body=%s", http.StatusTooManyRequests, status2, body2)
	}

	var remaining int
	if err := db.QueryRow(ctx, "SELECT remaining FROM ai_usage WHERE owner_id = $1", uid).Scan(&remaining); err != nil {
		t.Fatalf("query remaining: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected remaining=0 after 2 calls, got %d", remaining)
	}
}

func TestGenerateRefineDelete(t *testing.T) {
	t.Logf("[TEST LOG] starting TestGenerateRefineDelete")
	env := setupAPI(t)
	token := env.token(t, fmt.Sprintf("it-%d", time.Now().UnixNano()))

	status, body := env.call(t, http.MethodPost, "/api/trip-plans/generate", token, map[string]any{
		"departure":   "Paris",
		"destination": "Rome",
		"duration":    3,
		"budget":      1500,
		"travelers":   2,
		"interests":   "histoire, cuisine",
	})
	if status != http.StatusCreated {
		t.Skipf("generation did not produce a plan (status %d): %s", status, body)
	}
	var gen struct {
		Plan struct {
			ID      string `json:"id"`
			Version int    `json:"version"`
		} `json:"plan"`
	}
	if err := json.Unmarshal(body, &gen); err != nil || gen.Plan.ID == "" {
		t.Fatalf("unexpected generate body: %s", body)
	}
	t.Cleanup(func() { env.call(t, http.MethodDelete, "/api/trip-plans/"+gen.Plan.ID, token, nil) })

	status, body = env.call(t, http.MethodPost, "/api/trip-plans/"+gen.Plan.ID+"/refine", token,
		map[string]string{"message": "Réduis le budget à 1000 euros et régénère le plan complet."})
	if status != http.StatusOK {
		t.Fatalf("refine: expected 200, got %d, body=%s", status, body)
	}
	var ref struct {
		Reply       string `json:"reply"`
		PlanUpdated bool   `json:"planUpdated"`
		Plan        struct {
			Version int `json:"version"`
		} `json:"plan"`
	}
	if err := json.Unmarshal(body, &ref); err != nil {
		t.Fatalf("refine: unmarshal: %v", err)
	}
	if strings.Contains(ref.Reply, "|||UPDATES") {
		t.Errorf("update block leaked into reply: %q", ref.Reply)
	}
	if ref.PlanUpdated && ref.Plan.Version != gen.Plan.Version+1 {
		t.Errorf("expected version %d, got %d", gen.Plan.Version+1, ref.Plan.Version)
	}
	t.Logf("[TEST LOG] plan updated=%v", ref.PlanUpdated)

	status, _ = env.call(t, http.MethodGet, "/api/trip-plans/"+gen.Plan.ID, env.token(t, "someone-else"), nil)
	if status != http.StatusNotFound {
		t.Errorf("foreign get: expected 404, got %d", status)
	}
}

func (e apiEnv) token(t *testing.T, uid string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": uid,
		"exp":    time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(e.secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func (e apiEnv) call(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("marshal request: %v", err)
		}
	}
	req, err := http.NewRequest(method, e.baseURL+path, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := e.client.Do(req)
	if err != nil {
		t.Fatalf("call %s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp.StatusCode, out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func redactedDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at == -1 || scheme == -1 || at <= scheme+3 {
		return dsn
	}
	return dsn[:scheme+3] + "***:***" + dsn[at:]
}

func waitForAPIReady(t *testing.T, client *http.Client, baseURL string) {
	t.Helper()

	deadline := time.Now().Add(20 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL + "/health")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("api not ready: GET %s/health did not return 200 in time", baseURL)
}

// loadDotEnv merges the nearest .env walking up from the test directory.
// Variables already set win.
func loadDotEnv(t *testing.T) {
	t.Helper()

	dir, err := os.Getwd()
	if err != nil {
		return
	}
	for i := 0; i < 8; i++ {
		candidate := filepath.Join(dir, ".env")
		if _, err := os.Stat(candidate); err == nil {
			_ = godotenv.Load(candidate)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

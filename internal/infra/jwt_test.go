package infra

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func sign(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestJWTVerifier_ValidToken(t *testing.T) {
	v, err := NewJWTVerifier("s3cret")
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	raw := sign(t, "s3cret", jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": "owner-a",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	tok, err := v.VerifyIDToken(context.Background(), raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if tok.UID != "owner-a" {
		t.Errorf("expected owner-a, got %q", tok.UID)
	}
}

func TestJWTVerifier_FallsBackToIDClaim(t *testing.T) {
	v, _ := NewJWTVerifier("s3cret")
	raw := sign(t, "s3cret", jwt.SigningMethodHS256, jwt.MapClaims{"id": "owner-b"})
	tok, err := v.VerifyIDToken(context.Background(), raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if tok.UID != "owner-b" {
		t.Errorf("expected owner-b, got %q", tok.UID)
	}
}

func TestJWTVerifier_Rejects(t *testing.T) {
	v, _ := NewJWTVerifier("s3cret")
	cases := map[string]string{
		"wrong secret": sign(t, "other", jwt.SigningMethodHS256, jwt.MapClaims{"userId": "x"}),
		"expired":      sign(t, "s3cret", jwt.SigningMethodHS256, jwt.MapClaims{"userId": "x", "exp": time.Now().Add(-time.Hour).Unix()}),
		"wrong alg":    sign(t, "s3cret", jwt.SigningMethodHS512, jwt.MapClaims{"userId": "x"}),
		"no subject":   sign(t, "s3cret", jwt.SigningMethodHS256, jwt.MapClaims{"role": "admin"}),
		"garbage":      "not.a.token",
	}
	for name, raw := range cases {
		if _, err := v.VerifyIDToken(context.Background(), raw); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}

func TestNewJWTVerifier_EmptySecret(t *testing.T) {
	if _, err := NewJWTVerifier(""); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

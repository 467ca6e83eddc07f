// README: HS256 bearer-token verifier for deployments without Firebase.
package infra

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

type jwtVerifier struct {
	secret []byte
}

// NewJWTVerifier accepts tokens signed with secret. The owner id is read from
// the userId claim, then id, then sub.
func NewJWTVerifier(secret string) (TokenVerifier, error) {
	if secret == "" {
		return nil, errors.New("jwt: empty secret")
	}
	return &jwtVerifier{secret: []byte(secret)}, nil
}

func (v *jwtVerifier) VerifyIDToken(_ context.Context, raw string) (*Token, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	for _, key := range []string{"userId", "id", "sub"} {
		if uid, ok := claims[key].(string); ok && uid != "" {
			return &Token{UID: uid, Claims: claims}, nil
		}
	}
	return nil, fmt.Errorf("%w: no subject claim", ErrInvalidToken)
}

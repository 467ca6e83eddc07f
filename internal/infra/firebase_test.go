package infra

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIDTokens struct {
	tok *auth.Token
	err error
}

func (f fakeIDTokens) VerifyIDToken(context.Context, string) (*auth.Token, error) {
	return f.tok, f.err
}

func TestFirebaseVerifier_MapsToken(t *testing.T) {
	v := &firebaseVerifier{auth: fakeIDTokens{tok: &auth.Token{UID: "fb-1", Claims: map[string]interface{}{"role": "admin"}}}}

	tok, err := v.VerifyIDToken(context.Background(), "raw")
	require.NoError(t, err)
	assert.Equal(t, "fb-1", tok.UID)
	assert.Equal(t, "admin", tok.Claims["role"])
}

func TestFirebaseVerifier_Rejects(t *testing.T) {
	cases := map[string]fakeIDTokens{
		"sdk error": {err: errors.New("token expired")},
		"empty uid": {tok: &auth.Token{}},
	}
	for name, fake := range cases {
		t.Run(name, func(t *testing.T) {
			v := &firebaseVerifier{auth: fake}
			_, err := v.VerifyIDToken(context.Background(), "raw")
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestNewFirebaseVerifier_EmptyProject(t *testing.T) {
	_, err := NewFirebaseVerifier(context.Background(), "", "")
	assert.Error(t, err)
}

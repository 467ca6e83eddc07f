// README: Identity contract shared by the bearer verifiers, and the Firebase-backed one.
package infra

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// Token is a verified caller. UID becomes the owner id of every plan and
// conversation the caller touches.
type Token struct {
	UID    string
	Claims map[string]interface{}
}

type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, raw string) (*Token, error)
}

// idTokenVerifier is the part of *auth.Client used here.
type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

type firebaseVerifier struct {
	auth idTokenVerifier
}

// NewFirebaseVerifier checks Firebase ID tokens for projectID. An empty
// credentialsFile falls back to application-default credentials.
func NewFirebaseVerifier(ctx context.Context, projectID, credentialsFile string) (TokenVerifier, error) {
	if projectID == "" {
		return nil, errors.New("firebase: empty project id")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase: init app for %s: %w", projectID, err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: auth client: %w", err)
	}
	return &firebaseVerifier{auth: client}, nil
}

func (v *firebaseVerifier) VerifyIDToken(ctx context.Context, raw string) (*Token, error) {
	tok, err := v.auth.VerifyIDToken(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if tok.UID == "" {
		return nil, fmt.Errorf("%w: no uid", ErrInvalidToken)
	}
	return &Token{UID: tok.UID, Claims: tok.Claims}, nil
}

package auth

import (
	"context"
	"strings"

	"github.com/GriffinCanCode/iconfind/internal/broadcast"
)

// Gate supplies the Authorization header for authenticated writes.
// An empty header with a nil error means the session is unauthenticated.
type Gate interface {
	AuthHeader(ctx context.Context) (string, error)
}

// Dismisser is notified when a write is dropped for lack of credentials, so
// whatever modal started the write can close.
type Dismisser interface {
	Dismiss()
}

// DismissFunc adapts a function to Dismisser
type DismissFunc func()

// Dismiss implements Dismisser
func (f DismissFunc) Dismiss() {
	if f != nil {
		f()
	}
}

// Anonymous is a Gate that is never authenticated
var Anonymous Gate = anonymous{}

type anonymous struct{}

func (anonymous) AuthHeader(ctx context.Context) (string, error) {
	return "", ctx.Err()
}

// TokenGate holds the current bearer token for the session. Consumers can
// watch sign-in state through Tokens().
type TokenGate struct {
	token *broadcast.Subject[string]
}

// NewTokenGate creates a gate, signed in when token is non-empty
func NewTokenGate(token string) *TokenGate {
	return &TokenGate{token: broadcast.New(strings.TrimSpace(token))}
}

// SignIn stores token as the session credential
func (g *TokenGate) SignIn(token string) {
	g.token.Publish(strings.TrimSpace(token))
}

// SignOut clears the session credential
func (g *TokenGate) SignOut() {
	g.token.Publish("")
}

// Authenticated reports whether a token is held
func (g *TokenGate) Authenticated() bool {
	return g.token.Value() != ""
}

// Tokens returns the token stream. The empty string means signed out.
func (g *TokenGate) Tokens() broadcast.Stream[string] {
	return g.token
}

// AuthHeader implements Gate
func (g *TokenGate) AuthHeader(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	token := g.token.Value()
	if token == "" {
		return "", nil
	}
	return "Bearer " + token, nil
}

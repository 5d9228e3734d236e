package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

// ErrInvalidCredentials is returned when the API rejects a login
var ErrInvalidCredentials = errors.New("invalid credentials")

// Credentials is the login request body
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is the login response body
type TokenResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a token at {base}/auth/token and signs the
// gate in. The gate is left untouched on failure.
func (g *TokenGate) Login(ctx context.Context, client *resty.Client, base string, creds Credentials) error {
	var out TokenResponse
	resp, err := client.R().
		SetContext(ctx).
		SetBody(creds).
		SetResult(&out).
		Post(strings.TrimRight(base, "/") + "/auth/token")
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}

	switch {
	case resp.StatusCode() == http.StatusUnauthorized:
		return ErrInvalidCredentials
	case resp.IsError():
		return fmt.Errorf("login failed: %s", resp.Status())
	case out.Token == "":
		return fmt.Errorf("login response carried no token")
	}

	g.SignIn(out.Token)
	return nil
}

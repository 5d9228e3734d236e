package fakeapi

import (
	"net/http"
	"strings"

	"github.com/GriffinCanCode/iconfind/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AddUser registers a login. Passwords are stored as bcrypt hashes.
func (s *Server) AddUser(username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = hash
	return nil
}

// IssueToken mints a bearer token for username without a password check
func (s *Server) IssueToken(username string) string {
	token := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = username
	return token
}

func (s *Server) issueToken(c *gin.Context) {
	var creds auth.Credentials
	if err := decodeBody(c, &creds); err != nil {
		s.fail(c, http.StatusBadRequest, "invalid json")
		return
	}

	s.mu.Lock()
	hash, ok := s.users[creds.Username]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(hash, []byte(creds.Password)) != nil {
		s.fail(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	s.respond(c, http.StatusOK, auth.TokenResponse{Token: s.IssueToken(creds.Username)})
}

func (s *Server) requireAuth(c *gin.Context) {
	token, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")

	s.mu.Lock()
	_, valid := s.tokens[token]
	s.mu.Unlock()

	if !found || !valid {
		s.fail(c, http.StatusUnauthorized, "authentication required")
		c.Abort()
		return
	}
	c.Next()
}

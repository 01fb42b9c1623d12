// Package identity abstracts the external identity provider. The session
// gate never inspects tokens itself; verification is always delegated here.
package identity

import (
	"context"
	"strings"
	"sync"

	"github.com/DiogoMatos10/myfinance/internal/core"
)

// Verifier exchanges a session token for the authenticated user id.
// An invalid, expired or unknown token yields core.ErrUnauthorized.
type Verifier interface {
	Verify(ctx context.Context, token string) (userID string, err error)
}

// Static is a fixed token table for the memory backend and for tests.
type Static struct {
	mu     sync.RWMutex
	tokens map[string]string
}

func NewStatic() *Static {
	return &Static{tokens: map[string]string{}}
}

// Register binds a token to a user id.
func (s *Static) Register(token, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = userID
}

func (s *Static) Verify(_ context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", core.ErrUnauthorized
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.tokens[token]
	if !ok {
		return "", core.ErrUnauthorized
	}
	return userID, nil
}

// ParseStaticTokens builds a Static verifier from "token=userID" pairs
// separated by commas, the format DEV_SESSION_TOKENS uses.
func ParseStaticTokens(raw string) *Static {
	s := NewStatic()
	for _, pair := range strings.Split(raw, ",") {
		token, userID, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || token == "" || userID == "" {
			continue
		}
		s.Register(token, userID)
	}
	return s
}

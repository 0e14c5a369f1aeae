package middleware

import (
	"context"
	"sync"

	"github.com/arklim/calendar-iam/internal/core/domain"
)

type stubVerifier struct {
	claims *domain.TokenClaims
	err    error
}

func (s *stubVerifier) Verify(_ context.Context, token string) (*domain.TokenClaims, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.claims != nil {
		return s.claims, nil
	}
	return &domain.TokenClaims{UserID: "user-1", Username: token}, nil
}

type stubDenylist struct {
	mu      sync.Mutex
	revoked map[string]bool
	err     error
	checked int
}

func (s *stubDenylist) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revoked == nil {
		s.revoked = make(map[string]bool)
	}
	s.revoked[token] = true
	return nil
}

func (s *stubDenylist) IsRevoked(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checked++
	if s.err != nil {
		return false, s.err
	}
	return s.revoked[token], nil
}

package port

import (
	"context"

	"github.com/arklim/calendar-iam/internal/core/domain"
)

// TokenIssuer signs bearer tokens for an identity.
type TokenIssuer interface {
	Issue(ctx context.Context, userID, username string) (string, error)
}

// TokenVerifier validates signature and expiry of a bearer token.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*domain.TokenClaims, error)
}

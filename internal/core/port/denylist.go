package port

import (
	"context"
	"time"

	"github.com/arklim/calendar-iam/internal/core/domain"
)

// TokenDenylist records logged-out tokens and answers whether a token was revoked.
type TokenDenylist interface {
	Revoke(ctx context.Context, token string) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// TokenHasher maps a raw bearer string to its stored digest.
type TokenHasher interface {
	Hash(token string) domain.TokenHash
}

// BucketSelector maps instants onto a fixed ring of bucket positions.
type BucketSelector interface {
	CurrentBucket(now time.Time) int
	Size() int
	// ReuseInterval is the minimum time before a position is selected again.
	ReuseInterval() time.Duration
}

// DenylistMetrics captures telemetry hooks for revoke and lookup paths.
type DenylistMetrics interface {
	ObserveRevoke(outcome string)
	ObserveLookup(result string)
	IncFailOpen(reason domain.DegradationReason)
	ObserveStoreCall(op string, duration time.Duration, err error)
}

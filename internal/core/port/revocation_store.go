package port

import (
	"context"
	"time"

	"github.com/arklim/calendar-iam/internal/core/domain"
)

// RevocationStore is the shared key-value substrate holding denylist buckets.
// Every primitive is atomic for a single key; no cross-key guarantees are assumed.
type RevocationStore interface {
	AddMember(ctx context.Context, bucketKey string, hash domain.TokenHash) error
	IsMember(ctx context.Context, bucketKey string, hash domain.TokenHash) (bool, error)
	RemainingExpiry(ctx context.Context, bucketKey string) (domain.BucketExpiry, error)
	ArmExpiry(ctx context.Context, bucketKey string, ttl time.Duration) (bool, error)
}

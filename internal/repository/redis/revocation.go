package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/arklim/calendar-iam/internal/core/domain"
	"github.com/arklim/calendar-iam/internal/core/port"
)

// PTTL sentinels as surfaced by go-redis: the raw reply is kept as nanoseconds.
const (
	pttlKeyMissing = time.Duration(-2)
	pttlNoExpiry   = time.Duration(-1)
)

// RevocationRepository stores denylist buckets as Redis sets.
type RevocationRepository struct {
	client red.Cmdable
}

// NewRevocationRepository wires a Redis client into a revocation repository.
func NewRevocationRepository(client red.Cmdable) *RevocationRepository {
	return &RevocationRepository{client: client}
}

// AddMember inserts hash into the bucket set, creating the set when absent.
func (r *RevocationRepository) AddMember(ctx context.Context, bucketKey string, hash domain.TokenHash) error {
	if err := validate(bucketKey, hash); err != nil {
		return err
	}

	if err := r.client.SAdd(ctx, bucketKey, hash.String()).Err(); err != nil {
		return fmt.Errorf("redis sadd %s: %w", bucketKey, err)
	}
	return nil
}

// IsMember reports whether hash belongs to the bucket set.
func (r *RevocationRepository) IsMember(ctx context.Context, bucketKey string, hash domain.TokenHash) (bool, error) {
	if err := validate(bucketKey, hash); err != nil {
		return false, err
	}

	found, err := r.client.SIsMember(ctx, bucketKey, hash.String()).Result()
	if err != nil {
		return false, fmt.Errorf("redis sismember %s: %w", bucketKey, err)
	}
	return found, nil
}

// RemainingExpiry maps PTTL onto the three bucket expiry states.
func (r *RevocationRepository) RemainingExpiry(ctx context.Context, bucketKey string) (domain.BucketExpiry, error) {
	if strings.TrimSpace(bucketKey) == "" {
		return domain.BucketExpiry{}, errors.New("bucket key must not be empty")
	}

	ttl, err := r.client.PTTL(ctx, bucketKey).Result()
	if err != nil {
		return domain.BucketExpiry{}, fmt.Errorf("redis pttl %s: %w", bucketKey, err)
	}

	switch {
	case ttl == pttlKeyMissing:
		return domain.Absent(), nil
	case ttl == pttlNoExpiry:
		return domain.NotArmed(), nil
	case ttl < 0:
		return domain.BucketExpiry{}, fmt.Errorf("redis pttl %s: unexpected reply %d", bucketKey, int64(ttl))
	default:
		return domain.ExpiresIn(ttl), nil
	}
}

// ArmExpiry sets the bucket's countdown with PEXPIRE. go-redis converts the
// duration to whole milliseconds, so no unit conversion happens here.
func (r *RevocationRepository) ArmExpiry(ctx context.Context, bucketKey string, ttl time.Duration) (bool, error) {
	if strings.TrimSpace(bucketKey) == "" {
		return false, errors.New("bucket key must not be empty")
	}
	if ttl < time.Millisecond {
		return false, errors.New("ttl must be at least one millisecond")
	}

	armed, err := r.client.PExpire(ctx, bucketKey, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis pexpire %s: %w", bucketKey, err)
	}
	return armed, nil
}

func validate(bucketKey string, hash domain.TokenHash) error {
	if strings.TrimSpace(bucketKey) == "" {
		return errors.New("bucket key must not be empty")
	}
	if hash == "" {
		return errors.New("token hash must not be empty")
	}
	return nil
}

var _ port.RevocationStore = (*RevocationRepository)(nil)

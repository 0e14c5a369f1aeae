package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/arklim/calendar-iam/internal/core/domain"
	"github.com/arklim/calendar-iam/internal/core/port"
)

type bucket struct {
	members   map[domain.TokenHash]struct{}
	expiresAt time.Time
}

// RevocationStore is an in-process stand-in for the shared Redis store. It
// mirrors Redis set and expiry semantics and is only meaningful for a single
// instance.
type RevocationStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

// NewRevocationStore constructs an empty store.
func NewRevocationStore() *RevocationStore {
	return &RevocationStore{
		buckets: make(map[string]*bucket),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the internal clock for deterministic testing.
func (s *RevocationStore) WithClock(clock func() time.Time) *RevocationStore {
	if clock != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.now = clock
	}
	return s
}

// AddMember inserts hash into the bucket, creating it when absent.
func (s *RevocationStore) AddMember(ctx context.Context, bucketKey string, hash domain.TokenHash) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(bucketKey) == "" || hash == "" {
		return errors.New("bucket key and hash are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.liveLocked(bucketKey)
	if b == nil {
		b = &bucket{members: make(map[domain.TokenHash]struct{})}
		s.buckets[bucketKey] = b
	}
	b.members[hash] = struct{}{}
	return nil
}

// IsMember reports whether hash is in a live bucket.
func (s *RevocationStore) IsMember(ctx context.Context, bucketKey string, hash domain.TokenHash) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.liveLocked(bucketKey)
	if b == nil {
		return false, nil
	}
	_, ok := b.members[hash]
	return ok, nil
}

// RemainingExpiry reports the bucket's countdown state.
func (s *RevocationStore) RemainingExpiry(ctx context.Context, bucketKey string) (domain.BucketExpiry, error) {
	if err := ctx.Err(); err != nil {
		return domain.BucketExpiry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.liveLocked(bucketKey)
	switch {
	case b == nil:
		return domain.Absent(), nil
	case b.expiresAt.IsZero():
		return domain.NotArmed(), nil
	default:
		return domain.ExpiresIn(b.expiresAt.Sub(s.now())), nil
	}
}

// ArmExpiry sets or overwrites the bucket's countdown. It reports false when the bucket does not exist.
func (s *RevocationStore) ArmExpiry(ctx context.Context, bucketKey string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if ttl <= 0 {
		return false, errors.New("ttl must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.liveLocked(bucketKey)
	if b == nil {
		return false, nil
	}
	b.expiresAt = s.now().Add(ttl)
	return true, nil
}

// Len returns the number of live buckets.
func (s *RevocationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for key := range s.buckets {
		if s.liveLocked(key) != nil {
			count++
		}
	}
	return count
}

// liveLocked returns the bucket when present and unexpired, dropping it otherwise.
func (s *RevocationStore) liveLocked(bucketKey string) *bucket {
	b, ok := s.buckets[bucketKey]
	if !ok {
		return nil
	}
	if !b.expiresAt.IsZero() && !b.expiresAt.After(s.now()) {
		delete(s.buckets, bucketKey)
		return nil
	}
	return b
}

var _ port.RevocationStore = (*RevocationStore)(nil)

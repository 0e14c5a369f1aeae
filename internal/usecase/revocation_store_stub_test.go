package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/arklim/calendar-iam/internal/core/domain"
	"github.com/arklim/calendar-iam/internal/core/port"
)

// countingStore wraps a real store, counts primitive calls and injects failures.
type countingStore struct {
	inner port.RevocationStore

	mu    sync.Mutex
	calls map[string]int
	fail  map[string]error
	block bool
}

func newCountingStore(inner port.RevocationStore) *countingStore {
	return &countingStore{
		inner: inner,
		calls: make(map[string]int),
		fail:  make(map[string]error),
	}
}

func (s *countingStore) record(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
	return s.fail[op]
}

func (s *countingStore) count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *countingStore) failOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[op] = err
}

func (s *countingStore) wait(ctx context.Context) error {
	if !s.block {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *countingStore) AddMember(ctx context.Context, key string, hash domain.TokenHash) error {
	if err := s.record(opAddMember); err != nil {
		return err
	}
	if err := s.wait(ctx); err != nil {
		return err
	}
	return s.inner.AddMember(ctx, key, hash)
}

func (s *countingStore) IsMember(ctx context.Context, key string, hash domain.TokenHash) (bool, error) {
	if err := s.record(opIsMember); err != nil {
		return false, err
	}
	if err := s.wait(ctx); err != nil {
		return false, err
	}
	return s.inner.IsMember(ctx, key, hash)
}

func (s *countingStore) RemainingExpiry(ctx context.Context, key string) (domain.BucketExpiry, error) {
	if err := s.record(opRemainingExpiry); err != nil {
		return domain.BucketExpiry{}, err
	}
	return s.inner.RemainingExpiry(ctx, key)
}

func (s *countingStore) ArmExpiry(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := s.record(opArmExpiry); err != nil {
		return false, err
	}
	return s.inner.ArmExpiry(ctx, key, ttl)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeEventPublisher struct {
	mu     sync.Mutex
	events []domain.TokenRevokedEvent
	err    error
}

func (p *fakeEventPublisher) PublishTokenRevoked(_ context.Context, event domain.TokenRevokedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

type fakeDenylistMetrics struct {
	mu       sync.Mutex
	revokes  map[string]int
	lookups  map[string]int
	failOpen map[domain.DegradationReason]int
	storeErr int
}

func newFakeDenylistMetrics() *fakeDenylistMetrics {
	return &fakeDenylistMetrics{
		revokes:  make(map[string]int),
		lookups:  make(map[string]int),
		failOpen: make(map[domain.DegradationReason]int),
	}
}

func (m *fakeDenylistMetrics) ObserveRevoke(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revokes[outcome]++
}

func (m *fakeDenylistMetrics) ObserveLookup(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups[result]++
}

func (m *fakeDenylistMetrics) IncFailOpen(reason domain.DegradationReason) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOpen[reason]++
}

func (m *fakeDenylistMetrics) ObserveStoreCall(_ string, _ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.storeErr++
	}
}

// blockingPublisher never delivers and only returns once its context is done.
type blockingPublisher struct {
	deadline chan bool
}

func (p *blockingPublisher) PublishTokenRevoked(ctx context.Context, _ domain.TokenRevokedEvent) error {
	_, ok := ctx.Deadline()
	p.deadline <- ok
	<-ctx.Done()
	return ctx.Err()
}

// vanishingStore reports the bucket as gone on the first expiry query, as if
// it expired right after the insert.
type vanishingStore struct {
	*countingStore
	once sync.Once
}

func (s *vanishingStore) RemainingExpiry(ctx context.Context, key string) (domain.BucketExpiry, error) {
	vanished := false
	s.once.Do(func() { vanished = true })
	if vanished {
		if err := s.record(opRemainingExpiry); err != nil {
			return domain.BucketExpiry{}, err
		}
		return domain.Absent(), nil
	}
	return s.countingStore.RemainingExpiry(ctx, key)
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/arklim/calendar-iam/internal/core/domain"
	"github.com/arklim/calendar-iam/internal/core/port"
	"github.com/arklim/calendar-iam/internal/infra/logger"
)

const (
	opAddMember       = "sadd"
	opIsMember        = "sismember"
	opRemainingExpiry = "pttl"
	opArmExpiry       = "pexpire"

	RevokeOutcomeStored     = "stored"
	RevokeOutcomeMalformed  = "malformed"
	RevokeOutcomeStoreError = "store_error"

	LookupResultRevoked  = "revoked"
	LookupResultClear    = "clear"
	LookupResultDegraded = "degraded"

	defaultStoreTimeout = 250 * time.Millisecond
	tracerName          = "github.com/arklim/calendar-iam/internal/usecase"
)

// RevocationCacheOptions carries the immutable configuration of the denylist.
type RevocationCacheOptions struct {
	KeyPrefix    string
	Window       time.Duration
	StoreTimeout time.Duration
	Policy       domain.DegradationPolicy
}

// RevocationCache records logged-out tokens in a ring of expiring buckets.
//
// Revocation is advisory and layered on top of token expiry: a Revoke racing a
// concurrent IsRevoked for the same token is visible only once the store has
// committed the write, and store outages make IsRevoked fail open under the
// lenient policy.
type RevocationCache struct {
	store     port.RevocationStore
	hasher    port.TokenHasher
	selector  port.BucketSelector
	metrics   port.DenylistMetrics
	publisher port.EventPublisher
	logger    *zap.Logger
	tracer    trace.Tracer

	prefix  string
	window  time.Duration
	timeout time.Duration
	policy  domain.DegradationPolicy
	now     func() time.Time
}

// NewRevocationCache validates the ring configuration and wires the collaborators.
func NewRevocationCache(store port.RevocationStore, hasher port.TokenHasher, selector port.BucketSelector, opts RevocationCacheOptions) (*RevocationCache, error) {
	if store == nil || hasher == nil || selector == nil {
		return nil, fmt.Errorf("%w: store, hasher and selector are required", domain.ErrInvalidConfiguration)
	}
	if selector.Size() < 1 {
		return nil, fmt.Errorf("%w: bucket ring must not be empty", domain.ErrInvalidConfiguration)
	}
	if opts.Window <= 0 {
		return nil, fmt.Errorf("%w: window must be positive", domain.ErrInvalidConfiguration)
	}
	if reuse := selector.ReuseInterval(); opts.Window > reuse {
		return nil, fmt.Errorf("%w: window %s exceeds bucket reuse interval %s", domain.ErrInvalidConfiguration, opts.Window, reuse)
	}

	prefix := strings.TrimSpace(opts.KeyPrefix)
	if prefix == "" {
		prefix = "blacklist"
	}
	timeout := opts.StoreTimeout
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}

	return &RevocationCache{
		store:    store,
		hasher:   hasher,
		selector: selector,
		logger:   zap.NewNop(),
		tracer:   otel.Tracer(tracerName),
		prefix:   prefix,
		window:   opts.Window,
		timeout:  timeout,
		policy:   opts.Policy,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// WithLogger attaches a structured logger.
func (c *RevocationCache) WithLogger(log *zap.Logger) *RevocationCache {
	if log != nil {
		c.logger = log
	}
	return c
}

// WithMetrics attaches telemetry hooks.
func (c *RevocationCache) WithMetrics(metrics port.DenylistMetrics) *RevocationCache {
	c.metrics = metrics
	return c
}

// WithPublisher attaches the revocation event publisher.
func (c *RevocationCache) WithPublisher(publisher port.EventPublisher) *RevocationCache {
	c.publisher = publisher
	return c
}

// WithClock overrides the bucket-selection clock for deterministic testing.
func (c *RevocationCache) WithClock(clock func() time.Time) *RevocationCache {
	if clock != nil {
		c.now = clock
	}
	return c
}

// Revoke adds the token to the current bucket and arms the bucket's retention
// window on the first insertion of its epoch. Only a blank token produces an
// error; store failures are logged and counted because the token still expires
// on its own.
func (c *RevocationCache) Revoke(ctx context.Context, token string) error {
	token, err := domain.BearerToken(token)
	if err != nil {
		c.observeRevoke(RevokeOutcomeMalformed)
		return err
	}

	ctx, span := c.tracer.Start(ctx, "denylist.Revoke")
	defer span.End()

	hash := c.hasher.Hash(token)
	revokedAt := c.now()
	position := c.selector.CurrentBucket(revokedAt)
	key := domain.BucketKey(c.prefix, position)
	span.SetAttributes(attribute.Int("denylist.bucket", position))

	if err := c.addMember(ctx, key, hash); err != nil {
		c.absorbRevokeFailure(ctx, span, key, hash, err)
		return nil
	}

	armed, err := c.armOnce(ctx, key, hash)
	if err != nil {
		// The member is stored; the next revocation into this bucket arms it.
		c.absorbRevokeFailure(ctx, span, key, hash, err)
		return nil
	}
	span.SetAttributes(attribute.Bool("denylist.armed", armed))

	c.observeRevoke(RevokeOutcomeStored)
	c.publish(ctx, domain.TokenRevokedEvent{
		EventID:   uuid.NewString(),
		TokenHash: hash.String(),
		Bucket:    position,
		BucketKey: key,
		Armed:     armed,
		RevokedAt: revokedAt,
	})
	return nil
}

// IsRevoked reports whether the token sits in any bucket of the ring. A token
// that is not revoked costs exactly one membership query per bucket. When the
// store cannot answer, the degradation policy decides: lenient returns false
// with a fail-open signal, strict returns ErrStoreUnavailable.
func (c *RevocationCache) IsRevoked(ctx context.Context, token string) (bool, error) {
	token, err := domain.BearerToken(token)
	if err != nil {
		return false, err
	}

	ctx, span := c.tracer.Start(ctx, "denylist.IsRevoked")
	defer span.End()

	hash := c.hasher.Hash(token)
	for position := 0; position < c.selector.Size(); position++ {
		key := domain.BucketKey(c.prefix, position)
		found, err := c.isMember(ctx, key, hash)
		if err != nil {
			return c.degrade(ctx, span, key, hash, err)
		}
		if found {
			span.SetAttributes(attribute.Int("denylist.bucket", position), attribute.Bool("denylist.revoked", true))
			c.observeLookup(LookupResultRevoked)
			return true, nil
		}
	}

	span.SetAttributes(attribute.Bool("denylist.revoked", false))
	c.observeLookup(LookupResultClear)
	return false, nil
}

// armOnce arms the retention window only when the bucket has no countdown yet.
func (c *RevocationCache) armOnce(ctx context.Context, key string, hash domain.TokenHash) (bool, error) {
	expiry, err := c.remainingExpiry(ctx, key)
	if err != nil {
		return false, err
	}

	if !expiry.NeedsArming() {
		return false, nil
	}
	if expiry.Kind == domain.ExpiryAbsent {
		// The bucket expired between insert and query, taking the member with it.
		if err := c.addMember(ctx, key, hash); err != nil {
			return false, err
		}
	}
	return c.armExpiry(ctx, key)
}

func (c *RevocationCache) addMember(ctx context.Context, key string, hash domain.TokenHash) error {
	return c.call(ctx, opAddMember, key, func(callCtx context.Context) error {
		return c.store.AddMember(callCtx, key, hash)
	})
}

func (c *RevocationCache) isMember(ctx context.Context, key string, hash domain.TokenHash) (bool, error) {
	var found bool
	err := c.call(ctx, opIsMember, key, func(callCtx context.Context) error {
		var err error
		found, err = c.store.IsMember(callCtx, key, hash)
		return err
	})
	return found, err
}

func (c *RevocationCache) remainingExpiry(ctx context.Context, key string) (domain.BucketExpiry, error) {
	var expiry domain.BucketExpiry
	err := c.call(ctx, opRemainingExpiry, key, func(callCtx context.Context) error {
		var err error
		expiry, err = c.store.RemainingExpiry(callCtx, key)
		return err
	})
	return expiry, err
}

func (c *RevocationCache) armExpiry(ctx context.Context, key string) (bool, error) {
	var armed bool
	err := c.call(ctx, opArmExpiry, key, func(callCtx context.Context) error {
		var err error
		armed, err = c.store.ArmExpiry(callCtx, key, c.window)
		return err
	})
	return armed, err
}

// call runs one store primitive under the per-call timeout.
func (c *RevocationCache) call(ctx context.Context, op, key string, fn func(context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	err := fn(callCtx)
	if c.metrics != nil {
		c.metrics.ObserveStoreCall(op, time.Since(start), err)
	}
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", domain.ErrStoreUnavailable, op, key, err)
	}
	return nil
}

func (c *RevocationCache) degrade(ctx context.Context, span trace.Span, key string, hash domain.TokenHash, err error) (bool, error) {
	reason := degradationReason(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, "revocation store unavailable")

	if !c.policy.AllowsFallback(reason) {
		c.observeLookup(LookupResultDegraded)
		c.logger.Error("denylist lookup failed",
			zap.String("request_id", logger.RequestIDFromContext(ctx)),
			zap.String("bucket", key),
			zap.String("token_hash", logger.MaskString(hash.String())),
			zap.String("reason", string(reason)),
			zap.Error(err),
		)
		return false, err
	}

	if c.metrics != nil {
		c.metrics.IncFailOpen(reason)
	}
	c.observeLookup(LookupResultDegraded)
	c.logger.Warn("denylist lookup failed open",
		zap.String("request_id", logger.RequestIDFromContext(ctx)),
		zap.String("bucket", key),
		zap.String("token_hash", logger.MaskString(hash.String())),
		zap.String("reason", string(reason)),
		zap.Error(err),
	)
	return false, nil
}

func (c *RevocationCache) absorbRevokeFailure(ctx context.Context, span trace.Span, key string, hash domain.TokenHash, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, "revocation not persisted")
	c.observeRevoke(RevokeOutcomeStoreError)
	c.logger.Warn("token revocation not persisted",
		zap.String("request_id", logger.RequestIDFromContext(ctx)),
		zap.String("bucket", key),
		zap.String("token_hash", logger.MaskString(hash.String())),
		zap.String("reason", string(degradationReason(err))),
		zap.Error(err),
	)
}

func (c *RevocationCache) publish(ctx context.Context, event domain.TokenRevokedEvent) {
	if c.publisher == nil {
		return
	}
	publishCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.publisher.PublishTokenRevoked(publishCtx, event); err != nil {
		c.logger.Warn("failed to publish token revoked event",
			zap.String("event_id", event.EventID),
			zap.String("bucket", event.BucketKey),
			zap.Error(err),
		)
	}
}

func (c *RevocationCache) observeRevoke(outcome string) {
	if c.metrics != nil {
		c.metrics.ObserveRevoke(outcome)
	}
}

func (c *RevocationCache) observeLookup(result string) {
	if c.metrics != nil {
		c.metrics.ObserveLookup(result)
	}
}

func degradationReason(err error) domain.DegradationReason {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.DegradationReasonStoreTimeout
	}
	return domain.DegradationReasonStoreUnavailable
}

var (
	_ port.TokenDenylist  = (*RevocationCache)(nil)
	_ port.BucketSelector = domain.WeekdaySelector{}
	_ port.BucketSelector = domain.EpochSelector{}
)

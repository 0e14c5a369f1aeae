package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/calendar-iam/internal/core/domain"
	"github.com/arklim/calendar-iam/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for development environments.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

// PublishTokenRevoked logs token.revoked events.
func (p *StubPublisher) PublishTokenRevoked(_ context.Context, event domain.TokenRevokedEvent) error {
	at := event.RevokedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", EventTypeTokenRevoked),
		zap.String("event_id", event.EventID),
		zap.Time("timestamp", at.UTC()),
		zap.String("bucket_key", event.BucketKey),
		zap.Bool("armed", event.Armed),
	)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)

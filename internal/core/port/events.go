package port

import (
	"context"

	"github.com/arklim/calendar-iam/internal/core/domain"
)

// EventPublisher abstracts event emission for revocation auditing.
type EventPublisher interface {
	PublishTokenRevoked(ctx context.Context, event domain.TokenRevokedEvent) error
}

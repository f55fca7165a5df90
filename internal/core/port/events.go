package port

import (
	"context"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
)

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	PublishAccountRegistered(ctx context.Context, event domain.AccountRegisteredEvent) error
	PublishAccountActivated(ctx context.Context, event domain.AccountActivatedEvent) error
	PublishAccountDeactivated(ctx context.Context, event domain.AccountDeactivatedEvent) error
	PublishPasswordResetRequested(ctx context.Context, event domain.PasswordResetRequestedEvent) error
	PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error
	PublishMailRequested(ctx context.Context, event domain.MailRequestedEvent) error
}

package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
	"github.com/arklim/social-platform-accounts/internal/core/port"
	"github.com/arklim/social-platform-accounts/internal/infra/logger"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for
// development environments without a running broker.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(log *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: log}
}

func (p *StubPublisher) logEvent(eventType string, accountID int64, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.Int64("account_id", accountID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishAccountRegistered logs accounts.registered events.
func (p *StubPublisher) PublishAccountRegistered(_ context.Context, event domain.AccountRegisteredEvent) error {
	payload := map[string]any{
		"username":      event.Username,
		"email":         logger.MaskEmail(event.Email),
		"registered_at": event.RegisteredAt,
	}
	p.logEvent("accounts.registered", event.AccountID, event.RegisteredAt, payload)
	return nil
}

// PublishAccountActivated logs accounts.activated events.
func (p *StubPublisher) PublishAccountActivated(_ context.Context, event domain.AccountActivatedEvent) error {
	payload := map[string]any{
		"activated_at": event.ActivatedAt,
		"source":       event.Source,
	}
	p.logEvent("accounts.activated", event.AccountID, event.ActivatedAt, payload)
	return nil
}

// PublishAccountDeactivated logs accounts.deactivated events.
func (p *StubPublisher) PublishAccountDeactivated(_ context.Context, event domain.AccountDeactivatedEvent) error {
	payload := map[string]any{
		"deactivated_at": event.DeactivatedAt,
	}
	p.logEvent("accounts.deactivated", event.AccountID, event.DeactivatedAt, payload)
	return nil
}

// PublishPasswordResetRequested logs accounts.password.reset_requested events.
func (p *StubPublisher) PublishPasswordResetRequested(_ context.Context, event domain.PasswordResetRequestedEvent) error {
	payload := map[string]any{
		"requested_at":       event.RequestedAt,
		"masked_destination": event.MaskedDestination,
	}
	p.logEvent("accounts.password.reset_requested", event.AccountID, event.RequestedAt, payload)
	return nil
}

// PublishPasswordChanged logs accounts.password.changed events.
func (p *StubPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	payload := map[string]any{
		"changed_at": event.ChangedAt,
		"source":     event.Source,
	}
	p.logEvent("accounts.password.changed", event.AccountID, event.ChangedAt, payload)
	return nil
}

// PublishMailRequested logs accounts.mail.requested events with the
// recipient masked.
func (p *StubPublisher) PublishMailRequested(_ context.Context, event domain.MailRequestedEvent) error {
	payload := map[string]any{
		"recipient": logger.MaskEmail(event.Recipient),
		"kind":      event.Kind,
		"url":       event.URL,
	}
	p.logEvent("accounts.mail.requested", event.AccountID, event.RequestedAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)

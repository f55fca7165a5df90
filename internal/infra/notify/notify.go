package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
	"github.com/arklim/social-platform-accounts/internal/core/port"
	"github.com/arklim/social-platform-accounts/internal/infra/logger"
)

// EventNotifier hands mail requests to the event bus. A downstream mailer
// consumes accounts.mail.requested and performs rendering and delivery.
type EventNotifier struct {
	publisher port.EventPublisher
}

// NewEventNotifier constructs a bus-backed notifier.
func NewEventNotifier(publisher port.EventPublisher) *EventNotifier {
	return &EventNotifier{publisher: publisher}
}

// Send publishes a mail request for the account.
func (n *EventNotifier) Send(ctx context.Context, account domain.Account, kind port.MailKind, url string) error {
	event := domain.MailRequestedEvent{
		EventID:     uuid.NewString(),
		AccountID:   account.ID,
		Recipient:   account.Email,
		Kind:        string(kind),
		URL:         url,
		RequestedAt: time.Now().UTC(),
	}

	if err := n.publisher.PublishMailRequested(ctx, event); err != nil {
		return fmt.Errorf("publish mail request: %w", err)
	}

	return nil
}

// LogNotifier writes mail requests to the log instead of delivering them.
// Useful in development where no mailer consumes the bus.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier constructs a log-only notifier.
func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: log}
}

// Send logs the mail request with the recipient masked.
func (n *LogNotifier) Send(_ context.Context, account domain.Account, kind port.MailKind, url string) error {
	n.logger.Info("Mail requested",
		zap.Int64("account_id", account.ID),
		zap.String("recipient", logger.MaskEmail(account.Email)),
		zap.String("kind", string(kind)),
		zap.String("url", url),
	)
	return nil
}

var (
	_ port.Notifier = (*EventNotifier)(nil)
	_ port.Notifier = (*LogNotifier)(nil)
)

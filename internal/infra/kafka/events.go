package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
	"github.com/arklim/social-platform-accounts/internal/core/port"
	"github.com/arklim/social-platform-accounts/internal/infra/config"
	"github.com/arklim/social-platform-accounts/internal/infra/logger"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, log *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: log}
}

type eventEnvelope struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	AccountID string            `json:"account_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Payload   any               `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType string, accountID int64, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		AccountID: strconv.FormatInt(accountID, 10),
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata: map[string]string{
			"service":     p.appCfg.Name,
			"environment": p.appCfg.Env,
		},
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishAccountRegistered publishes accounts.registered events.
func (p *EventPublisher) PublishAccountRegistered(ctx context.Context, event domain.AccountRegisteredEvent) error {
	payload := struct {
		AccountID    int64          `json:"account_id"`
		Username     string         `json:"username"`
		Email        string         `json:"email"`
		RegisteredAt time.Time      `json:"registered_at"`
		Metadata     map[string]any `json:"metadata,omitempty"`
	}{
		AccountID:    event.AccountID,
		Username:     event.Username,
		Email:        logger.MaskEmail(event.Email),
		RegisteredAt: event.RegisteredAt.UTC(),
		Metadata:     event.Metadata,
	}

	return p.publish(ctx, event.EventID, "accounts.registered", event.AccountID, event.RegisteredAt, payload)
}

// PublishAccountActivated publishes accounts.activated events.
func (p *EventPublisher) PublishAccountActivated(ctx context.Context, event domain.AccountActivatedEvent) error {
	payload := struct {
		AccountID   int64          `json:"account_id"`
		ActivatedAt time.Time      `json:"activated_at"`
		Source      string         `json:"source"`
		Metadata    map[string]any `json:"metadata,omitempty"`
	}{
		AccountID:   event.AccountID,
		ActivatedAt: event.ActivatedAt.UTC(),
		Source:      event.Source,
		Metadata:    event.Metadata,
	}

	return p.publish(ctx, event.EventID, "accounts.activated", event.AccountID, event.ActivatedAt, payload)
}

// PublishAccountDeactivated publishes accounts.deactivated events.
func (p *EventPublisher) PublishAccountDeactivated(ctx context.Context, event domain.AccountDeactivatedEvent) error {
	payload := struct {
		AccountID     int64          `json:"account_id"`
		DeactivatedAt time.Time      `json:"deactivated_at"`
		Metadata      map[string]any `json:"metadata,omitempty"`
	}{
		AccountID:     event.AccountID,
		DeactivatedAt: event.DeactivatedAt.UTC(),
		Metadata:      event.Metadata,
	}

	return p.publish(ctx, event.EventID, "accounts.deactivated", event.AccountID, event.DeactivatedAt, payload)
}

// PublishPasswordResetRequested publishes accounts.password.reset_requested events.
func (p *EventPublisher) PublishPasswordResetRequested(ctx context.Context, event domain.PasswordResetRequestedEvent) error {
	payload := struct {
		AccountID         int64          `json:"account_id"`
		RequestedAt       time.Time      `json:"requested_at"`
		MaskedDestination string         `json:"masked_destination"`
		Metadata          map[string]any `json:"metadata,omitempty"`
	}{
		AccountID:         event.AccountID,
		RequestedAt:       event.RequestedAt.UTC(),
		MaskedDestination: event.MaskedDestination,
		Metadata:          event.Metadata,
	}

	return p.publish(ctx, event.EventID, "accounts.password.reset_requested", event.AccountID, event.RequestedAt, payload)
}

// PublishPasswordChanged publishes accounts.password.changed events.
func (p *EventPublisher) PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error {
	payload := struct {
		AccountID int64          `json:"account_id"`
		ChangedAt time.Time      `json:"changed_at"`
		Source    string         `json:"source"`
		Metadata  map[string]any `json:"metadata,omitempty"`
	}{
		AccountID: event.AccountID,
		ChangedAt: event.ChangedAt.UTC(),
		Source:    event.Source,
		Metadata:  event.Metadata,
	}

	return p.publish(ctx, event.EventID, "accounts.password.changed", event.AccountID, event.ChangedAt, payload)
}

// PublishMailRequested publishes accounts.mail.requested events. The raw
// recipient address is included because the downstream mailer needs it; the
// envelope itself never reaches application logs.
func (p *EventPublisher) PublishMailRequested(ctx context.Context, event domain.MailRequestedEvent) error {
	payload := struct {
		AccountID   int64     `json:"account_id"`
		Recipient   string    `json:"recipient"`
		Kind        string    `json:"kind"`
		URL         string    `json:"url"`
		RequestedAt time.Time `json:"requested_at"`
	}{
		AccountID:   event.AccountID,
		Recipient:   event.Recipient,
		Kind:        event.Kind,
		URL:         event.URL,
		RequestedAt: event.RequestedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "accounts.mail.requested", event.AccountID, event.RequestedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)

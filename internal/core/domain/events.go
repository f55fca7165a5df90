package domain

import "time"

// AccountRegisteredEvent represents the payload for accounts.registered messages.
type AccountRegisteredEvent struct {
	EventID      string
	AccountID    int64
	Username     string
	Email        string
	RegisteredAt time.Time
	Metadata     map[string]any
}

// AccountActivatedEvent represents the payload for accounts.activated messages.
type AccountActivatedEvent struct {
	EventID     string
	AccountID   int64
	ActivatedAt time.Time
	Source      string
	Metadata    map[string]any
}

// AccountDeactivatedEvent represents the payload for accounts.deactivated messages.
type AccountDeactivatedEvent struct {
	EventID       string
	AccountID     int64
	DeactivatedAt time.Time
	Metadata      map[string]any
}

// PasswordResetRequestedEvent represents the payload for accounts.password.reset_requested messages.
type PasswordResetRequestedEvent struct {
	EventID           string
	AccountID         int64
	RequestedAt       time.Time
	MaskedDestination string
	Metadata          map[string]any
}

// PasswordChangedEvent represents the payload for accounts.password.changed messages.
type PasswordChangedEvent struct {
	EventID   string
	AccountID int64
	ChangedAt time.Time
	Source    string
	Metadata  map[string]any
}

// MailRequestedEvent represents the payload for accounts.mail.requested messages.
// Downstream mailers render the template identified by Kind and deliver it.
type MailRequestedEvent struct {
	EventID     string
	AccountID   int64
	Recipient   string
	Kind        string
	URL         string
	RequestedAt time.Time
}

package port

import (
	"context"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
)

// MailKind selects the template a downstream mailer renders.
type MailKind string

const (
	MailUserCreated   MailKind = "user_created"
	MailResetPassword MailKind = "reset_password"
	MailSetPassword   MailKind = "set_password"
)

// Notifier delivers a templated message to the account's address. The core
// only supplies the recipient and a fully-formed URL; rendering and transport
// belong to the collaborator. Delivery is fire-and-forget: callers must not
// block account mutations on it.
type Notifier interface {
	Send(ctx context.Context, account domain.Account, kind MailKind, url string) error
}

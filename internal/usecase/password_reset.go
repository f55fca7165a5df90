package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
	"github.com/arklim/social-platform-accounts/internal/core/port"
	"github.com/arklim/social-platform-accounts/internal/infra/logger"
	"github.com/arklim/social-platform-accounts/internal/infra/security"
	"github.com/arklim/social-platform-accounts/internal/repository"
)

// ErrResetPasswordLinkInvalid collapses every reset-link failure mode into
// one answer so callers cannot probe account existence through reset links.
var ErrResetPasswordLinkInvalid = errors.New("reset password link invalid")

// PasswordResetService handles the forgot-password flow and deactivation.
type PasswordResetService struct {
	accounts  port.AccountRepository
	resolver  *IdentityResolver
	hasher    *security.Hasher
	validator *security.PasswordValidator
	tokens    *security.StateTokenGenerator
	notifier  port.Notifier
	events    port.EventPublisher
	sessions  port.SessionStore
	hooks     *Hooks
	links     LinkBuilder
	logger    *zap.Logger
}

// NewPasswordResetService constructs a password reset service.
func NewPasswordResetService(
	accounts port.AccountRepository,
	resolver *IdentityResolver,
	hasher *security.Hasher,
	validator *security.PasswordValidator,
	tokens *security.StateTokenGenerator,
	notifier port.Notifier,
	events port.EventPublisher,
	sessions port.SessionStore,
	hooks *Hooks,
	links LinkBuilder,
	log *zap.Logger,
) *PasswordResetService {
	if hasher == nil {
		hasher = security.DefaultHasher()
	}
	if validator == nil {
		validator = security.DefaultPasswordValidator(0)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PasswordResetService{
		accounts:  accounts,
		resolver:  resolver,
		hasher:    hasher,
		validator: validator,
		tokens:    tokens,
		notifier:  notifier,
		events:    events,
		sessions:  sessions,
		hooks:     hooks,
		links:     links,
		logger:    log,
	}
}

// InitiateReset sends a reset link to the address when it belongs to an
// account. The answer is success either way; only infrastructure failures
// surface as errors. Accounts without a usable password get the set-password
// mail instead, since for them this is first-time credential setup.
func (s *PasswordResetService) InitiateReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}

	account, err := s.accounts.FindOneByField(ctx, "email", email, true)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrAmbiguous) {
			s.logger.Info("Password reset requested for unknown address",
				zap.String("email", logger.MaskEmail(email)),
			)
			return nil
		}
		return fmt.Errorf("lookup account by email: %w", err)
	}

	s.hooks.firePreResetPassword(ctx, *account)

	kind := port.MailResetPassword
	if !security.HasUsablePassword(account.PasswordHash) {
		kind = port.MailSetPassword
	}

	ident := security.ScrambleIdent(fmt.Sprintf("%d", account.ID))
	token := s.tokens.Generate(*account)
	s.sendMail(*account, kind, s.links.ResetPassword(ident, token))

	if s.events != nil {
		event := domain.PasswordResetRequestedEvent{
			EventID:           uuid.NewString(),
			AccountID:         account.ID,
			RequestedAt:       time.Now().UTC(),
			MaskedDestination: logger.MaskEmail(account.Email),
		}
		if err := s.events.PublishPasswordResetRequested(ctx, event); err != nil {
			s.logger.Warn("Failed to publish reset request event", zap.Error(err))
		}
	}

	return nil
}

// CompleteReset sets a new password for the account the link identifies.
// Link failures return ErrResetPasswordLinkInvalid; policy failures return a
// *domain.ValidationError without mutating anything. A successful reset also
// activates the account and ends all of its sessions.
func (s *PasswordResetService) CompleteReset(ctx context.Context, ident, token, password string) error {
	account, err := s.resolver.ResolveScrambled(ctx, ident)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResetPasswordLinkInvalid
		}
		return err
	}

	if !s.tokens.Verify(*account, token) {
		return ErrResetPasswordLinkInvalid
	}

	password = norm.NFKC.String(password)
	if password == "" {
		violations := &domain.ValidationError{}
		violations.Add("password", domain.CodeBlank)
		return violations
	}
	if fieldErrors := s.validator.Validate(password, domain.ContextFromAccount(*account)); len(fieldErrors) > 0 {
		return &domain.ValidationError{Violations: fieldErrors}
	}

	passwordHash, err := s.hasher.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	if err := s.accounts.UpdatePassword(ctx, account.ID, passwordHash, now); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	// Proving control of the mailbox is as strong as following an
	// activation link, so a reset always leaves the account active.
	if !account.IsActive {
		if err := s.accounts.SetActive(ctx, account.ID, true, now); err != nil {
			return fmt.Errorf("activate account: %w", err)
		}
		account.IsActive = true
	}
	account.PasswordHash = passwordHash
	account.StateChangedAt = now

	if s.sessions != nil {
		if err := s.sessions.EndAll(ctx, account.ID); err != nil {
			s.logger.Warn("Failed to end sessions after reset",
				zap.Error(err),
				zap.Int64("account_id", account.ID),
			)
		}
	}

	s.logger.Info("Password reset completed", zap.Int64("account_id", account.ID))

	if s.events != nil {
		event := domain.PasswordChangedEvent{
			EventID:   uuid.NewString(),
			AccountID: account.ID,
			ChangedAt: now,
			Source:    "reset_link",
		}
		if err := s.events.PublishPasswordChanged(ctx, event); err != nil {
			s.logger.Warn("Failed to publish password change event", zap.Error(err))
		}
	}

	s.hooks.firePostResetPassword(ctx, *account)

	return nil
}

// Deactivate disables the account. The stored hash is rotated to the
// unusable sentinel, which kills password login and every outstanding
// activation or reset token at once, and all sessions end.
func (s *PasswordResetService) Deactivate(ctx context.Context, accountID int64) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	sentinel, err := security.UnusablePassword()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if err := s.accounts.UpdatePassword(ctx, account.ID, sentinel, now); err != nil {
		return fmt.Errorf("rotate password hash: %w", err)
	}
	if err := s.accounts.SetActive(ctx, account.ID, false, now); err != nil {
		return fmt.Errorf("deactivate account: %w", err)
	}
	account.PasswordHash = sentinel
	account.IsActive = false
	account.StateChangedAt = now

	if s.sessions != nil {
		if err := s.sessions.EndAll(ctx, account.ID); err != nil {
			s.logger.Warn("Failed to end sessions on deactivation",
				zap.Error(err),
				zap.Int64("account_id", account.ID),
			)
		}
	}

	s.logger.Info("Account deactivated", zap.Int64("account_id", account.ID))

	if s.events != nil {
		event := domain.AccountDeactivatedEvent{
			EventID:       uuid.NewString(),
			AccountID:     account.ID,
			DeactivatedAt: now,
		}
		if err := s.events.PublishAccountDeactivated(ctx, event); err != nil {
			s.logger.Warn("Failed to publish deactivation event", zap.Error(err))
		}
	}

	s.hooks.firePostDeactivate(ctx, *account)

	return nil
}

// sendMail dispatches the notification in a detached goroutine, mirroring
// registration: delivery failure never rolls back the operation.
func (s *PasswordResetService) sendMail(account domain.Account, kind port.MailKind, url string) {
	if s.notifier == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		if err := s.notifier.Send(ctx, account, kind, url); err != nil {
			s.logger.Error("Failed to send notification",
				zap.Error(err),
				zap.Int64("account_id", account.ID),
				zap.String("kind", string(kind)),
			)
		}
	}()
}

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
	"github.com/arklim/social-platform-accounts/internal/infra/config"
	"github.com/arklim/social-platform-accounts/internal/infra/logger"
	"github.com/arklim/social-platform-accounts/internal/infra/security"
	"github.com/arklim/social-platform-accounts/internal/repository"
)

// notifyTimeout bounds the detached mail delivery so a stuck broker cannot
// pin goroutines forever.
const notifyTimeout = 10 * time.Second

// ErrActivationLinkInvalid collapses every activation failure mode into one
// answer so callers cannot probe which accounts exist or are already active.
var ErrActivationLinkInvalid = errors.New("activation link invalid")

// RegistrationService handles account onboarding and activation.
type RegistrationService struct {
	accounts  port.AccountRepository
	resolver  *IdentityResolver
	hasher    *security.Hasher
	validator *security.PasswordValidator
	tokens    *security.StateTokenGenerator
	notifier  port.Notifier
	events    port.EventPublisher
	hooks     *Hooks
	links     LinkBuilder
	cfg       config.AuthSettings
	logger    *zap.Logger
}

// NewRegistrationService constructs a registration service.
func NewRegistrationService(
	accounts port.AccountRepository,
	resolver *IdentityResolver,
	hasher *security.Hasher,
	validator *security.PasswordValidator,
	tokens *security.StateTokenGenerator,
	notifier port.Notifier,
	events port.EventPublisher,
	hooks *Hooks,
	links LinkBuilder,
	cfg config.AuthSettings,
	log *zap.Logger,
) *RegistrationService {
	if hasher == nil {
		hasher = security.DefaultHasher()
	}
	if validator == nil {
		validator = security.DefaultPasswordValidator(cfg.MinPasswordLength)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RegistrationService{
		accounts:  accounts,
		resolver:  resolver,
		hasher:    hasher,
		validator: validator,
		tokens:    tokens,
		notifier:  notifier,
		events:    events,
		hooks:     hooks,
		links:     links,
		cfg:       cfg,
		logger:    log,
	}
}

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Register validates the input, creates an inactive account, and dispatches
// the activation mail. Validation is collect-all: every violation found is
// reported in a single *domain.ValidationError, with stable per-field codes.
func (s *RegistrationService) Register(ctx context.Context, input RegisterInput) (*domain.Account, error) {
	username := norm.NFKC.String(strings.TrimSpace(input.Username))
	email := strings.TrimSpace(input.Email)
	password := norm.NFKC.String(input.Password)

	s.hooks.firePreRegister(ctx, username, email)

	violations := &domain.ValidationError{}

	if email == "" {
		violations.Add("email", domain.CodeBlank)
	}
	if username == "" {
		if s.cfg.UsernameRequired {
			violations.Add("username", domain.CodeBlank)
		} else {
			username = uuid.NewString()
		}
	}

	if password == "" {
		violations.Add("password", domain.CodeBlank)
	} else {
		passwordCtx := domain.PasswordContext{Username: username, Email: email}
		violations.Violations = append(violations.Violations, s.validator.Validate(password, passwordCtx)...)
	}

	if email != "" {
		if exists, err := s.accounts.ExistsByField(ctx, "email", email, true); err != nil {
			return nil, fmt.Errorf("check email uniqueness: %w", err)
		} else if exists {
			violations.Add("email", domain.UniqueCode("email"))
		}
	}
	if username != "" {
		if exists, err := s.accounts.ExistsByField(ctx, "username", username, false); err != nil {
			return nil, fmt.Errorf("check username uniqueness: %w", err)
		} else if exists {
			violations.Add("username", domain.UniqueCode("username"))
		}
	}

	if violations.HasViolations() {
		return nil, violations
	}

	passwordHash, err := s.hasher.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	account, err := s.accounts.Create(ctx, domain.Account{
		Username:       username,
		Email:          email,
		PasswordHash:   passwordHash,
		IsActive:       false,
		CreatedAt:      now,
		StateChangedAt: now,
	})
	if err != nil {
		// A concurrent registration can slip past the pre-check; the storage
		// constraint reports it with the same field-scoped code.
		var unique *repository.UniqueViolationError
		if errors.As(err, &unique) {
			conflict := &domain.ValidationError{}
			conflict.Add(unique.Field, domain.UniqueCode(unique.Field))
			return nil, conflict
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.logger.Info("Account registered",
		zap.Int64("account_id", account.ID),
		zap.String("email", logger.MaskEmail(account.Email)),
	)

	s.sendActivationMail(*account, port.MailUserCreated)

	if s.events != nil {
		event := domain.AccountRegisteredEvent{
			EventID:      uuid.NewString(),
			AccountID:    account.ID,
			Username:     account.Username,
			Email:        account.Email,
			RegisteredAt: account.CreatedAt,
		}
		if err := s.events.PublishAccountRegistered(ctx, event); err != nil {
			s.logger.Warn("Failed to publish registration event", zap.Error(err))
		}
	}

	s.hooks.firePostRegister(ctx, *account)

	return account, nil
}

// Activate flips an inactive account to active when the supplied link
// parameters check out. Any failure, including a token issued before the
// account's state last changed, yields ErrActivationLinkInvalid.
func (s *RegistrationService) Activate(ctx context.Context, ident, token string) error {
	account, err := s.resolver.ResolveScrambled(ctx, ident)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrActivationLinkInvalid
		}
		return err
	}

	if !s.tokens.Verify(*account, token) {
		return ErrActivationLinkInvalid
	}

	now := time.Now().UTC()
	if err := s.accounts.SetActive(ctx, account.ID, true, now); err != nil {
		return fmt.Errorf("activate account: %w", err)
	}
	account.IsActive = true
	account.StateChangedAt = now

	s.logger.Info("Account activated", zap.Int64("account_id", account.ID))

	if s.events != nil {
		event := domain.AccountActivatedEvent{
			EventID:     uuid.NewString(),
			AccountID:   account.ID,
			ActivatedAt: now,
			Source:      "activation_link",
		}
		if err := s.events.PublishAccountActivated(ctx, event); err != nil {
			s.logger.Warn("Failed to publish activation event", zap.Error(err))
		}
	}

	s.hooks.firePostActivate(ctx, *account)

	return nil
}

// ActivateByAdmin activates an account directly, without a link, and invites
// the owner to set a password. Used for operator-created accounts that were
// registered without a usable password.
func (s *RegistrationService) ActivateByAdmin(ctx context.Context, accountID int64) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	now := time.Now().UTC()
	if !account.IsActive {
		if err := s.accounts.SetActive(ctx, account.ID, true, now); err != nil {
			return fmt.Errorf("activate account: %w", err)
		}
		account.IsActive = true
		account.StateChangedAt = now
	}

	// The set-password link must verify against the post-activation state.
	ident := security.ScrambleIdent(fmt.Sprintf("%d", account.ID))
	token := s.tokens.Generate(*account)
	s.sendMail(*account, port.MailSetPassword, s.links.ResetPassword(ident, token))

	if s.events != nil {
		event := domain.AccountActivatedEvent{
			EventID:     uuid.NewString(),
			AccountID:   account.ID,
			ActivatedAt: now,
			Source:      "admin",
		}
		if err := s.events.PublishAccountActivated(ctx, event); err != nil {
			s.logger.Warn("Failed to publish activation event", zap.Error(err))
		}
	}

	s.hooks.firePostActivate(ctx, *account)

	return nil
}

// ValidatePasswordInput carries a standalone password policy check request.
// Username and email form the similarity context; when Ident is set the
// context is taken from the resolved account instead.
type ValidatePasswordInput struct {
	Ident    string
	Username string
	Email    string
	Password string
}

// ValidatePassword runs the password policy without mutating anything. The
// returned slice is empty when the password is acceptable.
func (s *RegistrationService) ValidatePassword(ctx context.Context, input ValidatePasswordInput) ([]domain.FieldError, error) {
	passwordCtx := domain.PasswordContext{
		Username: strings.TrimSpace(input.Username),
		Email:    strings.TrimSpace(input.Email),
	}

	if input.Ident != "" {
		account, err := s.resolver.ResolveIdent(ctx, input.Ident)
		if err == nil {
			passwordCtx = domain.ContextFromAccount(*account)
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	password := norm.NFKC.String(input.Password)
	if password == "" {
		return []domain.FieldError{{Field: "password", Code: domain.CodeBlank}}, nil
	}

	return s.validator.Validate(password, passwordCtx), nil
}

func (s *RegistrationService) sendActivationMail(account domain.Account, kind port.MailKind) {
	ident := security.ScrambleIdent(fmt.Sprintf("%d", account.ID))
	token := s.tokens.Generate(account)
	s.sendMail(account, kind, s.links.Activation(ident, token))
}

// sendMail dispatches the notification in a detached goroutine. Delivery
// failure is logged, never propagated: the account mutation already happened
// and must not roll back.
func (s *RegistrationService) sendMail(account domain.Account, kind port.MailKind, url string) {
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

package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
	"github.com/arklim/social-platform-accounts/internal/core/port"
	"github.com/arklim/social-platform-accounts/internal/infra/security"
	"github.com/arklim/social-platform-accounts/internal/repository"
)

var (
	// ErrInvalidCredentials is the uniform login failure: unknown identifier,
	// wrong password, and inactive account are indistinguishable to callers.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionNotFound indicates the session id does not reference a live session.
	ErrSessionNotFound = errors.New("session not found")
)

// AuthService handles login, logout, and session introspection.
type AuthService struct {
	accounts  port.AccountRepository
	resolver  *IdentityResolver
	hasher    *security.Hasher
	sessions  port.SessionStore
	hooks     *Hooks
	logger    *zap.Logger
	dummyHash string
}

// NewAuthService constructs an auth service.
func NewAuthService(
	accounts port.AccountRepository,
	resolver *IdentityResolver,
	hasher *security.Hasher,
	sessions port.SessionStore,
	hooks *Hooks,
	log *zap.Logger,
) (*AuthService, error) {
	if hasher == nil {
		hasher = security.DefaultHasher()
	}
	if log == nil {
		log = zap.NewNop()
	}

	// Verified against when the identifier resolves to nothing, so that a
	// failed lookup costs the same as a failed password check.
	dummyHash, err := hasher.HashPassword("*")
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}

	return &AuthService{
		accounts:  accounts,
		resolver:  resolver,
		hasher:    hasher,
		sessions:  sessions,
		hooks:     hooks,
		logger:    log,
		dummyHash: dummyHash,
	}, nil
}

// Login authenticates the identifier/password pair and opens a session.
// Every failure mode returns ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, ident, password string) (*domain.Account, string, error) {
	account, err := s.resolver.ResolveIdent(ctx, ident)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Burn a hash verification anyway to keep timing flat.
			_, _ = s.hasher.VerifyPassword(password, s.dummyHash)
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	ok, err := s.hasher.VerifyPassword(password, account.PasswordHash)
	if err != nil {
		s.logger.Warn("Password verification failed",
			zap.Error(err),
			zap.Int64("account_id", account.ID),
		)
		return nil, "", ErrInvalidCredentials
	}
	if !ok || !account.IsActive {
		return nil, "", ErrInvalidCredentials
	}

	sessionID, err := s.sessions.Start(ctx, account.ID)
	if err != nil {
		return nil, "", fmt.Errorf("start session: %w", err)
	}

	s.logger.Info("Login succeeded", zap.Int64("account_id", account.ID))
	s.hooks.firePostLogin(ctx, *account)

	return account, sessionID, nil
}

// Logout ends the session. Unknown sessions end silently so the operation is
// idempotent.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	accountID, err := s.sessions.AccountID(ctx, sessionID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("resolve session: %w", err)
	}

	if err := s.sessions.End(ctx, sessionID); err != nil {
		return fmt.Errorf("end session: %w", err)
	}

	if accountID > 0 {
		s.hooks.firePostLogout(ctx, accountID)
	}

	return nil
}

// LogoutAll ends every session the account holds.
func (s *AuthService) LogoutAll(ctx context.Context, accountID int64) error {
	if err := s.sessions.EndAll(ctx, accountID); err != nil {
		return fmt.Errorf("end all sessions: %w", err)
	}
	s.hooks.firePostLogout(ctx, accountID)
	return nil
}

// CurrentAccount resolves the session to its owning account.
func (s *AuthService) CurrentAccount(ctx context.Context, sessionID string) (*domain.Account, error) {
	accountID, err := s.sessions.AccountID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("resolve session: %w", err)
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	return account, nil
}

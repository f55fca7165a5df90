package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
	"github.com/arklim/social-platform-accounts/internal/core/port"
	"github.com/arklim/social-platform-accounts/internal/infra/security"
	"github.com/arklim/social-platform-accounts/internal/repository"
)

// IdentityResolver maps a caller-supplied identifier to exactly one account.
// Resolution walks the configured identity fields in order; the first field
// producing exactly one match wins. Zero matches and ambiguous matches both
// fall through to the next field, so an email address that collides with
// someone's username still resolves predictably.
type IdentityResolver struct {
	accounts port.AccountRepository
	fields   []string
}

// NewIdentityResolver constructs a resolver over the given identity fields.
// The default order is email before username.
func NewIdentityResolver(accounts port.AccountRepository, fields []string) *IdentityResolver {
	if len(fields) == 0 {
		fields = []string{"email", "username"}
	}
	copied := make([]string, len(fields))
	copy(copied, fields)
	return &IdentityResolver{accounts: accounts, fields: copied}
}

// ResolveIdent resolves a login identifier (email or username) to an account.
// Failure to resolve returns repository.ErrNotFound; callers translate that
// into their operation's uniform error code.
func (r *IdentityResolver) ResolveIdent(ctx context.Context, ident string) (*domain.Account, error) {
	if ident == "" {
		return nil, repository.ErrNotFound
	}

	for _, field := range r.fields {
		fold := field == "email"
		account, err := r.accounts.FindOneByField(ctx, field, ident, fold)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrAmbiguous) {
				continue
			}
			return nil, fmt.Errorf("resolve by %s: %w", field, err)
		}
		return account, nil
	}

	return nil, repository.ErrNotFound
}

// ResolveScrambled resolves a scrambled primary-key identifier, the form used
// in activation and reset links. Non-numeric identifiers and unknown keys
// return repository.ErrNotFound.
func (r *IdentityResolver) ResolveScrambled(ctx context.Context, ident string) (*domain.Account, error) {
	id, ok := security.UnscrambleIdent(ident)
	if !ok {
		return nil, repository.ErrNotFound
	}

	account, err := r.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("resolve by id: %w", err)
	}
	return account, nil
}

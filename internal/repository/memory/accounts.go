package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
	"github.com/arklim/social-platform-accounts/internal/core/port"
	"github.com/arklim/social-platform-accounts/internal/repository"
)

// AccountRepository is an in-memory port.AccountRepository used by tests and
// development environments. It enforces the same uniqueness semantics the
// PostgreSQL schema does, including case-insensitive email uniqueness.
type AccountRepository struct {
	mu       sync.RWMutex
	nextID   int64
	accounts map[int64]domain.Account
}

// NewAccountRepository constructs an empty repository.
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		nextID:   1,
		accounts: make(map[int64]domain.Account),
	}
}

// Create stores the account, assigning the next sequential identifier.
func (r *AccountRepository) Create(_ context.Context, account domain.Account) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.accounts {
		if existing.Username == account.Username {
			return nil, &repository.UniqueViolationError{Field: "username"}
		}
		if strings.EqualFold(existing.Email, account.Email) {
			return nil, &repository.UniqueViolationError{Field: "email"}
		}
	}

	account.ID = r.nextID
	r.nextID++
	r.accounts[account.ID] = account

	stored := account
	return &stored, nil
}

// GetByID retrieves an account by its primary key.
func (r *AccountRepository) GetByID(_ context.Context, id int64) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := account
	return &copied, nil
}

// FindOneByField looks up an account by identity field, requiring exactly
// one match.
func (r *AccountRepository) FindOneByField(_ context.Context, field, value string, fold bool) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []domain.Account
	for _, account := range r.accounts {
		if fieldMatches(account, field, value, fold) {
			matches = append(matches, account)
		}
	}

	switch len(matches) {
	case 0:
		return nil, repository.ErrNotFound
	case 1:
		copied := matches[0]
		return &copied, nil
	default:
		return nil, repository.ErrAmbiguous
	}
}

// ExistsByField reports whether any account carries the given field value.
func (r *AccountRepository) ExistsByField(_ context.Context, field, value string, fold bool) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, account := range r.accounts {
		if fieldMatches(account, field, value, fold) {
			return true, nil
		}
	}
	return false, nil
}

// SetActive updates the active flag and state change timestamp.
func (r *AccountRepository) SetActive(_ context.Context, id int64, active bool, changedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.IsActive = active
	account.StateChangedAt = changedAt
	r.accounts[id] = account
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *AccountRepository) UpdatePassword(_ context.Context, id int64, passwordHash string, changedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.PasswordHash = passwordHash
	account.StateChangedAt = changedAt
	r.accounts[id] = account
	return nil
}

func fieldMatches(account domain.Account, field, value string, fold bool) bool {
	var stored string
	switch field {
	case "username":
		stored = account.Username
	case "email":
		stored = account.Email
	default:
		return false
	}

	if fold {
		return strings.EqualFold(stored, value)
	}
	return stored == value
}

var _ port.AccountRepository = (*AccountRepository)(nil)

package port

import (
	"context"
	"time"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
)

// AccountRepository exposes persistence behavior for accounts.
//
// Lookups by field must distinguish "no match" from "more than one match":
// implementations return repository.ErrNotFound for the former and
// repository.ErrAmbiguous for the latter. Create must surface storage-level
// uniqueness conflicts as *repository.UniqueViolationError so the caller can
// translate them into field-scoped violation codes.
type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) (*domain.Account, error)
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	// FindOneByField looks up an account by the named identity field. When
	// fold is true the comparison is case-insensitive.
	FindOneByField(ctx context.Context, field, value string, fold bool) (*domain.Account, error)
	ExistsByField(ctx context.Context, field, value string, fold bool) (bool, error)
	SetActive(ctx context.Context, id int64, active bool, changedAt time.Time) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string, changedAt time.Time) error
}

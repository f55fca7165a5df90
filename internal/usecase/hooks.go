package usecase

import (
	"context"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
)

// Hooks are optional observer callbacks fired around account lifecycle
// transitions. Embedding applications register the ones they care about;
// unset hooks are skipped. Hooks observe, they cannot veto: the operation has
// already been decided when a post hook runs, and pre hooks see the input
// before any mutation happens.
type Hooks struct {
	PreRegister  func(ctx context.Context, username, email string)
	PostRegister func(ctx context.Context, account domain.Account)

	PostActivate func(ctx context.Context, account domain.Account)

	PostLogin  func(ctx context.Context, account domain.Account)
	PostLogout func(ctx context.Context, accountID int64)

	PreResetPassword  func(ctx context.Context, account domain.Account)
	PostResetPassword func(ctx context.Context, account domain.Account)

	PostDeactivate func(ctx context.Context, account domain.Account)
}

func (h *Hooks) firePreRegister(ctx context.Context, username, email string) {
	if h != nil && h.PreRegister != nil {
		h.PreRegister(ctx, username, email)
	}
}

func (h *Hooks) firePostRegister(ctx context.Context, account domain.Account) {
	if h != nil && h.PostRegister != nil {
		h.PostRegister(ctx, account)
	}
}

func (h *Hooks) firePostActivate(ctx context.Context, account domain.Account) {
	if h != nil && h.PostActivate != nil {
		h.PostActivate(ctx, account)
	}
}

func (h *Hooks) firePostLogin(ctx context.Context, account domain.Account) {
	if h != nil && h.PostLogin != nil {
		h.PostLogin(ctx, account)
	}
}

func (h *Hooks) firePostLogout(ctx context.Context, accountID int64) {
	if h != nil && h.PostLogout != nil {
		h.PostLogout(ctx, accountID)
	}
}

func (h *Hooks) firePreResetPassword(ctx context.Context, account domain.Account) {
	if h != nil && h.PreResetPassword != nil {
		h.PreResetPassword(ctx, account)
	}
}

func (h *Hooks) firePostResetPassword(ctx context.Context, account domain.Account) {
	if h != nil && h.PostResetPassword != nil {
		h.PostResetPassword(ctx, account)
	}
}

func (h *Hooks) firePostDeactivate(ctx context.Context, account domain.Account) {
	if h != nil && h.PostDeactivate != nil {
		h.PostDeactivate(ctx, account)
	}
}

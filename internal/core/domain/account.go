package domain

import "time"

// Account mirrors the persisted representation in the accounts table.
// The numeric ID is internal only; it crosses the wire exclusively in
// scrambled form.
type Account struct {
	ID             int64
	Username       string
	Email          string
	PasswordHash   string
	IsActive       bool
	CreatedAt      time.Time
	StateChangedAt time.Time
}

// PasswordContext carries the identity fields a candidate password is
// checked against. It is built either from an existing account or from
// the proposed fields of a registration that has not been persisted yet.
type PasswordContext struct {
	Username string
	Email    string
}

// ContextFromAccount derives a password context from a stored account.
func ContextFromAccount(account Account) PasswordContext {
	return PasswordContext{
		Username: account.Username,
		Email:    account.Email,
	}
}

package port

import "context"

// SessionStore manages opaque login sessions. The core never inspects the
// session identifier; it only starts, resolves, and ends sessions.
type SessionStore interface {
	// Start opens a session for the account and returns its opaque identifier.
	Start(ctx context.Context, accountID int64) (string, error)
	// AccountID resolves a session identifier to the owning account.
	AccountID(ctx context.Context, sessionID string) (int64, error)
	// End terminates a single session.
	End(ctx context.Context, sessionID string) error
	// EndAll terminates every session held by the account.
	EndAll(ctx context.Context, accountID int64) error
}

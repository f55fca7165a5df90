package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/arklim/social-platform-accounts/internal/core/port"
	"github.com/arklim/social-platform-accounts/internal/infra/security"
	"github.com/arklim/social-platform-accounts/internal/repository"
)

const (
	defaultSessionPrefix   = "sess"
	sessionTokenByteLength = 32
)

// SessionStore keeps opaque session identifiers in Redis. Each session key
// maps to the owning account id, and a per-account set indexes live sessions
// so that EndAll can drop every one of them at once.
type SessionStore struct {
	client *red.Client
	prefix string
	ttl    time.Duration
}

// NewSessionStore constructs a Redis-backed session store.
func NewSessionStore(client *red.Client, keyPrefix string, ttl time.Duration) *SessionStore {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultSessionPrefix
	}

	return &SessionStore{client: client, prefix: prefix, ttl: ttl}
}

// Start creates a session for the account and returns its opaque identifier.
func (s *SessionStore) Start(ctx context.Context, accountID int64) (string, error) {
	if accountID <= 0 {
		return "", fmt.Errorf("account id is required")
	}

	sessionID, err := security.GenerateSecureToken(sessionTokenByteLength)
	if err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.sessionKey(sessionID), strconv.FormatInt(accountID, 10), s.ttl)
	pipe.SAdd(ctx, s.accountKey(accountID), sessionID)
	pipe.Expire(ctx, s.accountKey(accountID), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("redis start session: %w", err)
	}

	return sessionID, nil
}

// AccountID resolves a session identifier to the owning account. Missing or
// expired sessions return repository.ErrNotFound.
func (s *SessionStore) AccountID(ctx context.Context, sessionID string) (int64, error) {
	if strings.TrimSpace(sessionID) == "" {
		return 0, repository.ErrNotFound
	}

	value, err := s.client.Get(ctx, s.sessionKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return 0, repository.ErrNotFound
		}
		return 0, fmt.Errorf("redis get session: %w", err)
	}

	accountID, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse session account id: %w", err)
	}

	return accountID, nil
}

// End removes a single session. Ending an unknown session is not an error.
func (s *SessionStore) End(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return nil
	}

	accountID, err := s.AccountID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.sessionKey(sessionID))
	pipe.SRem(ctx, s.accountKey(accountID), sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis end session: %w", err)
	}

	return nil
}

// EndAll removes every live session belonging to the account.
func (s *SessionStore) EndAll(ctx context.Context, accountID int64) error {
	if accountID <= 0 {
		return fmt.Errorf("account id is required")
	}

	indexKey := s.accountKey(accountID)
	sessionIDs, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return fmt.Errorf("redis list account sessions: %w", err)
	}

	keys := make([]string, 0, len(sessionIDs)+1)
	for _, sessionID := range sessionIDs {
		keys = append(keys, s.sessionKey(sessionID))
	}
	keys = append(keys, indexKey)

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis end all sessions: %w", err)
	}

	return nil
}

func (s *SessionStore) sessionKey(sessionID string) string {
	return fmt.Sprintf("%s:%s", s.prefix, sessionID)
}

func (s *SessionStore) accountKey(accountID int64) string {
	return fmt.Sprintf("%s:acct:%d", s.prefix, accountID)
}

var _ port.SessionStore = (*SessionStore)(nil)

package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
)

const (
	// stateTokenSigBytes bounds the embedded signature to keep links short.
	stateTokenSigBytes = 10

	// DefaultStateTokenExpiry is the horizon within which activation and
	// reset links stay valid.
	DefaultStateTokenExpiry = 3 * 24 * time.Hour

	stateTokenBucket = 24 * time.Hour
)

// StateTokenGenerator produces and checks time-windowed tokens bound to an
// account's mutable state. Tokens are never stored: verification recomputes
// the expected value from the account's current fingerprint, so changing the
// password hash or the active flag silently invalidates everything issued
// before the change.
type StateTokenGenerator struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewStateTokenGenerator constructs a generator using the server-wide secret.
func NewStateTokenGenerator(secret string, expiry time.Duration) *StateTokenGenerator {
	if expiry <= 0 {
		expiry = DefaultStateTokenExpiry
	}
	return &StateTokenGenerator{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}
}

// WithClock overrides the clock, primarily for tests.
func (g *StateTokenGenerator) WithClock(clock func() time.Time) {
	if clock != nil {
		g.now = clock
	}
}

// Generate returns a fresh token for the account's current state.
func (g *StateTokenGenerator) Generate(account domain.Account) string {
	bucket := g.bucket(g.now())
	return g.tokenForBucket(account, bucket)
}

// Verify reports whether the token matches the account's current fingerprint
// and was issued within the expiry horizon. Malformed tokens fail cleanly.
func (g *StateTokenGenerator) Verify(account domain.Account, token string) bool {
	idx := strings.IndexByte(token, '-')
	if idx <= 0 || idx == len(token)-1 {
		return false
	}

	bucket, err := strconv.ParseInt(token[:idx], 36, 64)
	if err != nil || bucket < 0 {
		return false
	}

	expected := g.tokenForBucket(account, bucket)
	if !hmac.Equal([]byte(expected), []byte(token)) {
		return false
	}

	elapsed := g.bucket(g.now()) - bucket
	if elapsed < 0 {
		return false
	}
	return elapsed <= int64(g.expiry/stateTokenBucket)
}

func (g *StateTokenGenerator) bucket(at time.Time) int64 {
	return at.UTC().Unix() / int64(stateTokenBucket/time.Second)
}

func (g *StateTokenGenerator) tokenForBucket(account domain.Account, bucket int64) string {
	mac := hmac.New(sha256.New, g.secret)
	fmt.Fprintf(mac, "%d|%s|%t|%d", account.ID, account.PasswordHash, account.IsActive, bucket)
	sig := hex.EncodeToString(mac.Sum(nil)[:stateTokenSigBytes])
	return strconv.FormatInt(bucket, 36) + "-" + sig
}

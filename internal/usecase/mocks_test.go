package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
	"github.com/arklim/social-platform-accounts/internal/core/port"
	"github.com/arklim/social-platform-accounts/internal/infra/security"
	"github.com/arklim/social-platform-accounts/internal/repository"
)

// fastHasher keeps Argon2 cheap in tests.
func fastHasher() *security.Hasher {
	hasher, err := security.NewHasher(security.Argon2Config{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  8,
		KeyLength:   16,
	})
	if err != nil {
		panic(err)
	}
	return hasher
}

// stubAccountRepo is an in-memory port.AccountRepository with call counters.
type stubAccountRepo struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]domain.Account

	createCalls int
	createErr   error
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{nextID: 1, accounts: make(map[int64]domain.Account)}
}

func (r *stubAccountRepo) add(account domain.Account) domain.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	if account.ID == 0 {
		account.ID = r.nextID
		r.nextID++
	} else if account.ID >= r.nextID {
		r.nextID = account.ID + 1
	}
	r.accounts[account.ID] = account
	return account
}

func (r *stubAccountRepo) get(id int64) domain.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accounts[id]
}

func (r *stubAccountRepo) Create(_ context.Context, account domain.Account) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.createCalls++
	if r.createErr != nil {
		return nil, r.createErr
	}

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

func (r *stubAccountRepo) GetByID(_ context.Context, id int64) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := account
	return &copied, nil
}

func (r *stubAccountRepo) FindOneByField(_ context.Context, field, value string, fold bool) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matches []domain.Account
	for _, account := range r.accounts {
		if stubFieldMatches(account, field, value, fold) {
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

func (r *stubAccountRepo) ExistsByField(_ context.Context, field, value string, fold bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, account := range r.accounts {
		if stubFieldMatches(account, field, value, fold) {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubAccountRepo) SetActive(_ context.Context, id int64, active bool, changedAt time.Time) error {
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

func (r *stubAccountRepo) UpdatePassword(_ context.Context, id int64, passwordHash string, changedAt time.Time) error {
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

func stubFieldMatches(account domain.Account, field, value string, fold bool) bool {
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

var _ port.AccountRepository = (*stubAccountRepo)(nil)

// sentMail records one Notifier.Send call.
type sentMail struct {
	Account domain.Account
	Kind    port.MailKind
	URL     string
}

// stubNotifier captures notifications on a channel so tests can wait for the
// detached delivery goroutine.
type stubNotifier struct {
	sent chan sentMail
	err  error
}

func newStubNotifier() *stubNotifier {
	return &stubNotifier{sent: make(chan sentMail, 8)}
}

func (n *stubNotifier) Send(_ context.Context, account domain.Account, kind port.MailKind, url string) error {
	n.sent <- sentMail{Account: account, Kind: kind, URL: url}
	return n.err
}

func (n *stubNotifier) wait(timeout time.Duration) (sentMail, error) {
	select {
	case mail := <-n.sent:
		return mail, nil
	case <-time.After(timeout):
		return sentMail{}, fmt.Errorf("no notification within %s", timeout)
	}
}

var _ port.Notifier = (*stubNotifier)(nil)

// stubPublisher counts published events by type.
type stubPublisher struct {
	mu     sync.Mutex
	counts map[string]int
}

func newStubPublisher() *stubPublisher {
	return &stubPublisher{counts: make(map[string]int)}
}

func (p *stubPublisher) record(eventType string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counts[eventType]++
}

func (p *stubPublisher) count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts[eventType]
}

func (p *stubPublisher) PublishAccountRegistered(_ context.Context, _ domain.AccountRegisteredEvent) error {
	p.record("registered")
	return nil
}

func (p *stubPublisher) PublishAccountActivated(_ context.Context, _ domain.AccountActivatedEvent) error {
	p.record("activated")
	return nil
}

func (p *stubPublisher) PublishAccountDeactivated(_ context.Context, _ domain.AccountDeactivatedEvent) error {
	p.record("deactivated")
	return nil
}

func (p *stubPublisher) PublishPasswordResetRequested(_ context.Context, _ domain.PasswordResetRequestedEvent) error {
	p.record("reset_requested")
	return nil
}

func (p *stubPublisher) PublishPasswordChanged(_ context.Context, _ domain.PasswordChangedEvent) error {
	p.record("password_changed")
	return nil
}

func (p *stubPublisher) PublishMailRequested(_ context.Context, _ domain.MailRequestedEvent) error {
	p.record("mail_requested")
	return nil
}

var _ port.EventPublisher = (*stubPublisher)(nil)

// stubSessionStore is an in-memory port.SessionStore.
type stubSessionStore struct {
	mu       sync.Mutex
	nextID   int
	sessions map[string]int64
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: make(map[string]int64)}
}

func (s *stubSessionStore) Start(_ context.Context, accountID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	sessionID := fmt.Sprintf("session-%d", s.nextID)
	s.sessions[sessionID] = accountID
	return sessionID, nil
}

func (s *stubSessionStore) AccountID(_ context.Context, sessionID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accountID, ok := s.sessions[sessionID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	return accountID, nil
}

func (s *stubSessionStore) End(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

func (s *stubSessionStore) EndAll(_ context.Context, accountID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for sessionID, owner := range s.sessions {
		if owner == accountID {
			delete(s.sessions, sessionID)
		}
	}
	return nil
}

func (s *stubSessionStore) live(accountID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, owner := range s.sessions {
		if owner == accountID {
			count++
		}
	}
	return count
}

var _ port.SessionStore = (*stubSessionStore)(nil)

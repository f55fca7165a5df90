package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
	"github.com/arklim/social-platform-accounts/internal/repository"
)

const selectColumns = "id, username, email, password_hash, is_active, created_at, state_changed_at"

func newMockRepo(t *testing.T) (*AccountRepository, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool returned error: %v", err)
	}
	t.Cleanup(mock.Close)

	return NewAccountRepository(nil).WithExecutor(mock), mock
}

func accountRow(account domain.Account) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "username", "email", "password_hash", "is_active", "created_at", "state_changed_at",
	}).AddRow(
		account.ID,
		account.Username,
		account.Email,
		account.PasswordHash,
		account.IsActive,
		account.CreatedAt,
		account.StateChangedAt,
	)
}

func testStoredAccount() domain.Account {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	return domain.Account{
		ID:             7,
		Username:       "jdoe",
		Email:          "jdoe@example.com",
		PasswordHash:   "argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		IsActive:       true,
		CreatedAt:      now,
		StateChangedAt: now,
	}
}

func TestCreateReturnsAssignedID(t *testing.T) {
	repo, mock := newMockRepo(t)
	account := testStoredAccount()
	account.ID = 0

	mock.ExpectQuery(regexp.QuoteMeta(
		"INSERT INTO accounts (username,email,password_hash,is_active,created_at,state_changed_at) VALUES ($1,$2,$3,$4,$5,$6) RETURNING id",
	)).
		WithArgs(account.Username, account.Email, account.PasswordHash, account.IsActive, account.CreatedAt, account.StateChangedAt).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

	created, err := repo.Create(context.Background(), account)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.ID != 7 {
		t.Fatalf("expected assigned id 7, got %d", created.ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateMapsUniqueViolationToField(t *testing.T) {
	repo, mock := newMockRepo(t)
	account := testStoredAccount()
	account.ID = 0

	tests := []struct {
		name       string
		constraint string
		wantField  string
	}{
		{name: "email constraint", constraint: "accounts_email_key", wantField: "email"},
		{name: "username constraint", constraint: "accounts_username_key", wantField: "username"},
		{name: "unrecognized constraint", constraint: "accounts_pkey", wantField: "account"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock.ExpectQuery("INSERT INTO accounts").
				WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
				WillReturnError(&pgconn.PgError{Code: uniqueViolationCode, ConstraintName: tt.constraint})

			_, err := repo.Create(context.Background(), account)

			var unique *repository.UniqueViolationError
			if !errors.As(err, &unique) {
				t.Fatalf("expected *repository.UniqueViolationError, got %v", err)
			}
			if unique.Field != tt.wantField {
				t.Fatalf("expected field %s, got %s", tt.wantField, unique.Field)
			}
		})
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	stored := testStoredAccount()

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT "+selectColumns+" FROM accounts WHERE id = $1",
	)).
		WithArgs(stored.ID).
		WillReturnRows(accountRow(stored))

	account, err := repo.GetByID(context.Background(), stored.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if account.Username != stored.Username || account.Email != stored.Email {
		t.Fatalf("unexpected account: %+v", account)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT").
		WithArgs(int64(404)).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 404)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindOneByFieldFoldsEmail(t *testing.T) {
	repo, mock := newMockRepo(t)
	stored := testStoredAccount()

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT "+selectColumns+" FROM accounts WHERE LOWER(email) = LOWER($1) LIMIT 2",
	)).
		WithArgs("JDOE@example.com").
		WillReturnRows(accountRow(stored))

	account, err := repo.FindOneByField(context.Background(), "email", "JDOE@example.com", true)
	if err != nil {
		t.Fatalf("FindOneByField returned error: %v", err)
	}
	if account.ID != stored.ID {
		t.Fatalf("expected account %d, got %d", stored.ID, account.ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFindOneByFieldExactUsername(t *testing.T) {
	repo, mock := newMockRepo(t)
	stored := testStoredAccount()

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT "+selectColumns+" FROM accounts WHERE username = $1 LIMIT 2",
	)).
		WithArgs("jdoe").
		WillReturnRows(accountRow(stored))

	account, err := repo.FindOneByField(context.Background(), "username", "jdoe", false)
	if err != nil {
		t.Fatalf("FindOneByField returned error: %v", err)
	}
	if account.ID != stored.ID {
		t.Fatalf("expected account %d, got %d", stored.ID, account.ID)
	}
}

func TestFindOneByFieldOutcomes(t *testing.T) {
	repo, mock := newMockRepo(t)
	stored := testStoredAccount()
	other := stored
	other.ID = 8
	other.Email = "JDOE@example.com"

	t.Run("no match", func(t *testing.T) {
		mock.ExpectQuery("SELECT").
			WithArgs(pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{
				"id", "username", "email", "password_hash", "is_active", "created_at", "state_changed_at",
			}))

		_, err := repo.FindOneByField(context.Background(), "email", "ghost@example.com", true)
		if !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ambiguous match", func(t *testing.T) {
		mock.ExpectQuery("SELECT").
			WithArgs(pgxmock.AnyArg()).
			WillReturnRows(accountRow(stored).AddRow(
				other.ID, other.Username, other.Email, other.PasswordHash,
				other.IsActive, other.CreatedAt, other.StateChangedAt,
			))

		_, err := repo.FindOneByField(context.Background(), "email", "jdoe@example.com", true)
		if !errors.Is(err, repository.ErrAmbiguous) {
			t.Fatalf("expected ErrAmbiguous, got %v", err)
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		if _, err := repo.FindOneByField(context.Background(), "phone", "555", false); err == nil {
			t.Fatalf("expected error for unknown identity field")
		}
	})
}

func TestExistsByField(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT 1 FROM accounts WHERE LOWER(email) = LOWER($1) LIMIT 1",
	)).
		WithArgs("jdoe@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"1"}).AddRow(1))

	exists, err := repo.ExistsByField(context.Background(), "email", "jdoe@example.com", true)
	if err != nil {
		t.Fatalf("ExistsByField returned error: %v", err)
	}
	if !exists {
		t.Fatalf("expected exists=true")
	}

	mock.ExpectQuery("SELECT 1 FROM accounts").
		WithArgs(pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	exists, err = repo.ExistsByField(context.Background(), "email", "ghost@example.com", true)
	if err != nil {
		t.Fatalf("ExistsByField returned error: %v", err)
	}
	if exists {
		t.Fatalf("expected exists=false")
	}
}

func TestSetActive(t *testing.T) {
	repo, mock := newMockRepo(t)
	changedAt := time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE accounts SET is_active = $1, state_changed_at = $2 WHERE id = $3",
	)).
		WithArgs(true, changedAt, int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.SetActive(context.Background(), 7, true, changedAt); err != nil {
		t.Fatalf("SetActive returned error: %v", err)
	}

	mock.ExpectExec("UPDATE accounts").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.SetActive(context.Background(), 404, true, changedAt); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing row, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdatePassword(t *testing.T) {
	repo, mock := newMockRepo(t)
	changedAt := time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE accounts SET password_hash = $1, state_changed_at = $2 WHERE id = $3",
	)).
		WithArgs("new-hash", changedAt, int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.UpdatePassword(context.Background(), 7, "new-hash", changedAt); err != nil {
		t.Fatalf("UpdatePassword returned error: %v", err)
	}

	mock.ExpectExec("UPDATE accounts").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.UpdatePassword(context.Background(), 404, "new-hash", changedAt); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing row, got %v", err)
	}
}

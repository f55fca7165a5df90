package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
	"github.com/arklim/social-platform-accounts/internal/core/port"
	"github.com/arklim/social-platform-accounts/internal/repository"
)

const uniqueViolationCode = "23505"

var accountColumns = map[string]string{
	"username": "username",
	"email":    "email",
}

// AccountRepository implements port.AccountRepository using PostgreSQL.
type AccountRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewAccountRepository wires a PostgreSQL-backed account repository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithExecutor returns a repository bound to the supplied executor, allowing
// tests and transactions to substitute the pool.
func (r *AccountRepository) WithExecutor(exec pgExecutor) *AccountRepository {
	if exec == nil {
		return r
	}
	return &AccountRepository{
		pool:    r.pool,
		exec:    exec,
		builder: r.builder,
	}
}

// Create inserts a new account row and returns it with the assigned
// sequential identifier. Uniqueness conflicts surface as
// *repository.UniqueViolationError keyed by the violated field.
func (r *AccountRepository) Create(ctx context.Context, account domain.Account) (*domain.Account, error) {
	stmt, args, err := r.builder.Insert("accounts").
		Columns(
			"username",
			"email",
			"password_hash",
			"is_active",
			"created_at",
			"state_changed_at",
		).
		Values(
			account.Username,
			account.Email,
			account.PasswordHash,
			account.IsActive,
			account.CreatedAt,
			account.StateChangedAt,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert account sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)
	if err := row.Scan(&account.ID); err != nil {
		if field, ok := uniqueViolationField(err); ok {
			return nil, &repository.UniqueViolationError{Field: field}
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}

	return &account, nil
}

// GetByID retrieves an account by its primary key.
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	stmt, args, err := r.selectAccounts().
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account sql: %w", err)
	}

	account, err := r.scanOne(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select account by id: %w", err)
	}
	return account, nil
}

// FindOneByField looks up an account by the named identity field, requiring
// exactly one match. Case folding uses LOWER() so the storage collation does
// not matter.
func (r *AccountRepository) FindOneByField(ctx context.Context, field, value string, fold bool) (*domain.Account, error) {
	column, ok := accountColumns[field]
	if !ok {
		return nil, fmt.Errorf("unknown identity field %q", field)
	}

	query := r.selectAccounts()
	if fold {
		query = query.Where(squirrel.Expr("LOWER("+column+") = LOWER(?)", value))
	} else {
		query = query.Where(squirrel.Eq{column: value})
	}

	stmt, args, err := query.Limit(2).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account by %s sql: %w", field, err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query account by %s: %w", field, err)
	}
	defer rows.Close()

	var matches []domain.Account
	for rows.Next() {
		var account domain.Account
		if err := rows.Scan(
			&account.ID,
			&account.Username,
			&account.Email,
			&account.PasswordHash,
			&account.IsActive,
			&account.CreatedAt,
			&account.StateChangedAt,
		); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		matches = append(matches, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	switch len(matches) {
	case 0:
		return nil, repository.ErrNotFound
	case 1:
		account := matches[0]
		return &account, nil
	default:
		return nil, repository.ErrAmbiguous
	}
}

// ExistsByField reports whether any account carries the given field value.
func (r *AccountRepository) ExistsByField(ctx context.Context, field, value string, fold bool) (bool, error) {
	column, ok := accountColumns[field]
	if !ok {
		return false, fmt.Errorf("unknown identity field %q", field)
	}

	query := r.builder.Select("1").From("accounts")
	if fold {
		query = query.Where(squirrel.Expr("LOWER("+column+") = LOWER(?)", value))
	} else {
		query = query.Where(squirrel.Eq{column: value})
	}

	stmt, args, err := query.Limit(1).ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists by %s sql: %w", field, err)
	}

	var one int
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query exists by %s: %w", field, err)
	}

	return true, nil
}

// SetActive updates the active flag and the state change timestamp.
func (r *AccountRepository) SetActive(ctx context.Context, id int64, active bool, changedAt time.Time) error {
	stmt, args, err := r.builder.Update("accounts").
		Set("is_active", active).
		Set("state_changed_at", changedAt).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update active flag sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update active flag: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UpdatePassword replaces the stored password hash atomically.
func (r *AccountRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string, changedAt time.Time) error {
	stmt, args, err := r.builder.Update("accounts").
		Set("password_hash", passwordHash).
		Set("state_changed_at", changedAt).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update password sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *AccountRepository) selectAccounts() squirrel.SelectBuilder {
	return r.builder.Select(
		"id",
		"username",
		"email",
		"password_hash",
		"is_active",
		"created_at",
		"state_changed_at",
	).From("accounts")
}

func (r *AccountRepository) scanOne(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	if err := row.Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.PasswordHash,
		&account.IsActive,
		&account.CreatedAt,
		&account.StateChangedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// uniqueViolationField maps a PostgreSQL unique violation to the identity
// field the conflicting constraint covers.
func uniqueViolationField(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolationCode {
		return "", false
	}

	constraint := strings.ToLower(pgErr.ConstraintName)
	for field := range accountColumns {
		if strings.Contains(constraint, field) {
			return field, true
		}
	}
	return "account", true
}

var _ port.AccountRepository = (*AccountRepository)(nil)

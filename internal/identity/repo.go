package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"jobboard/internal/apperr"
)

// Repository persists accounts in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes a new account. The unique index on lower(name) makes the
// duplicate check and the write a single atomic statement.
func (r *Repository) Insert(ctx context.Context, acct Account) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, name, credential_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (lower(name)) DO NOTHING
	`, acct.ID, acct.Name, acct.CredentialHash, acct.Role, acct.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", apperr.ErrDuplicateIdentity, acct.Name)
	}
	return nil
}

// GetByName returns the account registered under name, case-insensitively.
func (r *Repository) GetByName(ctx context.Context, name string) (Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, credential_hash, role, created_at
		FROM accounts WHERE lower(name) = lower($1)
	`, name)
	return scanAccount(row)
}

// GetByID returns the account with the given id.
func (r *Repository) GetByID(ctx context.Context, id string) (Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, credential_hash, role, created_at
		FROM accounts WHERE id = $1
	`, id)
	return scanAccount(row)
}

func scanAccount(row *sql.Row) (Account, error) {
	var acct Account
	if err := row.Scan(&acct.ID, &acct.Name, &acct.CredentialHash, &acct.Role, &acct.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, apperr.ErrNotFound
		}
		return Account{}, fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	return acct, nil
}

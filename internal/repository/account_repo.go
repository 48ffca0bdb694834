package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"kawanumkm/internal/database"
	"kawanumkm/internal/models"
)

const accountColumns = `id, name, email, password_hash, role, created_at, updated_at`

// AccountRepository handles database operations for accounts
type AccountRepository struct {
	db database.DBTX
}

// NewAccountRepository creates a new account repository bound to a
// connection or a transaction
func NewAccountRepository(db database.DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

func scanAccount(s scanner) (*models.Account, error) {
	account := &models.Account{}
	err := s.Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&account.PasswordHash,
		&account.Role,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return account, nil
}

// CreateAccount inserts a new account. The email must already be normalized.
func (r *AccountRepository) CreateAccount(ctx context.Context, name, email, passwordHash string, role models.Role) (*models.Account, error) {
	now := time.Now().UTC()
	query := `
		INSERT INTO accounts (name, email, password_hash, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, name, email, passwordHash, string(role), now, now)
	if err != nil {
		if r.db.GetDialect().IsUniqueViolation(err) {
			return nil, fmt.Errorf("failed to create account: %w", ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return &models.Account{
		ID:           id,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// GetAccountByEmail retrieves an account by email address
func (r *AccountRepository) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = ?`
	account, err := scanAccount(r.db.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// GetAccountByID retrieves an account by ID
func (r *AccountRepository) GetAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`
	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// LockAccount takes a row lock on the account for the rest of the enclosing
// transaction, serializing writers that act on the same account
func (r *AccountRepository) LockAccount(ctx context.Context, id int64) error {
	query := `SELECT id FROM accounts WHERE id = ?` + r.db.GetDialect().LockingClause()
	var locked int64
	err := r.db.QueryRowContext(ctx, query, id).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("lock account: %w", ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to lock account: %w", err)
	}
	return nil
}

// EmailTakenByOther reports whether another account already uses email
func (r *AccountRepository) EmailTakenByOther(ctx context.Context, email string, accountID int64) (bool, error) {
	var count int
	query := "SELECT COUNT(*) FROM accounts WHERE email = ? AND id <> ?"
	if err := r.db.QueryRowContext(ctx, query, email, accountID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return count > 0, nil
}

// UpdateProfile changes an account's display name and email
func (r *AccountRepository) UpdateProfile(ctx context.Context, id int64, name, email string) error {
	query := "UPDATE accounts SET name = ?, email = ?, updated_at = ? WHERE id = ?"
	result, err := r.db.ExecContext(ctx, query, name, email, time.Now().UTC(), id)
	if err != nil {
		if r.db.GetDialect().IsUniqueViolation(err) {
			return fmt.Errorf("failed to update profile: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return requireAffected(result, "update profile")
}

// UpdatePasswordHash replaces an account's password hash
func (r *AccountRepository) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	query := "UPDATE accounts SET password_hash = ?, updated_at = ? WHERE id = ?"
	result, err := r.db.ExecContext(ctx, query, passwordHash, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return requireAffected(result, "update password")
}

// UpdateRole changes an account's role
func (r *AccountRepository) UpdateRole(ctx context.Context, id int64, role models.Role) error {
	query := "UPDATE accounts SET role = ?, updated_at = ? WHERE id = ?"
	result, err := r.db.ExecContext(ctx, query, string(role), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	return requireAffected(result, "update role")
}

// CountNonAdmin returns the number of accounts that are not administrators
func (r *AccountRepository) CountNonAdmin(ctx context.Context) (int, error) {
	var count int
	query := "SELECT COUNT(*) FROM accounts WHERE role <> ?"
	if err := r.db.QueryRowContext(ctx, query, string(models.RoleAdmin)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return count, nil
}

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

// ResetTokenRepository stores password reset token digests
type ResetTokenRepository struct {
	db database.DBTX
}

// NewResetTokenRepository creates a new reset token repository
func NewResetTokenRepository(db database.DBTX) *ResetTokenRepository {
	return &ResetTokenRepository{db: db}
}

func scanResetToken(s scanner) (*models.ResetToken, error) {
	token := &models.ResetToken{}
	err := s.Scan(
		&token.ID,
		&token.AccountID,
		&token.TokenDigest,
		&token.ExpiresAt,
		&token.Used,
		&token.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return token, nil
}

// DeleteForAccount removes every reset token belonging to an account
func (r *ResetTokenRepository) DeleteForAccount(ctx context.Context, accountID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM password_reset_tokens WHERE account_id = ?", accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete reset tokens: %w", err)
	}
	return result.RowsAffected()
}

// CreateToken stores the digest of a newly issued token
func (r *ResetTokenRepository) CreateToken(ctx context.Context, accountID int64, digest string, expiresAt, createdAt time.Time) (*models.ResetToken, error) {
	query := `
		INSERT INTO password_reset_tokens (account_id, token_digest, expires_at, used, created_at)
		VALUES (?, ?, ?, FALSE, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, accountID, digest, expiresAt.UTC(), createdAt.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to create reset token: %w", err)
	}

	return &models.ResetToken{
		ID:          id,
		AccountID:   accountID,
		TokenDigest: digest,
		ExpiresAt:   expiresAt.UTC(),
		CreatedAt:   createdAt.UTC(),
	}, nil
}

// GetByDigest retrieves a token by its digest
func (r *ResetTokenRepository) GetByDigest(ctx context.Context, digest string) (*models.ResetToken, error) {
	query := `
		SELECT id, account_id, token_digest, expires_at, used, created_at
		FROM password_reset_tokens
		WHERE token_digest = ?
	`
	token, err := scanResetToken(r.db.QueryRowContext(ctx, query, digest))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reset token: %w", err)
	}
	return token, nil
}

// ListForAccount returns all stored tokens of an account, newest first
func (r *ResetTokenRepository) ListForAccount(ctx context.Context, accountID int64) ([]models.ResetToken, error) {
	query := `
		SELECT id, account_id, token_digest, expires_at, used, created_at
		FROM password_reset_tokens
		WHERE account_id = ?
		ORDER BY id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reset tokens: %w", err)
	}
	defer rows.Close()

	var tokens []models.ResetToken
	for rows.Next() {
		token, err := scanResetToken(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reset token: %w", err)
		}
		tokens = append(tokens, *token)
	}
	return tokens, rows.Err()
}

// MarkUsed flips the used flag if and only if it is still false. It reports
// whether this call performed the transition.
func (r *ResetTokenRepository) MarkUsed(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, "UPDATE password_reset_tokens SET used = TRUE WHERE id = ? AND used = FALSE", id)
	if err != nil {
		return false, fmt.Errorf("failed to mark reset token used: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

// DeleteExpiredOrUsed removes tokens that can no longer be redeemed
func (r *ResetTokenRepository) DeleteExpiredOrUsed(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM password_reset_tokens WHERE used = TRUE OR expires_at <= ?", now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired reset tokens: %w", err)
	}
	return result.RowsAffected()
}

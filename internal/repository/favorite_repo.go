package repository

import (
	"context"
	"fmt"
	"time"

	"kawanumkm/internal/database"
	"kawanumkm/internal/models"
)

// FavoriteRepository handles database operations for saved listings
type FavoriteRepository struct {
	db database.DBTX
}

// NewFavoriteRepository creates a new favorite repository
func NewFavoriteRepository(db database.DBTX) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// AddFavorite saves a listing for an account. It reports false when the
// listing was already saved.
func (r *FavoriteRepository) AddFavorite(ctx context.Context, accountID, businessID int64) (bool, error) {
	query := "INSERT INTO favorites (account_id, business_id, created_at) VALUES (?, ?, ?)"
	_, err := r.db.ExecContext(ctx, query, accountID, businessID, time.Now().UTC())
	if err != nil {
		if r.db.GetDialect().IsUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to add favorite: %w", err)
	}
	return true, nil
}

// RemoveFavorite deletes a saved listing
func (r *FavoriteRepository) RemoveFavorite(ctx context.Context, accountID, businessID int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM favorites WHERE account_id = ? AND business_id = ?", accountID, businessID)
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return requireAffected(result, "remove favorite")
}

// ListBusinesses returns the listings an account has saved, most recent first
func (r *FavoriteRepository) ListBusinesses(ctx context.Context, accountID int64) ([]models.Business, error) {
	query := businessSelect + `
		JOIN favorites f ON f.business_id = b.id
		WHERE f.account_id = ?
		ORDER BY f.created_at DESC, f.id DESC
	`
	return NewBusinessRepository(r.db).queryBusinesses(ctx, query, accountID)
}

// CountByAccount returns how many listings an account has saved
func (r *FavoriteRepository) CountByAccount(ctx context.Context, accountID int64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM favorites WHERE account_id = ?", accountID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count favorites: %w", err)
	}
	return n, nil
}

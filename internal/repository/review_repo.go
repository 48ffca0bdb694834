package repository

import (
	"context"
	"fmt"
	"time"

	"kawanumkm/internal/database"
	"kawanumkm/internal/models"
)

// ReviewRepository handles database operations for listing reviews
type ReviewRepository struct {
	db database.DBTX
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db database.DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// CreateReview stores a review. An account may review a listing only once.
func (r *ReviewRepository) CreateReview(ctx context.Context, businessID, accountID int64, rating int, comment string) (*models.Review, error) {
	now := time.Now().UTC()
	query := `
		INSERT INTO reviews (business_id, account_id, rating, comment, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, businessID, accountID, rating, comment, now)
	if err != nil {
		if r.db.GetDialect().IsUniqueViolation(err) {
			return nil, fmt.Errorf("failed to create review: %w", ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	return &models.Review{
		ID:         id,
		BusinessID: businessID,
		AccountID:  accountID,
		Rating:     rating,
		Comment:    comment,
		CreatedAt:  now,
	}, nil
}

// ListForBusiness returns the reviews of a listing, newest first
func (r *ReviewRepository) ListForBusiness(ctx context.Context, businessID int64) ([]models.Review, error) {
	query := `
		SELECT r.id, r.business_id, r.account_id, COALESCE(a.name, ''), r.rating, r.comment, r.created_at
		FROM reviews r
		LEFT JOIN accounts a ON a.id = r.account_id
		WHERE r.business_id = ?
		ORDER BY r.created_at DESC, r.id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		var review models.Review
		if err := rows.Scan(
			&review.ID,
			&review.BusinessID,
			&review.AccountID,
			&review.AccountName,
			&review.Rating,
			&review.Comment,
			&review.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

// CountByAccount returns how many reviews an account has written
func (r *ReviewRepository) CountByAccount(ctx context.Context, accountID int64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reviews WHERE account_id = ?", accountID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return n, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"kawanumkm/internal/database"
	"kawanumkm/internal/models"
)

const businessSelect = `
	SELECT b.id, b.owner_id, COALESCE(a.name, ''), COALESCE(a.email, ''),
	       b.name, b.category, b.description, b.image_path, b.latitude, b.longitude,
	       b.address, b.phone, b.hours, b.is_approved, b.created_at, b.updated_at
	FROM businesses b
	LEFT JOIN accounts a ON a.id = b.owner_id
`

// BusinessRepository handles database operations for UMKM listings
type BusinessRepository struct {
	db database.DBTX
}

// NewBusinessRepository creates a new business repository
func NewBusinessRepository(db database.DBTX) *BusinessRepository {
	return &BusinessRepository{db: db}
}

func scanBusiness(s scanner) (*models.Business, error) {
	b := &models.Business{}
	err := s.Scan(
		&b.ID,
		&b.OwnerID,
		&b.OwnerName,
		&b.OwnerEmail,
		&b.Name,
		&b.Category,
		&b.Description,
		&b.ImagePath,
		&b.Latitude,
		&b.Longitude,
		&b.Address,
		&b.Phone,
		&b.Hours,
		&b.IsApproved,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *BusinessRepository) queryBusinesses(ctx context.Context, query string, args ...any) ([]models.Business, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query businesses: %w", err)
	}
	defer rows.Close()

	businesses := []models.Business{}
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan business: %w", err)
		}
		businesses = append(businesses, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate businesses: %w", err)
	}
	return businesses, nil
}

// CreateBusiness inserts a new listing and fills in its ID and timestamps
func (r *BusinessRepository) CreateBusiness(ctx context.Context, b *models.Business) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO businesses (owner_id, name, category, description, image_path, latitude, longitude,
		                        address, phone, hours, is_approved, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		b.OwnerID, b.Name, b.Category, b.Description, b.ImagePath, b.Latitude, b.Longitude,
		b.Address, b.Phone, b.Hours, b.IsApproved, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create business: %w", err)
	}

	b.ID = id
	b.CreatedAt = now
	b.UpdatedAt = now
	return nil
}

// GetBusinessByID retrieves a listing regardless of approval state
func (r *BusinessRepository) GetBusinessByID(ctx context.Context, id int64) (*models.Business, error) {
	b, err := scanBusiness(r.db.QueryRowContext(ctx, businessSelect+" WHERE b.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get business: %w", err)
	}
	return b, nil
}

// ListApproved returns all approved listings, newest first
func (r *BusinessRepository) ListApproved(ctx context.Context) ([]models.Business, error) {
	return r.queryBusinesses(ctx, businessSelect+" WHERE b.is_approved = TRUE ORDER BY b.created_at DESC, b.id DESC")
}

// ListByOwner returns every listing owned by an account
func (r *BusinessRepository) ListByOwner(ctx context.Context, ownerID int64) ([]models.Business, error) {
	return r.queryBusinesses(ctx, businessSelect+" WHERE b.owner_id = ? ORDER BY b.created_at DESC, b.id DESC", ownerID)
}

// ListAll returns every listing for the admin dashboard
func (r *BusinessRepository) ListAll(ctx context.Context) ([]models.Business, error) {
	return r.queryBusinesses(ctx, businessSelect+" ORDER BY b.created_at DESC, b.id DESC")
}

// UpdateBusiness applies the non-nil fields of upd
func (r *BusinessRepository) UpdateBusiness(ctx context.Context, id int64, upd models.BusinessUpdate) error {
	var sets []string
	var args []any
	add := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Category != nil {
		add("category", *upd.Category)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.ImagePath != nil {
		add("image_path", *upd.ImagePath)
	}
	if upd.Latitude != nil {
		add("latitude", *upd.Latitude)
	}
	if upd.Longitude != nil {
		add("longitude", *upd.Longitude)
	}
	if upd.Address != nil {
		add("address", *upd.Address)
	}
	if upd.Phone != nil {
		add("phone", *upd.Phone)
	}
	if upd.Hours != nil {
		add("hours", *upd.Hours)
	}
	if len(sets) == 0 {
		return nil
	}
	add("updated_at", time.Now().UTC())
	args = append(args, id)

	query := "UPDATE businesses SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update business: %w", err)
	}
	return requireAffected(result, "update business")
}

// Approve marks a listing as approved
func (r *BusinessRepository) Approve(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "UPDATE businesses SET is_approved = TRUE, updated_at = ? WHERE id = ?", time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to approve business: %w", err)
	}
	return requireAffected(result, "approve business")
}

// CountAll returns the number of listings
func (r *BusinessRepository) CountAll(ctx context.Context) (int, error) {
	return r.count(ctx, "SELECT COUNT(*) FROM businesses")
}

// CountPending returns the number of listings awaiting approval
func (r *BusinessRepository) CountPending(ctx context.Context) (int, error) {
	return r.count(ctx, "SELECT COUNT(*) FROM businesses WHERE is_approved = FALSE")
}

// CountOwners returns the number of distinct accounts owning a listing
func (r *BusinessRepository) CountOwners(ctx context.Context) (int, error) {
	return r.count(ctx, "SELECT COUNT(DISTINCT owner_id) FROM businesses")
}

func (r *BusinessRepository) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count businesses: %w", err)
	}
	return n, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"kawanumkm/internal/database"
	"kawanumkm/internal/models"
	"kawanumkm/internal/repository"
	"kawanumkm/internal/security"
	"kawanumkm/internal/validation"
)

// DirectoryService manages UMKM listings, reviews and favorites
type DirectoryService struct {
	db  *database.DB
	log *zap.Logger
}

// NewDirectoryService creates a new directory service
func NewDirectoryService(db *database.DB, log *zap.Logger) *DirectoryService {
	return &DirectoryService{db: db, log: log.Named("directory")}
}

// BusinessInput holds the fields of a new listing
type BusinessInput struct {
	Name        string
	Category    string
	Description string
	ImagePath   string
	Latitude    *float64
	Longitude   *float64
	Address     string
	Phone       string
	Hours       string
}

// CreateBusiness adds a listing owned by the caller. Listings created by
// administrators are approved immediately; all others wait for review.
func (s *DirectoryService) CreateBusiness(ctx context.Context, id models.Identity, in BusinessInput) (*models.Business, error) {
	if !id.Role.CanManageListings() {
		return nil, security.ErrForbidden
	}
	if err := validation.ValidateBusiness(in.Name, in.Category, in.Latitude, in.Longitude); err != nil {
		return nil, err
	}

	b := &models.Business{
		OwnerID:     id.AccountID,
		Name:        strings.TrimSpace(in.Name),
		Category:    strings.TrimSpace(in.Category),
		Description: in.Description,
		ImagePath:   in.ImagePath,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Address:     in.Address,
		Phone:       in.Phone,
		Hours:       in.Hours,
		IsApproved:  id.Role == models.RoleAdmin,
	}
	if err := repository.NewBusinessRepository(s.db).CreateBusiness(ctx, b); err != nil {
		return nil, err
	}

	s.log.Info("listing created", zap.Int64("business_id", b.ID), zap.Int64("owner_id", b.OwnerID), zap.Bool("approved", b.IsApproved))
	return b, nil
}

// ListApproved returns the public directory
func (s *DirectoryService) ListApproved(ctx context.Context) ([]models.Business, error) {
	return repository.NewBusinessRepository(s.db).ListApproved(ctx)
}

// GetBusiness returns a listing if the viewer may see it. viewer is nil for
// anonymous requests.
func (s *DirectoryService) GetBusiness(ctx context.Context, businessID int64, viewer *models.Identity) (*models.Business, error) {
	b, err := repository.NewBusinessRepository(s.db).GetBusinessByID(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if b == nil || !b.VisibleTo(viewer) {
		return nil, fmt.Errorf("business %d: %w", businessID, ErrNotFound)
	}
	return b, nil
}

// ListMine returns the caller's own listings
func (s *DirectoryService) ListMine(ctx context.Context, id models.Identity) ([]models.Business, error) {
	if !id.Role.CanManageListings() {
		return nil, security.ErrForbidden
	}
	return repository.NewBusinessRepository(s.db).ListByOwner(ctx, id.AccountID)
}

// UpdateBusiness applies a partial update to a listing owned by the caller
func (s *DirectoryService) UpdateBusiness(ctx context.Context, id models.Identity, businessID int64, upd models.BusinessUpdate) (*models.Business, error) {
	businesses := repository.NewBusinessRepository(s.db)

	b, err := businesses.GetBusinessByID(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("business %d: %w", businessID, ErrNotFound)
	}
	if !b.CanBeEditedBy(id) {
		return nil, security.ErrForbidden
	}

	if upd.IsEmpty() {
		return nil, validation.ValidationError{Field: "body", Message: "no fields to update"}
	}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return nil, validation.ValidationError{Field: "name", Message: "name cannot be empty"}
	}
	if upd.Category != nil && strings.TrimSpace(*upd.Category) == "" {
		return nil, validation.ValidationError{Field: "category", Message: "category cannot be empty"}
	}
	if err := validation.ValidateCoordinates(upd.Latitude, upd.Longitude); err != nil {
		return nil, err
	}

	if err := businesses.UpdateBusiness(ctx, businessID, upd); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("business %d: %w", businessID, ErrNotFound)
		}
		return nil, err
	}
	return businesses.GetBusinessByID(ctx, businessID)
}

// CreateReview records the caller's rating of an approved listing
func (s *DirectoryService) CreateReview(ctx context.Context, id models.Identity, businessID int64, rating int, comment string) (*models.Review, error) {
	if err := validation.ValidateRating(rating); err != nil {
		return nil, err
	}
	if _, err := s.GetBusiness(ctx, businessID, nil); err != nil {
		return nil, err
	}

	review, err := repository.NewReviewRepository(s.db).CreateReview(ctx, businessID, id.AccountID, rating, strings.TrimSpace(comment))
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrAlreadyReviewed
	}
	if err != nil {
		return nil, err
	}
	return review, nil
}

// ListReviews returns the reviews of a listing
func (s *DirectoryService) ListReviews(ctx context.Context, businessID int64, viewer *models.Identity) ([]models.Review, error) {
	if _, err := s.GetBusiness(ctx, businessID, viewer); err != nil {
		return nil, err
	}
	return repository.NewReviewRepository(s.db).ListForBusiness(ctx, businessID)
}

// AddFavorite saves a visible listing for the caller. Saving twice is not an error.
func (s *DirectoryService) AddFavorite(ctx context.Context, id models.Identity, businessID int64) (bool, error) {
	if _, err := s.GetBusiness(ctx, businessID, &id); err != nil {
		return false, err
	}
	return repository.NewFavoriteRepository(s.db).AddFavorite(ctx, id.AccountID, businessID)
}

// RemoveFavorite removes a saved listing
func (s *DirectoryService) RemoveFavorite(ctx context.Context, id models.Identity, businessID int64) error {
	err := repository.NewFavoriteRepository(s.db).RemoveFavorite(ctx, id.AccountID, businessID)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("favorite %d: %w", businessID, ErrNotFound)
	}
	return err
}

// ListFavorites returns the caller's saved listings
func (s *DirectoryService) ListFavorites(ctx context.Context, id models.Identity) ([]models.Business, error) {
	return repository.NewFavoriteRepository(s.db).ListBusinesses(ctx, id.AccountID)
}

// ListAllBusinesses returns every listing, approved or not
func (s *DirectoryService) ListAllBusinesses(ctx context.Context) ([]models.Business, error) {
	return repository.NewBusinessRepository(s.db).ListAll(ctx)
}

// ApproveBusiness publishes a pending listing
func (s *DirectoryService) ApproveBusiness(ctx context.Context, businessID int64) error {
	err := repository.NewBusinessRepository(s.db).Approve(ctx, businessID)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("business %d: %w", businessID, ErrNotFound)
	}
	if err != nil {
		return err
	}
	s.log.Info("listing approved", zap.Int64("business_id", businessID))
	return nil
}

// Stats returns the admin dashboard totals
func (s *DirectoryService) Stats(ctx context.Context) (*models.AdminStats, error) {
	businesses := repository.NewBusinessRepository(s.db)

	users, err := repository.NewAccountRepository(s.db).CountNonAdmin(ctx)
	if err != nil {
		return nil, err
	}
	total, err := businesses.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := businesses.CountPending(ctx)
	if err != nil {
		return nil, err
	}
	owners, err := businesses.CountOwners(ctx)
	if err != nil {
		return nil, err
	}

	return &models.AdminStats{
		TotalUsers:        users,
		TotalBusinesses:   total,
		PendingBusinesses: pending,
		BusinessOwners:    owners,
	}, nil
}

package models

import "time"

// Business represents a UMKM listing in the directory
type Business struct {
	ID          int64
	OwnerID     int64
	OwnerName   string
	OwnerEmail  string
	Name        string
	Category    string
	Description string
	ImagePath   string
	Latitude    *float64
	Longitude   *float64
	Address     string
	Phone       string
	Hours       string
	IsApproved  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CanBeEditedBy reports whether the identity may update this listing
func (b *Business) CanBeEditedBy(id Identity) bool {
	return id.Role == RoleAdmin || b.OwnerID == id.AccountID
}

// VisibleTo reports whether the identity may see this listing. Unapproved
// listings are only visible to their owner and administrators.
func (b *Business) VisibleTo(id *Identity) bool {
	if b.IsApproved {
		return true
	}
	return id != nil && b.CanBeEditedBy(*id)
}

// BusinessUpdate carries the fields of a partial listing update. Nil fields
// are left unchanged.
type BusinessUpdate struct {
	Name        *string
	Category    *string
	Description *string
	ImagePath   *string
	Latitude    *float64
	Longitude   *float64
	Address     *string
	Phone       *string
	Hours       *string
}

// IsEmpty reports whether the update changes nothing
func (u BusinessUpdate) IsEmpty() bool {
	return u.Name == nil && u.Category == nil && u.Description == nil && u.ImagePath == nil &&
		u.Latitude == nil && u.Longitude == nil && u.Address == nil && u.Phone == nil && u.Hours == nil
}

// Review is a rating left by an account on a listing
type Review struct {
	ID          int64
	BusinessID  int64
	AccountID   int64
	AccountName string
	Rating      int
	Comment     string
	CreatedAt   time.Time
}

// Favorite marks a listing as saved by an account
type Favorite struct {
	ID         int64
	AccountID  int64
	BusinessID int64
	CreatedAt  time.Time
}

// AdminStats holds the directory totals shown on the admin dashboard
type AdminStats struct {
	TotalUsers        int
	TotalBusinesses   int
	PendingBusinesses int
	BusinessOwners    int
}

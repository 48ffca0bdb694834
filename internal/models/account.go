package models

import "time"

// Role is the authorization level carried by an account and its session tokens
type Role string

const (
	RoleStandard      Role = "standard"
	RoleBusinessOwner Role = "business-owner"
	RoleAdmin         Role = "admin"
)

// IsValid reports whether r is one of the known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleStandard, RoleBusinessOwner, RoleAdmin:
		return true
	}
	return false
}

// CanManageListings reports whether the role may create and edit business listings
func (r Role) CanManageListings() bool {
	return r == RoleBusinessOwner || r == RoleAdmin
}

// Account represents a registered user of the directory
type Account struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AccountProfile combines an account with its activity counts
type AccountProfile struct {
	Account       Account
	FavoriteCount int
	ReviewCount   int
}

// Identity is the verified caller behind a request. It is only produced by
// session token verification and is handed to protected handlers as a value.
type Identity struct {
	AccountID int64
	Email     string
	Role      Role
}

// HasRole reports whether the identity holds any of the given roles
func (i Identity) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

// ResetToken is the stored half of a password reset token. Only a digest of
// the raw token is persisted.
type ResetToken struct {
	ID          int64
	AccountID   int64
	TokenDigest string
	ExpiresAt   time.Time
	Used        bool
	CreatedAt   time.Time
}

// IsExpired checks if the reset token has expired at the given instant
func (t *ResetToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// IsActive reports whether the token can still be redeemed
func (t *ResetToken) IsActive(now time.Time) bool {
	return !t.Used && !t.IsExpired(now)
}

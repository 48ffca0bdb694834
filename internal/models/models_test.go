package models

import (
	"testing"
	"time"
)

func TestResetTokenIsExpired(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{
			name:      "future expiration",
			expiresAt: now.Add(1 * time.Hour),
			want:      false,
		},
		{
			name:      "expires exactly now",
			expiresAt: now,
			want:      true,
		},
		{
			name:      "expired yesterday",
			expiresAt: now.Add(-24 * time.Hour),
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := ResetToken{
				ID:        1,
				AccountID: 1,
				ExpiresAt: tt.expiresAt,
				CreatedAt: now.Add(-1 * time.Hour),
			}
			if got := token.IsExpired(now); got != tt.want {
				t.Errorf("ResetToken.IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResetTokenIsActive(t *testing.T) {
	now := time.Now()

	used := ResetToken{ExpiresAt: now.Add(time.Hour), Used: true}
	if used.IsActive(now) {
		t.Error("used token should not be active")
	}

	fresh := ResetToken{ExpiresAt: now.Add(time.Hour)}
	if !fresh.IsActive(now) {
		t.Error("unused, unexpired token should be active")
	}
}

func TestRoleIsValid(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleStandard, true},
		{RoleBusinessOwner, true},
		{RoleAdmin, true},
		{Role("umkm"), false},
		{Role(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if got := tt.role.IsValid(); got != tt.want {
				t.Errorf("Role(%q).IsValid() = %v, want %v", tt.role, got, tt.want)
			}
		})
	}
}

func TestIdentityHasRole(t *testing.T) {
	id := Identity{AccountID: 7, Role: RoleBusinessOwner}

	if !id.HasRole(RoleBusinessOwner, RoleAdmin) {
		t.Error("business owner should match business-owner or admin")
	}
	if id.HasRole(RoleAdmin) {
		t.Error("business owner should not match admin")
	}
	if id.HasRole() {
		t.Error("empty role set should never match")
	}
}

func TestBusinessVisibility(t *testing.T) {
	pending := Business{ID: 1, OwnerID: 10, IsApproved: false}
	owner := Identity{AccountID: 10, Role: RoleBusinessOwner}
	stranger := Identity{AccountID: 11, Role: RoleStandard}
	admin := Identity{AccountID: 1, Role: RoleAdmin}

	tests := []struct {
		name string
		id   *Identity
		want bool
	}{
		{"anonymous", nil, false},
		{"owner", &owner, true},
		{"stranger", &stranger, false},
		{"admin", &admin, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pending.VisibleTo(tt.id); got != tt.want {
				t.Errorf("VisibleTo() = %v, want %v", got, tt.want)
			}
		})
	}

	approved := Business{ID: 2, OwnerID: 10, IsApproved: true}
	if !approved.VisibleTo(nil) {
		t.Error("approved listing should be public")
	}
}

func TestBusinessUpdateIsEmpty(t *testing.T) {
	if !(BusinessUpdate{}).IsEmpty() {
		t.Error("zero update should be empty")
	}
	name := "Warung Baru"
	if (BusinessUpdate{Name: &name}).IsEmpty() {
		t.Error("update with a name should not be empty")
	}
}

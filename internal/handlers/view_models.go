package handlers

import (
	"fmt"
	"time"

	"kawanumkm/internal/models"
	"kawanumkm/internal/service"
)

var indonesianMonths = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// formatJoinDate renders a date the way the frontend shows it, e.g. "5 Maret 2024"
func formatJoinDate(t time.Time) string {
	if t.IsZero() {
		return "Tidak diketahui"
	}
	return fmt.Sprintf("%d %s %d", t.Day(), indonesianMonths[t.Month()-1], t.Year())
}

type UserView struct {
	ID    int64       `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

func newUserView(a *models.Account) UserView {
	return UserView{ID: a.ID, Name: a.Name, Email: a.Email, Role: a.Role}
}

type AuthResponse struct {
	Message   string   `json:"message"`
	Token     string   `json:"token"`
	ExpiresIn int64    `json:"expires_in"`
	User      UserView `json:"user"`
}

func newAuthResponse(message string, result *service.AuthResult) AuthResponse {
	return AuthResponse{
		Message:   message,
		Token:     result.Token,
		ExpiresIn: int64(result.ExpiresIn / time.Second),
		User:      newUserView(result.Account),
	}
}

type ProfileView struct {
	UserView
	JoinedDate    string    `json:"joined_date"`
	FavoriteCount int       `json:"favorite_count"`
	ReviewCount   int       `json:"review_count"`
	CreatedAt     time.Time `json:"created_at"`
}

func newProfileView(p *models.AccountProfile) ProfileView {
	return ProfileView{
		UserView:      newUserView(&p.Account),
		JoinedDate:    formatJoinDate(p.Account.CreatedAt),
		FavoriteCount: p.FavoriteCount,
		ReviewCount:   p.ReviewCount,
		CreatedAt:     p.Account.CreatedAt,
	}
}

type ProfileUpdateResponse struct {
	Message string      `json:"message"`
	User    ProfileView `json:"user"`
}

type CheckResetTokenResponse struct {
	Valid bool `json:"valid"`
}

type BusinessView struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	OwnerName   string    `json:"owner_name"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	ImagePath   string    `json:"image_path"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
	Address     string    `json:"address"`
	Phone       string    `json:"phone"`
	Hours       string    `json:"hours"`
	IsApproved  bool      `json:"is_approved"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newBusinessView(b *models.Business) BusinessView {
	return BusinessView{
		ID:          b.ID,
		OwnerID:     b.OwnerID,
		OwnerName:   b.OwnerName,
		Name:        b.Name,
		Category:    b.Category,
		Description: b.Description,
		ImagePath:   b.ImagePath,
		Latitude:    b.Latitude,
		Longitude:   b.Longitude,
		Address:     b.Address,
		Phone:       b.Phone,
		Hours:       b.Hours,
		IsApproved:  b.IsApproved,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func newBusinessViews(list []models.Business) []BusinessView {
	views := make([]BusinessView, 0, len(list))
	for i := range list {
		views = append(views, newBusinessView(&list[i]))
	}
	return views
}

// AdminBusinessView adds the owner's contact address for moderators
type AdminBusinessView struct {
	BusinessView
	OwnerEmail string `json:"owner_email"`
}

func newAdminBusinessViews(list []models.Business) []AdminBusinessView {
	views := make([]AdminBusinessView, 0, len(list))
	for i := range list {
		views = append(views, AdminBusinessView{
			BusinessView: newBusinessView(&list[i]),
			OwnerEmail:   list[i].OwnerEmail,
		})
	}
	return views
}

type BusinessCreatedResponse struct {
	Message  string       `json:"message"`
	ID       int64        `json:"id"`
	Business BusinessView `json:"umkm"`
}

type BusinessUpdatedResponse struct {
	Message  string       `json:"message"`
	Business BusinessView `json:"umkm"`
}

type ReviewView struct {
	ID         int64     `json:"id"`
	BusinessID int64     `json:"umkm_id"`
	UserID     int64     `json:"user_id"`
	UserName   string    `json:"user_name"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

func newReviewView(r *models.Review) ReviewView {
	return ReviewView{
		ID:         r.ID,
		BusinessID: r.BusinessID,
		UserID:     r.AccountID,
		UserName:   r.AccountName,
		Rating:     r.Rating,
		Comment:    r.Comment,
		CreatedAt:  r.CreatedAt,
	}
}

type ReviewCreatedResponse struct {
	Message string     `json:"message"`
	Review  ReviewView `json:"review"`
}

type StatsView struct {
	TotalUsers        int `json:"totalUsers"`
	TotalBusinesses   int `json:"totalUMKM"`
	PendingBusinesses int `json:"pendingUMKM"`
	BusinessOwners    int `json:"umkmOwners"`
}

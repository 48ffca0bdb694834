package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"kawanumkm/internal/models"
)

// Routes bundles the handlers served by the API
type Routes struct {
	Middleware *Middleware
	Auth       *AuthHandler
	Business   *BusinessHandler
	Admin      *AdminHandler
	Health     *HealthHandler

	AllowedOrigins []string
}

// NewRouter registers every route and wraps the mux with CORS and request logging
func NewRouter(rt Routes, log *zap.Logger) http.Handler {
	m := rt.Middleware
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{
			"message": "Kawan UMKM Backend API",
			"status":  "running",
		})
	})
	mux.HandleFunc("GET /health", rt.Health.Health)
	mux.HandleFunc("GET /api/health", rt.Health.Liveness)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Authentication
	mux.HandleFunc("POST /api/register", m.RateLimit(rt.Auth.Register))
	mux.HandleFunc("POST /api/login", m.RateLimit(rt.Auth.Login))
	mux.HandleFunc("POST /api/forgot-password", m.RateLimit(rt.Auth.ForgotPassword))
	mux.HandleFunc("POST /api/reset-password", rt.Auth.ResetPassword)
	mux.HandleFunc("GET /api/check-reset-token", rt.Auth.CheckResetToken)
	mux.HandleFunc("GET /api/check-reset-token/{token}", rt.Auth.CheckResetToken)

	// Account
	mux.HandleFunc("GET /api/user/profile", m.RequireAuth(rt.Auth.Profile))
	mux.HandleFunc("PUT /api/profile", m.RequireAuth(rt.Auth.UpdateProfile))
	mux.HandleFunc("POST /api/change-password", m.RequireAuth(rt.Auth.ChangePassword))

	// Directory
	mux.HandleFunc("GET /api/umkm", rt.Business.List)
	mux.HandleFunc("POST /api/umkm", m.RequireRole(rt.Business.Create, models.RoleBusinessOwner, models.RoleAdmin))
	mux.HandleFunc("GET /api/umkm/{id}", m.OptionalAuth(rt.Business.Get))
	mux.HandleFunc("PUT /api/umkm/{id}", m.RequireAuth(rt.Business.Update))
	mux.HandleFunc("GET /api/umkm/{id}/reviews", m.OptionalAuth(rt.Business.ListReviews))
	mux.HandleFunc("POST /api/umkm/{id}/reviews", m.RequireAuth(rt.Business.CreateReview))
	mux.HandleFunc("GET /api/my-umkm", m.RequireRole(rt.Business.ListMine, models.RoleBusinessOwner, models.RoleAdmin))

	// Favorites
	mux.HandleFunc("GET /api/favorites", m.RequireAuth(rt.Business.ListFavorites))
	mux.HandleFunc("POST /api/favorites/{id}", m.RequireAuth(rt.Business.AddFavorite))
	mux.HandleFunc("DELETE /api/favorites/{id}", m.RequireAuth(rt.Business.RemoveFavorite))

	// Admin
	mux.HandleFunc("GET /api/admin/umkm", m.RequireAdmin(rt.Admin.ListBusinesses))
	mux.HandleFunc("PUT /api/admin/umkm/{id}/approve", m.RequireAdmin(rt.Admin.ApproveBusiness))
	mux.HandleFunc("GET /api/admin/stats", m.RequireAdmin(rt.Admin.Stats))

	c := cors.New(cors.Options{
		AllowedOrigins:   rt.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
	})

	return Logging(log, c.Handler(mux))
}

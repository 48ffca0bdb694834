package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"kawanumkm/internal/models"
	"kawanumkm/internal/service"
)

// AdminHandler handles admin-specific routes
type AdminHandler struct {
	directory *service.DirectoryService
	log       *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(directory *service.DirectoryService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{
		directory: directory,
		log:       log.Named("admin"),
	}
}

// ListBusinesses returns every listing, pending ones included
func (h *AdminHandler) ListBusinesses(w http.ResponseWriter, r *http.Request, _ models.Identity) {
	list, err := h.directory.ListAllBusinesses(r.Context())
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, newAdminBusinessViews(list))
}

// ApproveBusiness publishes a pending listing
func (h *AdminHandler) ApproveBusiness(w http.ResponseWriter, r *http.Request, id models.Identity) {
	businessID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}

	if err := h.directory.ApproveBusiness(r.Context(), businessID); err != nil {
		respondWithError(w, r, h.log, err)
		return
	}

	h.log.Info("listing approved by admin", zap.Int64("business_id", businessID), zap.Int64("admin_id", id.AccountID))
	respondJSON(w, http.StatusOK, messageResponse{Message: "UMKM approved successfully"})
}

// Stats returns the dashboard totals
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request, _ models.Identity) {
	stats, err := h.directory.Stats(r.Context())
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, StatsView{
		TotalUsers:        stats.TotalUsers,
		TotalBusinesses:   stats.TotalBusinesses,
		PendingBusinesses: stats.PendingBusinesses,
		BusinessOwners:    stats.BusinessOwners,
	})
}

package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"kawanumkm/internal/models"
	"kawanumkm/internal/service"
)

// BusinessHandler handles UMKM listing, review and favorite requests
type BusinessHandler struct {
	directory *service.DirectoryService
	log       *zap.Logger
}

// NewBusinessHandler creates a new business handler
func NewBusinessHandler(directory *service.DirectoryService, log *zap.Logger) *BusinessHandler {
	return &BusinessHandler{
		directory: directory,
		log:       log.Named("umkm"),
	}
}

// List returns all approved listings
func (h *BusinessHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.directory.ListApproved(r.Context())
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, newBusinessViews(list))
}

// Get returns one listing. Pending listings are only shown to their owner
// and administrators.
func (h *BusinessHandler) Get(w http.ResponseWriter, r *http.Request, viewer *models.Identity) {
	businessID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}

	b, err := h.directory.GetBusiness(r.Context(), businessID, viewer)
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, newBusinessView(b))
}

type createBusinessRequest struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	ImagePath   string   `json:"image_path"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Address     string   `json:"address"`
	Phone       string   `json:"phone"`
	Hours       string   `json:"hours"`
}

// Create adds a listing owned by the caller
func (h *BusinessHandler) Create(w http.ResponseWriter, r *http.Request, id models.Identity) {
	var req createBusinessRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, h.log, err)
		return
	}

	b, err := h.directory.CreateBusiness(r.Context(), id, service.BusinessInput{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		ImagePath:   req.ImagePath,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Address:     req.Address,
		Phone:       req.Phone,
		Hours:       req.Hours,
	})
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusCreated, BusinessCreatedResponse{
		Message:  "UMKM created successfully",
		ID:       b.ID,
		Business: newBusinessView(b),
	})
}

// ListMine returns the caller's own listings, including pending ones
func (h *BusinessHandler) ListMine(w http.ResponseWriter, r *http.Request, id models.Identity) {
	list, err := h.directory.ListMine(r.Context(), id)
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, newBusinessViews(list))
}

type updateBusinessRequest struct {
	Name        *string  `json:"name"`
	Category    *string  `json:"category"`
	Description *string  `json:"description"`
	ImagePath   *string  `json:"image_path"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Address     *string  `json:"address"`
	Phone       *string  `json:"phone"`
	Hours       *string  `json:"hours"`
}

// Update applies a partial update to a listing
func (h *BusinessHandler) Update(w http.ResponseWriter, r *http.Request, id models.Identity) {
	businessID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}

	var req updateBusinessRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, h.log, err)
		return
	}

	b, err := h.directory.UpdateBusiness(r.Context(), id, businessID, models.BusinessUpdate(req))
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, BusinessUpdatedResponse{Message: "UMKM updated successfully", Business: newBusinessView(b)})
}

// ListReviews returns the reviews of a listing
func (h *BusinessHandler) ListReviews(w http.ResponseWriter, r *http.Request, viewer *models.Identity) {
	businessID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}

	reviews, err := h.directory.ListReviews(r.Context(), businessID, viewer)
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}

	views := make([]ReviewView, 0, len(reviews))
	for i := range reviews {
		views = append(views, newReviewView(&reviews[i]))
	}
	respondJSON(w, http.StatusOK, views)
}

type createReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// CreateReview records the caller's review of a listing
func (h *BusinessHandler) CreateReview(w http.ResponseWriter, r *http.Request, id models.Identity) {
	businessID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}

	var req createReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, h.log, err)
		return
	}

	review, err := h.directory.CreateReview(r.Context(), id, businessID, req.Rating, req.Comment)
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusCreated, ReviewCreatedResponse{Message: "Review added successfully", Review: newReviewView(review)})
}

// ListFavorites returns the caller's saved listings
func (h *BusinessHandler) ListFavorites(w http.ResponseWriter, r *http.Request, id models.Identity) {
	list, err := h.directory.ListFavorites(r.Context(), id)
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, newBusinessViews(list))
}

// AddFavorite saves a listing for the caller
func (h *BusinessHandler) AddFavorite(w http.ResponseWriter, r *http.Request, id models.Identity) {
	businessID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}

	added, err := h.directory.AddFavorite(r.Context(), id, businessID)
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}

	msg := "Added to favorites"
	if !added {
		msg = "Already in favorites"
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: msg})
}

// RemoveFavorite removes a saved listing
func (h *BusinessHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request, id models.Identity) {
	businessID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}

	if err := h.directory.RemoveFavorite(r.Context(), id, businessID); err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Removed from favorites"})
}

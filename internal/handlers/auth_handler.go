package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"kawanumkm/internal/models"
	"kawanumkm/internal/service"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService  *service.AuthService
	resetService *service.PasswordResetService
	log          *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, resetService *service.PasswordResetService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		resetService: resetService,
		log:          log.Named("auth"),
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Register creates an account and returns its session token
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, h.log, err)
		return
	}

	result, err := h.authService.Register(r.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusCreated, newAuthResponse("User registered successfully", result))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a session token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, h.log, err)
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, newAuthResponse("Login successful", result))
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword starts a password reset. The response is the same whether or
// not the email belongs to an account.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, h.log, err)
		return
	}

	if err := h.resetService.RequestReset(r.Context(), req.Email); err != nil {
		respondWithError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, messageResponse{Message: MsgResetRequested})
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ResetPassword sets a new password using a reset token
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, h.log, err)
		return
	}

	if err := h.resetService.RedeemResetToken(r.Context(), req.Token, req.NewPassword); err != nil {
		respondWithError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, messageResponse{Message: "Password has been reset successfully"})
}

// CheckResetToken reports whether a reset token can still be redeemed. The
// token comes from the path or the "token" query parameter.
func (h *AuthHandler) CheckResetToken(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		token = r.URL.Query().Get("token")
	}

	_, valid, err := h.resetService.VerifyResetToken(r.Context(), token)
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, CheckResetTokenResponse{Valid: valid})
}

// Profile returns the caller's account
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request, id models.Identity) {
	profile, err := h.authService.Profile(r.Context(), id)
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, newProfileView(profile))
}

type updateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdateProfile changes the caller's name and email
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request, id models.Identity) {
	var req updateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, h.log, err)
		return
	}

	profile, err := h.authService.UpdateProfile(r.Context(), id, req.Name, req.Email)
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, ProfileUpdateResponse{Message: "Profile updated successfully", User: newProfileView(profile)})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword replaces the caller's password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request, id models.Identity) {
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, h.log, err)
		return
	}

	if err := h.authService.ChangePassword(r.Context(), id, req.CurrentPassword, req.NewPassword); err != nil {
		respondWithError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, messageResponse{Message: "Password changed successfully"})
}

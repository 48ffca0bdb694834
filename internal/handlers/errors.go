package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"kawanumkm/internal/security"
	"kawanumkm/internal/service"
	"kawanumkm/internal/validation"
)

// errorResponse is the body of every failed request
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// apiError is a classified failure ready to be written to the client
type apiError struct {
	Status  int
	Code    string
	Message string
}

// classifyError maps a service error to a status, stable code and client
// message. Unknown errors become a generic 500.
func classifyError(err error) apiError {
	var vErr validation.ValidationError
	switch {
	case errors.As(err, &vErr):
		return apiError{http.StatusBadRequest, CodeValidation, vErr.Error()}
	case errors.Is(err, service.ErrEmailTaken):
		return apiError{http.StatusBadRequest, CodeEmailExists, "Email already exists"}
	case errors.Is(err, service.ErrInvalidCredentials):
		return apiError{http.StatusUnauthorized, CodeInvalidCredentials, "Invalid email or password"}
	case errors.Is(err, security.ErrMissingToken):
		return apiError{http.StatusUnauthorized, CodeMissingToken, "Token is missing"}
	case errors.Is(err, security.ErrExpiredToken):
		return apiError{http.StatusUnauthorized, CodeTokenExpired, "Token has expired"}
	case errors.Is(err, security.ErrInvalidToken):
		return apiError{http.StatusUnauthorized, CodeInvalidToken, "Invalid token"}
	case errors.Is(err, security.ErrForbidden):
		return apiError{http.StatusForbidden, CodeForbidden, "You do not have permission to perform this action"}
	case errors.Is(err, service.ErrResetTokenInvalid):
		return apiError{http.StatusBadRequest, CodeInvalidResetToken, ErrInvalidResetToken}
	case errors.Is(err, service.ErrAlreadyReviewed):
		return apiError{http.StatusBadRequest, CodeAlreadyReviewed, "You have already reviewed this UMKM"}
	case errors.Is(err, service.ErrNotFound):
		return apiError{http.StatusNotFound, CodeNotFound, "Not found"}
	default:
		return apiError{http.StatusInternalServerError, CodeInternal, ErrInternalServerError}
	}
}

// respondWithError writes a classified error. Server-side failures are logged
// with their cause, which is never sent to the client.
func respondWithError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	apiErr := classifyError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", RequestIDFromContext(r.Context())),
			zap.Error(err),
		)
	}
	writeError(w, apiErr.Status, apiErr.Code, apiErr.Message)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// messageResponse is the body of requests that only confirm an action
type messageResponse struct {
	Message string `json:"message"`
}

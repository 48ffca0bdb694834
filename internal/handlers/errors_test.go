package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"kawanumkm/internal/security"
	"kawanumkm/internal/service"
	"kawanumkm/internal/validation"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", validation.ValidationError{Field: "email", Message: "email is required"}, http.StatusBadRequest, CodeValidation},
		{"email taken", service.ErrEmailTaken, http.StatusBadRequest, CodeEmailExists},
		{"bad credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, CodeInvalidCredentials},
		{"missing token", security.ErrMissingToken, http.StatusUnauthorized, CodeMissingToken},
		{"invalid token", fmt.Errorf("%w: signature is invalid", security.ErrInvalidToken), http.StatusUnauthorized, CodeInvalidToken},
		{"expired token", security.ErrExpiredToken, http.StatusUnauthorized, CodeTokenExpired},
		{"forbidden", security.ErrForbidden, http.StatusForbidden, CodeForbidden},
		{"reset not found", service.ErrTokenNotFound, http.StatusBadRequest, CodeInvalidResetToken},
		{"reset expired", service.ErrTokenExpired, http.StatusBadRequest, CodeInvalidResetToken},
		{"reset used", service.ErrTokenAlreadyUsed, http.StatusBadRequest, CodeInvalidResetToken},
		{"not found", fmt.Errorf("business 7: %w", service.ErrNotFound), http.StatusNotFound, CodeNotFound},
		{"already reviewed", service.ErrAlreadyReviewed, http.StatusBadRequest, CodeAlreadyReviewed},
		{"account missing on redeem", fmt.Errorf("failed to redeem: %w", service.ErrAccountNotFound), http.StatusInternalServerError, CodeInternal},
		{"unknown", errors.New("disk full"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(tt.err)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.code, got.Code)
		})
	}
}

func TestResetTokenFailuresShareOneMessage(t *testing.T) {
	a := classifyError(service.ErrTokenNotFound)
	b := classifyError(service.ErrTokenExpired)
	c := classifyError(service.ErrTokenAlreadyUsed)
	assert.Equal(t, a, b)
	assert.Equal(t, b, c)
}

func TestRespondWithErrorHidesInternalCause(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/umkm", nil)

	respondWithError(w, r, zaptest.NewLogger(t), errors.New("pq: connection refused to 10.0.0.5"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	raw := w.Body.String()
	assert.NotContains(t, raw, "10.0.0.5")

	var body errorResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &body))
	assert.Equal(t, ErrInternalServerError, body.Error)
	assert.Equal(t, CodeInternal, body.Code)
}

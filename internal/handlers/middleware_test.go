package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"kawanumkm/internal/models"
	"kawanumkm/internal/security"
)

type gateClock struct{ now time.Time }

func (c *gateClock) Now() time.Time { return c.now }

func newGate(t *testing.T) (*Middleware, *security.TokenIssuer, *gateClock) {
	t.Helper()
	clock := &gateClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	tokens, err := security.NewTokenIssuer("gate-secret", 7*24*time.Hour, security.WithClock(clock.Now))
	require.NoError(t, err)
	limiter := security.NewRateLimiter(2, time.Minute)
	t.Cleanup(limiter.Stop)
	return NewMiddleware(tokens, limiter, zaptest.NewLogger(t)), tokens, clock
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// tamper changes one character inside the token's signature
func tamper(token string) string {
	b := []byte(token)
	i := len(b) - 10
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}
	return string(b)
}

func TestRequireAuth(t *testing.T) {
	m, tokens, clock := newGate(t)

	valid, err := tokens.Issue(7, "siti@example.com", models.RoleStandard)
	require.NoError(t, err)

	var seen models.Identity
	h := m.RequireAuth(func(w http.ResponseWriter, r *http.Request, id models.Identity) {
		seen = id
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{"missing header", "", http.StatusUnauthorized, CodeMissingToken},
		{"bearer without token", "Bearer ", http.StatusUnauthorized, CodeMissingToken},
		{"garbage", "Bearer not.a.jwt", http.StatusUnauthorized, CodeInvalidToken},
		{"tampered", "Bearer " + tamper(valid), http.StatusUnauthorized, CodeInvalidToken},
		{"bearer", "Bearer " + valid, http.StatusNoContent, ""},
		{"lowercase scheme", "bearer " + valid, http.StatusNoContent, ""},
		{"bare token", valid, http.StatusNoContent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h(w, r)

			require.Equal(t, tt.status, w.Code)
			if tt.code != "" {
				assert.Equal(t, tt.code, decodeError(t, w).Code)
			} else {
				assert.Equal(t, int64(7), seen.AccountID)
				assert.Equal(t, models.RoleStandard, seen.Role)
			}
		})
	}

	t.Run("expired", func(t *testing.T) {
		clock.now = clock.now.Add(7*24*time.Hour + time.Second)
		t.Cleanup(func() { clock.now = clock.now.Add(-(7*24*time.Hour + time.Second)) })

		r := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
		r.Header.Set("Authorization", "Bearer "+valid)
		w := httptest.NewRecorder()
		h(w, r)

		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, CodeTokenExpired, decodeError(t, w).Code)
	})
}

func TestRequireRole(t *testing.T) {
	m, tokens, _ := newGate(t)

	h := m.RequireAdmin(func(w http.ResponseWriter, r *http.Request, id models.Identity) {
		w.WriteHeader(http.StatusNoContent)
	})

	standard, err := tokens.Issue(1, "a@example.com", models.RoleStandard)
	require.NoError(t, err)
	admin, err := tokens.Issue(2, "b@example.com", models.RoleAdmin)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	r.Header.Set("Authorization", "Bearer "+standard)
	w := httptest.NewRecorder()
	h(w, r)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, CodeForbidden, decodeError(t, w).Code)

	r = httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	w = httptest.NewRecorder()
	h(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "authentication is checked before role")

	r = httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	r.Header.Set("Authorization", "Bearer "+admin)
	w = httptest.NewRecorder()
	h(w, r)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestOptionalAuth(t *testing.T) {
	m, tokens, _ := newGate(t)
	token, err := tokens.Issue(3, "c@example.com", models.RoleBusinessOwner)
	require.NoError(t, err)

	var got *models.Identity
	h := m.OptionalAuth(func(w http.ResponseWriter, r *http.Request, id *models.Identity) {
		got = id
	})

	r := httptest.NewRequest(http.MethodGet, "/api/umkm/1", nil)
	h(httptest.NewRecorder(), r)
	assert.Nil(t, got)

	r.Header.Set("Authorization", "Bearer broken")
	h(httptest.NewRecorder(), r)
	assert.Nil(t, got)

	r.Header.Set("Authorization", "Bearer "+token)
	h(httptest.NewRecorder(), r)
	require.NotNil(t, got)
	assert.Equal(t, int64(3), got.AccountID)
}

func TestRateLimit(t *testing.T) {
	m, _, _ := newGate(t)
	h := m.RateLimit(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	call := func(ip string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/api/login", nil)
		r.RemoteAddr = ip + ":5555"
		w := httptest.NewRecorder()
		h(w, r)
		return w
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, call("10.0.0.1").Code)

	w := call("10.0.0.1")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))
	assert.Equal(t, CodeRateLimited, decodeError(t, w).Code)

	assert.Equal(t, http.StatusOK, call("10.0.0.2").Code, "limits are per client")
}

func TestRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	m, _, _ := newGate(t)
	h := m.RateLimit(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 1; i <= 3; i++ {
		r := httptest.NewRequest(http.MethodPost, "/api/login", nil)
		r.RemoteAddr = "10.0.0.9:5555"
		r.Header.Set("X-Forwarded-For", "203.0.113."+strconv.Itoa(i))
		w := httptest.NewRecorder()
		h(w, r)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestLoggingSetsRequestID(t *testing.T) {
	var inner string
	h := Logging(zaptest.NewLogger(t), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	r := httptest.NewRequest(http.MethodGet, "/anything", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.NotEmpty(t, inner)
	assert.Equal(t, inner, w.Header().Get(RequestIDHeader))

	r = httptest.NewRequest(http.MethodGet, "/anything", nil)
	r.Header.Set(RequestIDHeader, "client-chosen")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, "client-chosen", inner)
}

func TestStartupStatus(t *testing.T) {
	s := NewStartupStatus(StepDatabase, StepMigrations, StepServices, StepServer)
	assert.False(t, s.IsReady())

	s.CompleteStep(StepDatabase)
	assert.Equal(t, 25, s.snapshot().Progress)
	s.CompleteStep("unknown step")
	assert.Equal(t, 25, s.snapshot().Progress)

	s.MarkReady()
	assert.True(t, s.IsReady())
	assert.Equal(t, 100, s.snapshot().Progress)
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"kawanumkm/internal/metrics"
	"kawanumkm/internal/models"
	"kawanumkm/internal/security"
)

// AuthedHandlerFunc is a handler that runs only after the caller's session
// token has been verified
type AuthedHandlerFunc func(w http.ResponseWriter, r *http.Request, id models.Identity)

// OptionalAuthHandlerFunc is a handler on a public route that may still be
// called with a valid session token. id is nil for anonymous callers.
type OptionalAuthHandlerFunc func(w http.ResponseWriter, r *http.Request, id *models.Identity)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	tokens  *security.TokenIssuer
	limiter *security.RateLimiter
	log     *zap.Logger
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(tokens *security.TokenIssuer, limiter *security.RateLimiter, log *zap.Logger) *Middleware {
	return &Middleware{
		tokens:  tokens,
		limiter: limiter,
		log:     log.Named("http"),
	}
}

// authenticate resolves the identity carried by the request's Authorization header
func (m *Middleware) authenticate(r *http.Request) (models.Identity, error) {
	token, err := security.ParseAuthorizationHeader(r.Header.Get("Authorization"))
	if err != nil {
		return models.Identity{}, err
	}
	return m.tokens.Verify(token)
}

// RequireAuth is middleware that requires a valid session token
func (m *Middleware) RequireAuth(next AuthedHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := m.authenticate(r)
		if err != nil {
			m.reject(w, r, err)
			return
		}
		next(w, r, id)
	}
}

// RequireRole is middleware that requires a valid session token whose role is
// one of roles
func (m *Middleware) RequireRole(next AuthedHandlerFunc, roles ...models.Role) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request, id models.Identity) {
		if !id.HasRole(roles...) {
			m.reject(w, r, security.ErrForbidden)
			return
		}
		next(w, r, id)
	})
}

// RequireAdmin is middleware that requires an administrator session
func (m *Middleware) RequireAdmin(next AuthedHandlerFunc) http.HandlerFunc {
	return m.RequireRole(next, models.RoleAdmin)
}

// OptionalAuth passes the caller's identity when a valid token is present.
// Missing or unusable tokens make the request anonymous rather than failing it.
func (m *Middleware) OptionalAuth(next OptionalAuthHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			next(w, r, nil)
			return
		}
		id, err := m.authenticate(r)
		if err != nil {
			next(w, r, nil)
			return
		}
		next(w, r, &id)
	}
}

func (m *Middleware) reject(w http.ResponseWriter, r *http.Request, err error) {
	reason := rejectionReason(err)
	metrics.TokenRejectionsTotal.WithLabelValues(reason).Inc()
	m.log.Debug("request rejected by authorization gate",
		zap.String("reason", reason),
		zap.String("path", r.URL.Path),
		zap.String("request_id", RequestIDFromContext(r.Context())),
	)
	respondWithError(w, r, m.log, err)
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, security.ErrMissingToken):
		return "missing"
	case errors.Is(err, security.ErrExpiredToken):
		return "expired"
	case errors.Is(err, security.ErrForbidden):
		return "forbidden"
	default:
		return "invalid"
	}
}

// RateLimit is middleware that limits requests per client IP
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := m.limiter.ClientIP(r)
		if !m.limiter.Allow(ip) {
			m.log.Warn("rate limit exceeded", zap.String("ip", ip), zap.String("path", r.URL.Path))
			w.Header().Set("Retry-After", strconv.Itoa(m.limiter.RetryAfter()))
			writeError(w, http.StatusTooManyRequests, CodeRateLimited, ErrTooManyRequests)
			return
		}
		next(w, r)
	}
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

// Logging middleware assigns a request id, logs HTTP requests and records
// request metrics by route pattern
func Logging(log *zap.Logger, next http.Handler) http.Handler {
	log = log.Named("http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		r = withRequestID(w, r)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		// Call next handler
		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPRequestDurationSeconds.WithLabelValues(r.Method, route).Observe(duration.Seconds())

		// Log request
		log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", duration),
			zap.String("request_id", RequestIDFromContext(r.Context())),
		)
	})
}

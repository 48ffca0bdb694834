package security

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllowsBurstThenBlocks(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	defer rl.Stop()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return base }

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "request %d should pass", i+1)
	}
	assert.False(t, rl.Allow("10.0.0.1"))

	// Other clients have their own bucket
	assert.True(t, rl.Allow("10.0.0.2"))

	// One token refills every window/requests
	rl.now = func() time.Time { return base.Add(21 * time.Second) }
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
}

func TestRateLimiterSweep(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Stop()

	base := time.Now()
	rl.now = func() time.Time { return base }
	rl.Allow("10.0.0.1")

	rl.now = func() time.Time { return base.Add(3 * time.Minute) }
	rl.sweep()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Empty(t, rl.visitors)
}

func TestRetryAfter(t *testing.T) {
	rl := NewRateLimiter(10, time.Minute)
	defer rl.Stop()
	assert.Equal(t, 6, rl.RetryAfter())
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		realIP     string
		forwarded  string
		trustProxy bool
		want       string
	}{
		{name: "remote addr", want: "192.0.2.1"},
		{name: "proxy headers ignored by default", realIP: "198.51.100.7", forwarded: "203.0.113.5", want: "192.0.2.1"},
		{name: "trusted real ip", realIP: "198.51.100.7", forwarded: "203.0.113.5", trustProxy: true, want: "198.51.100.7"},
		{name: "trusted forwarded uses proxy entry", forwarded: "203.0.113.5, 10.0.0.1", trustProxy: true, want: "10.0.0.1"},
		{name: "trusted without headers", trustProxy: true, want: "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = "192.0.2.1:5555"
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			assert.Equal(t, tt.want, GetClientIP(r, tt.trustProxy))
		})
	}
}

func TestClientIPFollowsLimiterOption(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.1:5555"
	r.Header.Set("X-Real-IP", "198.51.100.7")

	direct := NewRateLimiter(1, time.Minute)
	defer direct.Stop()
	assert.Equal(t, "192.0.2.1", direct.ClientIP(r))

	proxied := NewRateLimiter(1, time.Minute, WithTrustedProxyHeaders(true))
	defer proxied.Stop()
	assert.Equal(t, "198.51.100.7", proxied.ClientIP(r))
}

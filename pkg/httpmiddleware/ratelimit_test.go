package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_AllowsWithinBudget(t *testing.T) {
	h := RateLimit(RateLimitConfig{Max: 3, Window: time.Minute})(okHandler())

	for i := range 3 {
		rec := doRequest(h, "10.0.0.1:1234")
		assert.Equal(t, http.StatusOK, rec.Code, "request %d should pass", i+1)
	}

	rec := doRequest(h, "10.0.0.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.JSONEq(t, `{"code":429,"message":"rate limit exceeded"}`, rec.Body.String())
}

func TestRateLimit_Headers(t *testing.T) {
	h := RateLimit(RateLimitConfig{Max: 5, Window: time.Minute})(okHandler())

	rec := doRequest(h, "10.0.0.1:1234")

	assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "4", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
}

func TestRateLimit_KeysAreIndependent(t *testing.T) {
	h := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())

	assert.Equal(t, http.StatusOK, doRequest(h, "10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(h, "10.0.0.1:9999").Code, "same IP, different port shares the budget")
	assert.Equal(t, http.StatusOK, doRequest(h, "10.0.0.2:1234").Code, "a different IP gets its own budget")
}

func TestRateLimit_WindowResets(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 1, Window: 50 * time.Millisecond})

	now := time.Now()
	_, _, allowed := rl.allow("k", now)
	require.True(t, allowed)
	_, _, allowed = rl.allow("k", now)
	require.False(t, allowed)

	_, _, allowed = rl.allow("k", now.Add(50*time.Millisecond))
	assert.True(t, allowed, "a fresh window restores the budget")
}

func TestRateLimit_EvictStale(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 1, Window: time.Minute})

	now := time.Now()
	rl.allow("a", now)
	rl.allow("b", now)
	require.Len(t, rl.windows, 2)

	rl.evictStale(now.Add(time.Minute))
	assert.Len(t, rl.windows, 2, "windows inside the retention period stay")

	rl.evictStale(now.Add(3 * time.Minute))
	assert.Empty(t, rl.windows)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "remote addr only",
			remoteAddr: "10.0.0.1:1234",
			want:       "10.0.0.1",
		},
		{
			name:       "x-forwarded-for wins",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7"},
			want:       "203.0.113.7",
		},
		{
			name:       "first hop of x-forwarded-for chain",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7, 70.41.3.18"},
			want:       "203.0.113.7",
		},
		{
			name:       "x-real-ip fallback",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			want:       "203.0.113.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}

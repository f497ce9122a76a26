package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimit(t *testing.T) {
	mw := RateLimit(RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2}, IPKeyExtractor)
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = remote
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	require.Equal(t, http.StatusNoContent, do("10.0.0.1:1111").Code)
	require.Equal(t, http.StatusNoContent, do("10.0.0.1:2222").Code)

	rr := do("10.0.0.1:3333")
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	require.NotEmpty(t, rr.Header().Get("Retry-After"))
	require.Equal(t, "2", rr.Header().Get("X-RateLimit-Limit"))

	// Other clients have their own bucket.
	require.Equal(t, http.StatusNoContent, do("10.0.0.2:1111").Code)
}

func TestIPKeyExtractor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.5:4242"
	require.Equal(t, "192.168.1.5", IPKeyExtractor(req))

	req.RemoteAddr = "192.168.1.5"
	require.Equal(t, "192.168.1.5", IPKeyExtractor(req))
}

package httpx_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/studio/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestRateLimitDisabledPassesThrough(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	base := httpx.RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		calls.Add(1)
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	})

	rt := httpx.Chain(base, httpx.RateLimit(httpx.RateLimitConfig{}))
	for range 20 {
		req := httptest.NewRequest(http.MethodGet, "http://api.test/", nil)
		_, err := rt.RoundTrip(req)
		require.NoError(t, err)
	}
	require.Equal(t, int32(20), calls.Load())
}

func TestRateLimitWaitsForToken(t *testing.T) {
	t.Parallel()

	base := httpx.RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	})
	rt := httpx.Chain(base, httpx.RateLimit(httpx.RateLimitConfig{RequestsPerSecond: 20, Burst: 1}))

	start := time.Now()
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "http://api.test/", nil)
		_, err := rt.RoundTrip(req)
		require.NoError(t, err)
	}

	// burst of one, then two waits of ~50ms each
	require.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestRateLimitHonoursContext(t *testing.T) {
	t.Parallel()

	base := httpx.RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	})
	rt := httpx.Chain(base, httpx.RateLimit(httpx.RateLimitConfig{RequestsPerSecond: 0.01, Burst: 1}))

	req := httptest.NewRequest(http.MethodGet, "http://api.test/", nil)
	_, err := rt.RoundTrip(req)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req = httptest.NewRequest(http.MethodGet, "http://api.test/", nil).WithContext(ctx)
	_, err = rt.RoundTrip(req)
	require.Error(t, err)
}

func TestRequestIDAndChainOrder(t *testing.T) {
	t.Parallel()

	var order []string
	tag := func(name string) httpx.Middleware {
		return func(next http.RoundTripper) http.RoundTripper {
			return httpx.RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
				order = append(order, name)
				return next.RoundTrip(r)
			})
		}
	}

	var seen string
	base := httpx.RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		seen = r.Header.Get("X-Request-ID")
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	})

	rt := httpx.Chain(base, tag("outer"), httpx.RequestID(), tag("inner"))
	req := httptest.NewRequest(http.MethodGet, "http://api.test/", nil)
	_, err := rt.RoundTrip(req)
	require.NoError(t, err)

	require.Equal(t, []string{"outer", "inner"}, order)
	require.NotEmpty(t, seen)
	require.Empty(t, req.Header.Get("X-Request-ID"), "caller request must not be mutated")
}

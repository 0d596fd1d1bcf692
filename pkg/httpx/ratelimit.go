package httpx

import (
	"fmt"
	"net/http"
	"time"

	"github.com/aussiebroadwan/studio/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines the client side pacing of outgoing requests.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained request rate. Zero disables pacing.
	RequestsPerSecond float64
	// Burst allows for temporary bursts above the rate
	Burst int
}

// Enabled reports whether the config actually limits anything.
func (c RateLimitConfig) Enabled() bool {
	return c.RequestsPerSecond > 0
}

// RateLimit paces outgoing requests with a token bucket. Requests wait for a
// token instead of failing; the wait honours the request context so a
// cancelled caller is released immediately.
//
// This is politeness towards the backend, not a security control. The real
// limits live on the server.
func RateLimit(config RateLimitConfig) Middleware {
	if !config.Enabled() {
		return func(next http.RoundTripper) http.RoundTripper { return next }
	}

	burst := max(config.Burst, 1)
	limiter := rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)

	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			ctx := r.Context()

			if !limiter.Allow() {
				start := time.Now()
				if err := limiter.Wait(ctx); err != nil {
					return nil, fmt.Errorf("rate limit wait: %w", err)
				}
				slogx.FromContext(ctx, nil).Debug("request delayed by client rate limit",
					"path", r.URL.Path,
					"waited_ms", time.Since(start).Milliseconds(),
				)
			}

			return next.RoundTrip(r)
		})
	}
}

package httpx

import (
	"net/http"

	"github.com/aussiebroadwan/studio/pkg/idx"
)

// Middleware decorates the outgoing side of an *http.Client.
type Middleware func(http.RoundTripper) http.RoundTripper

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// Chain wraps base with the middlewares. The first middleware is the
// outermost one, so it sees the request first.
func Chain(base http.RoundTripper, middlewares ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	for i := len(middlewares) - 1; i >= 0; i-- {
		base = middlewares[i](base)
	}
	return base
}

// RequestID stamps every request with an X-Request-ID header unless the
// caller already set one.
func RequestID() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if r.Header.Get("X-Request-ID") != "" {
				return next.RoundTrip(r)
			}
			// RoundTrippers must not mutate the caller's request.
			r = r.Clone(r.Context())
			r.Header.Set("X-Request-ID", idx.New().String())
			return next.RoundTrip(r)
		})
	}
}

package internal

import (
	"net/http"

	"golang.org/x/time/rate"
)

type rateLimitedTransport struct {
	next    http.RoundTripper
	limiter *rate.Limiter
}

// NewRateLimitedTransport paces outgoing API requests. Requests wait for a
// token instead of failing. A non-positive rps disables pacing.
func NewRateLimitedTransport(next http.RoundTripper, rps float64, burst int) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if rps <= 0 {
		return next
	}
	if burst < 1 {
		burst = int(rps)
		if burst < 1 {
			burst = 1
		}
	}
	return &rateLimitedTransport{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.next.RoundTrip(req)
}

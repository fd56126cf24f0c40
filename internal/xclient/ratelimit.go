package xclient

import (
	"golang.org/x/time/rate"
)

// newLimiter paces outgoing requests; non-positive values fall back to
// 1 request/second with a burst of 2.
func newLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 2
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

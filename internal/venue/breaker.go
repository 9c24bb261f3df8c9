package venue

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// ErrBreakerOpen is returned by Client methods when the circuit breaker
// is open and the call was short-circuited instead of reaching the venue.
var ErrBreakerOpen = errors.New("venue: circuit breaker open")

// newBreaker builds a breaker tripped by a run of exhausted-retry 5xx/
// transport failures. It sits strictly underneath the client's own
// retry/backoff policy: a single request's retries are exhausted
// first, and only the resulting failure counts toward the breaker.
func newBreaker() *gobreaker.CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        "venue-rest",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return gobreaker.NewCircuitBreaker(settings)
}

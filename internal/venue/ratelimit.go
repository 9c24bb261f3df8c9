// ratelimit.go implements token-bucket rate limiting for the venue REST
// API. A smooth token bucket refills continuously (rather than in hard
// 10s bursts) to avoid tripping the venue's own limiter.
package venue

import (
	"context"
	"sync"
	"time"
)

// TokenBucket implements a token-bucket rate limiter with continuous refill.
// Callers block in Wait() until a token is available or the context is cancelled.
type TokenBucket struct {
	mu       sync.Mutex
	tokens   float64
	capacity float64
	rate     float64
	lastTime time.Time
}

// NewTokenBucket creates a rate limiter with the given capacity and refill rate.
func NewTokenBucket(capacity, ratePerSecond float64) *TokenBucket {
	return &TokenBucket{
		tokens:   capacity,
		capacity: capacity,
		rate:     ratePerSecond,
		lastTime: time.Now(),
	}
}

// Wait blocks until a token is available or ctx is cancelled.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		tb.mu.Lock()
		now := time.Now()
		elapsed := now.Sub(tb.lastTime).Seconds()
		tb.tokens += elapsed * tb.rate
		if tb.tokens > tb.capacity {
			tb.tokens = tb.capacity
		}
		tb.lastTime = now

		if tb.tokens >= 1 {
			tb.tokens--
			tb.mu.Unlock()
			return nil
		}

		wait := time.Duration((1 - tb.tokens) / tb.rate * float64(time.Second))
		tb.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// RateLimiter groups token buckets by venue endpoint category. Each
// VenueClient operation calls the appropriate bucket's Wait() before
// making the HTTP request.
type RateLimiter struct {
	Tickers *TokenBucket // GET /v5/market/tickers
	Order   *TokenBucket // POST /v5/order/create, /v5/order/cancel
	Status  *TokenBucket // GET /v5/order/realtime — fill-polling is the hottest path
	Position *TokenBucket // GET /v5/position/list
}

// NewRateLimiter creates rate limiters tuned for a single-symbol scalper:
// the status bucket is sized generously since fill-polling at 500ms
// cadence is the dominant call volume on this venue client.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		Tickers:  NewTokenBucket(20, 2),
		Order:    NewTokenBucket(50, 10),
		Status:   NewTokenBucket(100, 20),
		Position: NewTokenBucket(50, 10),
	}
}

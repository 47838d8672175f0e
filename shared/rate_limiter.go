package shared

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// RequestRateLimiter enforces a minimum delay between outbound requests.
// It fronts the search provider clients so bursts of searches do not hammer
// the provider API.
type RequestRateLimiter struct {
	minimumDelay    time.Duration
	lastRequestTime time.Time
	mutex           sync.Mutex
	requestCount    int64
}

// NewRequestRateLimiter creates a new rate limiter with the specified minimum delay
func NewRequestRateLimiter(minimumDelay time.Duration) *RequestRateLimiter {
	return &RequestRateLimiter{
		minimumDelay: minimumDelay,
	}
}

// Wait blocks until the minimum delay has elapsed since the last request
func (limiter *RequestRateLimiter) Wait() {
	limiter.mutex.Lock()
	defer limiter.mutex.Unlock()

	if !limiter.lastRequestTime.IsZero() {
		elapsed := time.Since(limiter.lastRequestTime)
		if elapsed < limiter.minimumDelay {
			remaining := limiter.minimumDelay - elapsed

			logrus.WithFields(logrus.Fields{
				"component":       "RequestRateLimiter",
				"elapsed_time":    elapsed,
				"minimum_delay":   limiter.minimumDelay,
				"remaining_delay": remaining,
			}).Debug("Enforcing rate limit delay")

			time.Sleep(remaining)
		}
	}

	limiter.lastRequestTime = time.Now()
	limiter.requestCount++
}

// RequestCount returns the total number of requests processed
func (limiter *RequestRateLimiter) RequestCount() int64 {
	limiter.mutex.Lock()
	defer limiter.mutex.Unlock()
	return limiter.requestCount
}

package middleware

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
)

// limiter is a sliding-window counter keyed by caller. Old entries are
// pruned on access, so an idle key costs nothing after its window passes.
type limiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	limit  int
	window time.Duration
}

func newLimiter(limit int, window time.Duration) *limiter {
	return &limiter{
		hits:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
	}
}

func (l *limiter) allow(key string) bool {
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.hits[key][:0]
	for _, t := range l.hits[key] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	if len(recent) >= l.limit {
		l.hits[key] = recent
		return false
	}
	l.hits[key] = append(recent, now)
	return true
}

func rateLimit(l *limiter, keyFn func(fiber.Ctx) string) fiber.Handler {
	return func(c fiber.Ctx) error {
		if !l.allow(keyFn(c)) {
			return ErrorResponse(c, fiber.StatusTooManyRequests,
				"RATE_LIMITED", "too many requests, slow down")
		}
		return c.Next()
	}
}

// AnalysisLimiter throttles read-side analysis endpoints per caller IP.
func AnalysisLimiter() fiber.Handler {
	return rateLimit(newLimiter(60, time.Minute), func(c fiber.Ctx) string {
		return c.IP()
	})
}

// TrainingLimiter throttles training runs per client. Training is the
// expensive path and retraining more often than this buys nothing.
func TrainingLimiter() fiber.Handler {
	return rateLimit(newLimiter(5, 5*time.Minute), func(c fiber.Ctx) string {
		return c.Params("clientId")
	})
}

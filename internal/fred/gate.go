package fred

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/rewired-gh/macropanel/internal/models"
)

const (
	// DefaultRequestInterval keeps a single client at 120 requests per minute.
	DefaultRequestInterval = 500 * time.Millisecond
	// MinRequestInterval is the shortest spacing the provider tolerates.
	MinRequestInterval = 200 * time.Millisecond
)

// Gate spaces outgoing requests. One Gate is shared by every request of a run,
// including retries, regardless of how many workers issue them.
type Gate struct {
	limiter  *rate.Limiter
	interval time.Duration
}

// NewGate returns a gate that admits one request per interval.
func NewGate(interval time.Duration) (*Gate, error) {
	if interval < MinRequestInterval {
		return nil, &models.InvalidConfigError{
			Param:  "request_interval",
			Value:  interval,
			Reason: "must be at least " + MinRequestInterval.String(),
		}
	}
	return &Gate{
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
	}, nil
}

// Wait blocks until the next request may be sent or ctx is done.
func (g *Gate) Wait(ctx context.Context) error {
	return g.limiter.Wait(ctx)
}

// Interval returns the configured spacing.
func (g *Gate) Interval() time.Duration {
	return g.interval
}

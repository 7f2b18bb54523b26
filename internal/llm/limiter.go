package llm

import (
	"context"
	"sync"
	"time"
)

// pacer is a token bucket holding up to rpm calls, refilled continuously.
// Decision and extraction calls of one turn draw from the same bucket.
type pacer struct {
	mu       sync.Mutex
	rpm      float64
	tokens   float64
	lastFill time.Time
}

func newPacer(rpm int) *pacer {
	return &pacer{rpm: float64(rpm), tokens: float64(rpm), lastFill: time.Now()}
}

// reserve takes a token and returns zero, or returns how long until the
// next token is due.
func (p *pacer) reserve(now time.Time) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens = min(p.rpm, p.tokens+now.Sub(p.lastFill).Minutes()*p.rpm)
	p.lastFill = now
	if p.tokens >= 1 {
		p.tokens--
		return 0
	}
	return time.Duration((1 - p.tokens) / p.rpm * float64(time.Minute))
}

// wait blocks until a call may start and returns how long it was held.
func (p *pacer) wait(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	for {
		d := p.reserve(time.Now())
		if d == 0 {
			return time.Since(start), nil
		}
		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return time.Since(start), ctx.Err()
		case <-timer.C:
		}
	}
}

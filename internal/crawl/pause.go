package crawl

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"
)

// TimerPauser sleeps on a timer, returning early on context cancellation.
type TimerPauser struct{}

// Pause blocks for d or until ctx finishes.
func (TimerPauser) Pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// randomBetween returns a duration uniformly drawn from [min, max). The
// jitter bounds request-rate signature, not correctness.
func randomBetween(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	span := big.NewInt(int64(max - min))
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return min + (max-min)/2
	}
	return min + time.Duration(n.Int64())
}

package bot

import (
	"context"
	"time"
)

// RateLimiter decides whether a user may submit feedback now, based on the
// created_at of their most recent entry.
type RateLimiter struct {
	store    FeedbackStore
	interval time.Duration
	failOpen bool
	now      func() time.Time
}

func NewRateLimiter(store FeedbackStore, interval time.Duration, failOpen bool) *RateLimiter {
	return &RateLimiter{
		store:    store,
		interval: interval,
		failOpen: failOpen,
		now:      time.Now,
	}
}

// CanSubmit reports whether userID may submit now and, when denied, how long
// until the window reopens. A store read failure is returned alongside the
// configured fail mode: fail closed denies, fail open allows. The check is
// advisory — it is not transactional with the insert that follows.
func (l *RateLimiter) CanSubmit(ctx context.Context, userID int64) (bool, time.Duration, error) {
	last, found, err := l.store.LastSubmittedAt(ctx, userID)
	if err != nil {
		return l.failOpen, 0, err
	}
	if !found {
		return true, 0, nil
	}
	elapsed := l.now().Sub(last)
	if elapsed >= l.interval {
		return true, 0, nil
	}
	return false, l.interval - elapsed, nil
}

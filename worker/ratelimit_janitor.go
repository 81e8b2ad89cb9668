package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const DefaultJanitorInterval = 10 * time.Minute

// Pruner forgets counter keys whose whole window has expired.
type Pruner interface {
	Prune(window time.Duration, now time.Time) int
}

// RateLimitJanitor keeps the in-memory submission counters from growing with
// every client that ever posted. It never changes what the limiter admits.
type RateLimitJanitor struct {
	store    Pruner
	window   time.Duration
	interval time.Duration
	logger   *logrus.Entry
	now      func() time.Time
}

func NewRateLimitJanitor(store Pruner, window, interval time.Duration, logger *logrus.Entry) *RateLimitJanitor {
	if interval <= 0 {
		interval = DefaultJanitorInterval
	}
	return &RateLimitJanitor{
		store:    store,
		window:   window,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

func (j *RateLimitJanitor) Start(ctx context.Context) {
	j.logger.WithField("interval", j.interval.String()).Info("Starting rate limit janitor...")
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.sweep()
		case <-ctx.Done():
			j.logger.Info("Stopping rate limit janitor...")
			return
		}
	}
}

func (j *RateLimitJanitor) sweep() int {
	removed := j.store.Prune(j.window, j.now())
	if removed > 0 {
		j.logger.WithField("removed", removed).Debug("Pruned idle rate limit keys")
	}
	return removed
}

package fetch

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Limiter manages request timing per host for politeness. Extraction is
// strictly sequential, so the limiter's job is pacing, not coordination:
// it remembers when the last request to a host went out and sleeps off
// whatever remains of the required gap.
type Limiter struct {
	hostLastRequest   map[string]time.Time // hostname -> last request attempt time
	hostLastRequestMu sync.Mutex           // Protects hostLastRequest map
	log               *logrus.Logger
}

// NewLimiter creates a Limiter
func NewLimiter(log *logrus.Logger) *Limiter {
	return &Limiter{
		hostLastRequest: make(map[string]time.Time),
		log:             log,
	}
}

// Wait sleeps until at least minDelay has passed since the last request to
// host, honoring ctx cancellation. A host never seen before still waits the
// full minDelay: the pre-request pause is part of the retrieval contract,
// not merely a gap between consecutive hits.
func (l *Limiter) Wait(ctx context.Context, host string, minDelay time.Duration) error {
	if minDelay <= 0 {
		return ctx.Err()
	}

	l.hostLastRequestMu.Lock()
	lastReqTime, exists := l.hostLastRequest[host]
	l.hostLastRequestMu.Unlock() // Unlock before potentially sleeping

	sleep := minDelay
	if exists {
		elapsed := time.Since(lastReqTime)
		if elapsed >= minDelay {
			return ctx.Err()
		}
		sleep = minDelay - elapsed
	}

	l.log.WithFields(logrus.Fields{
		"host": host, "sleep": sleep, "required_delay": minDelay,
	}).Debug("Politeness delay")

	return Sleep(ctx, sleep)
}

// Touch records the current time as the last request attempt time for the
// host. Call this after an HTTP request attempt to the host.
func (l *Limiter) Touch(host string) {
	l.hostLastRequestMu.Lock()
	l.hostLastRequest[host] = time.Now()
	l.hostLastRequestMu.Unlock()
}

// Sleep blocks for d or until ctx is cancelled, returning ctx.Err() in the
// latter case.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

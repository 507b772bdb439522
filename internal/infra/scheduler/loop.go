package scheduler

import (
	"context"
	"math/rand"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"
)

// quietStep is how long the loop sleeps at a time while in quiet hours, so
// the window boundary is re-checked often enough.
const quietStep = 30 * time.Second

// heartbeatEvery bounds the "alive and idle" log line to once per hour.
const heartbeatEvery = time.Hour

// QuietHours is a time-of-day window during which polling is suspended.
// Windows crossing midnight are supported; equal start and end hours disable
// the window.
type QuietHours struct {
	StartHour int
	EndHour   int
}

// Enabled reports whether a quiet window is configured at all.
func (q QuietHours) Enabled() bool {
	return q.StartHour != q.EndHour
}

// Contains reports whether t falls inside the quiet window.
func (q QuietHours) Contains(t time.Time) bool {
	if !q.Enabled() {
		return false
	}
	h := t.Hour()
	if q.StartHour < q.EndHour {
		return h >= q.StartHour && h < q.EndHour
	}
	// Wraparound window, e.g. 23..7.
	return h >= q.StartHour || h < q.EndHour
}

// Sleep suspends for up to d, waking every tick to re-check the context and
// the interrupt predicate. Returns false when the sleep was cut short by
// context cancellation, true otherwise (including an interrupt-predicate
// early return, which is a normal mode switch rather than a shutdown).
func Sleep(ctx context.Context, d, tick time.Duration, interrupt func() bool) bool {
	deadline := time.Now().Add(d)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return true
		}
		if interrupt != nil && interrupt() {
			return true
		}
		step := tick
		if remaining < step {
			step = remaining
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(step):
		}
	}
}

// Loop drives the poll cycle: ACTIVE runs cycles separated by a jittered
// interval, QUIET sleeps in short increments until the window ends. The
// active-mode sleep is interruptible the moment quiet hours begin.
type Loop struct {
	interval  time.Duration
	jitterMin time.Duration
	jitterMax time.Duration
	quiet     QuietHours
	logger    *logrus.Entry

	now           func() time.Time
	lastHeartbeat time.Time
}

// NewLoop builds the poll loop.
func NewLoop(interval, jitterMin, jitterMax time.Duration, quiet QuietHours, log *logrus.Logger) *Loop {
	return &Loop{
		interval:  interval,
		jitterMin: jitterMin,
		jitterMax: jitterMax,
		quiet:     quiet,
		logger:    log.WithField("component", "loop"),
		now:       time.Now,
	}
}

// Run executes cycles until the context is cancelled. A panicking cycle is
// logged and survived; the monitor must never crash from a single bad cycle.
func (l *Loop) Run(ctx context.Context, cycle func(ctx context.Context)) {
	l.logger.WithFields(logrus.Fields{
		"interval":    l.interval,
		"quiet_start": l.quiet.StartHour,
		"quiet_end":   l.quiet.EndHour,
	}).Info("Monitor loop started")

	for ctx.Err() == nil {
		l.heartbeat()

		if l.quiet.Contains(l.now()) {
			if !Sleep(ctx, quietStep, time.Second, nil) {
				break
			}
			continue
		}

		l.runCycle(ctx, cycle)

		delay := l.interval + l.jitter()
		l.logger.WithField("delay", delay).Debug("Cycle complete, sleeping")
		if !Sleep(ctx, delay, time.Second, func() bool { return l.quiet.Contains(l.now()) }) {
			break
		}
	}

	l.logger.Info("Monitor loop stopped")
}

func (l *Loop) runCycle(ctx context.Context, cycle func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.WithField("panic", r).Errorf("Poll cycle panicked, continuing on next interval:\n%s", debug.Stack())
		}
	}()
	cycle(ctx)
}

// jitter draws a uniform random duration in [jitterMin, jitterMax].
func (l *Loop) jitter() time.Duration {
	span := l.jitterMax - l.jitterMin
	if span <= 0 {
		return l.jitterMin
	}
	return l.jitterMin + time.Duration(rand.Int63n(int64(span)+1))
}

// heartbeat logs at most once per hour in either mode, to distinguish "alive
// and idle" from "crashed".
func (l *Loop) heartbeat() {
	now := l.now()
	if now.Sub(l.lastHeartbeat) < heartbeatEvery {
		return
	}
	mode := "active"
	if l.quiet.Contains(now) {
		mode = "quiet"
	}
	l.logger.WithField("mode", mode).Info("Heartbeat")
	l.lastHeartbeat = now
}

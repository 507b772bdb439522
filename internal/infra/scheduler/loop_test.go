package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour int) time.Time {
	return time.Date(2025, 3, 10, hour, 15, 0, 0, time.UTC)
}

func TestQuietHoursSameDayWindow(t *testing.T) {
	q := QuietHours{StartHour: 13, EndHour: 15}

	assert.False(t, q.Contains(at(12)))
	assert.True(t, q.Contains(at(13)))
	assert.True(t, q.Contains(at(14)))
	assert.False(t, q.Contains(at(15)), "end hour is exclusive")
}

func TestQuietHoursWrapMidnight(t *testing.T) {
	q := QuietHours{StartHour: 23, EndHour: 7}

	assert.True(t, q.Contains(at(23)))
	assert.True(t, q.Contains(at(0)))
	assert.True(t, q.Contains(at(6)))
	assert.False(t, q.Contains(at(7)))
	assert.False(t, q.Contains(at(12)))
}

func TestQuietHoursDisabledWhenEqual(t *testing.T) {
	q := QuietHours{StartHour: 8, EndHour: 8}

	assert.False(t, q.Enabled())
	for h := 0; h < 24; h++ {
		assert.False(t, q.Contains(at(h)))
	}
}

func TestSleepCompletes(t *testing.T) {
	done := Sleep(context.Background(), 10*time.Millisecond, time.Millisecond, nil)
	assert.True(t, done)
}

func TestSleepCancelledByContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	done := Sleep(ctx, time.Hour, time.Millisecond, nil)

	assert.False(t, done)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSleepInterruptCutsShort(t *testing.T) {
	calls := 0
	interrupt := func() bool {
		calls++
		return calls > 3
	}

	start := time.Now()
	done := Sleep(context.Background(), time.Hour, time.Millisecond, interrupt)

	assert.True(t, done, "an interrupt is a mode switch, not a shutdown")
	assert.Less(t, time.Since(start), time.Second)
}

func TestJitterWithinBounds(t *testing.T) {
	l := &Loop{jitterMin: 5 * time.Millisecond, jitterMax: 45 * time.Millisecond}

	for i := 0; i < 200; i++ {
		j := l.jitter()
		assert.GreaterOrEqual(t, j, l.jitterMin)
		assert.LessOrEqual(t, j, l.jitterMax)
	}
}

func TestJitterDegenerateSpan(t *testing.T) {
	l := &Loop{jitterMin: 7 * time.Millisecond, jitterMax: 7 * time.Millisecond}
	assert.Equal(t, 7*time.Millisecond, l.jitter())
}

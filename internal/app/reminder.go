// internal/app/reminder.go
package app

import (
	"context"
	"fmt"
	"time"
)

// checkDeadlines is the deadline reminder sweep: an independent,
// time-threshold-based notifier over the most recently fetched assignment
// list. Each threshold fires at most once per assignment per approach; the
// notified sets are cleared only when a deadline has fully passed, so a
// deadline later moved back into the future can re-trigger. The sweep runs on
// the poll interval, which is coarser than the threshold windows: it fires on
// whatever cycle first observes the assignment inside a window.
func (s *MonitorService) checkDeadlines(ctx context.Context, now time.Time) {
	if !s.state.Initialized {
		return
	}

	for _, a := range s.state.Assignments {
		remaining := a.Deadline.Sub(now)
		if remaining < 0 {
			s.state.Reminders.ClearPassed(a.ID)
			continue
		}
		if !a.IsOpen() {
			continue
		}

		hours := remaining.Hours()
		switch {
		case hours > 23 && hours <= 24 && !s.state.Reminders.Notified24h.Has(a.ID):
			s.emit(ctx, "deadline", fmt.Sprintf("⏰ **Due in 24 hours**: %s (deadline %s).", a.Title, a.Deadline.Format("02-01 15:04")))
			s.state.Reminders.Notified24h.Add(a.ID)
		case hours > 0.5 && hours <= 1 && !s.state.Reminders.Notified1h.Has(a.ID):
			s.emit(ctx, "deadline", fmt.Sprintf("🚨 **Due in 1 hour**: %s!", a.Title))
			s.state.Reminders.Notified1h.Add(a.ID)
		}
	}
}

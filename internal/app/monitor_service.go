// internal/app/monitor_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"magister_monitor/internal/domain/magister"
	"magister_monitor/internal/domain/monitor"
	"magister_monitor/internal/domain/notify"
	"magister_monitor/internal/infra/metrics"

	"github.com/sirupsen/logrus"
)

const (
	gradeFetchLimit      = 10
	messageFetchLimit    = 10
	assignmentFetchLimit = 50

	dateLayout = "2006-01-02"
)

// TokenManager is the slice of the token lifecycle the monitor drives: it
// asks whether the current token is worth using and triggers a refresh after
// an authentication failure.
type TokenManager interface {
	Expired(now time.Time) bool
	Refresh(ctx context.Context) error
}

// MonitorService runs the poll-diff-notify cycle. It is the sole owner of the
// monitor state; RunCycle is only ever called from the poll loop, never
// concurrently.
type MonitorService struct {
	client   magister.Client
	notifier notify.Notifier
	tokens   TokenManager
	metrics  *metrics.Metrics
	logger   *logrus.Entry
	state    *monitor.State

	maxChanges  int
	settleDelay time.Duration

	// Test seams; production uses the defaults set in NewMonitorService.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)
}

// NewMonitorService wires the cycle together with a fresh, uninitialized
// state.
func NewMonitorService(
	client magister.Client,
	notifier notify.Notifier,
	tokens TokenManager,
	m *metrics.Metrics,
	log *logrus.Logger,
	maxChanges int,
	settleDelay time.Duration,
) *MonitorService {
	return &MonitorService{
		client:      client,
		notifier:    notifier,
		tokens:      tokens,
		metrics:     m,
		logger:      log.WithField("component", "monitor"),
		state:       monitor.NewState(),
		maxChanges:  maxChanges,
		settleDelay: settleDelay,
		now:         time.Now,
		sleep: func(ctx context.Context, d time.Duration) {
			select {
			case <-ctx.Done():
			case <-time.After(d):
			}
		},
	}
}

// RunCycle performs one poll cycle: every category is fetched and diffed in
// isolation, so one failing category never blocks the others. The first cycle
// in which all categories succeed establishes the baselines and emits
// nothing.
func (s *MonitorService) RunCycle(ctx context.Context) {
	s.metrics.CyclesTotal.Inc()
	now := s.now()
	firstCycle := !s.state.Initialized

	// Proactive refresh: a token whose exp claim has passed will only buy us
	// four guaranteed 401s.
	if s.tokens.Expired(now) {
		s.logger.Info("Bearer token expired, refreshing before fetch")
		s.refreshToken(ctx)
	}

	authHandled := false
	gradesOK := s.checkGrades(ctx, &authHandled)
	messagesOK := s.checkMessages(ctx, &authHandled)
	assignmentsOK := s.checkAssignments(ctx, &authHandled)
	scheduleOK := s.checkSchedule(ctx, now, &authHandled)

	s.checkDeadlines(ctx, now)

	if firstCycle && gradesOK && messagesOK && assignmentsOK && scheduleOK {
		s.state.Initialized = true
		s.logger.WithFields(logrus.Fields{
			"grades":      len(s.state.SeenGrades),
			"messages":    len(s.state.SeenMessages),
			"assignments": len(s.state.SeenAssignments),
			"lessons":     len(s.state.ScheduleBaseline),
		}).Info("Initialized, monitoring for changes")
	}

	s.state.LastCheck = now
	s.metrics.LastCycleUnix.Set(float64(now.Unix()))
}

// checkGrades notifies once per never-before-seen grade ID. Grades are a
// monotonic-append collection: the seen set only grows.
func (s *MonitorService) checkGrades(ctx context.Context, authHandled *bool) bool {
	grades, err := s.client.Grades(ctx, gradeFetchLimit)
	if err != nil {
		s.handleFetchError(ctx, "grades", err, authHandled)
		return false
	}

	var fresh []magister.Grade
	for _, g := range grades {
		if !s.state.SeenGrades.Has(g.ID) {
			fresh = append(fresh, g)
		}
	}

	if s.state.Initialized && len(fresh) > 0 {
		if len(fresh) > s.maxChanges {
			s.suppress("grades", len(fresh))
		} else {
			for _, g := range fresh {
				s.emit(ctx, "grades", fmt.Sprintf("📊 **New grade** posted for **%s**.", g.Subject.Description))
			}
		}
	}

	for _, g := range grades {
		s.state.SeenGrades.Add(g.ID)
	}
	return true
}

// checkMessages watches the inbox ("Postvak IN") for new message IDs.
func (s *MonitorService) checkMessages(ctx context.Context, authHandled *bool) bool {
	folders, err := s.client.Folders(ctx)
	if err != nil {
		s.handleFetchError(ctx, "messages", err, authHandled)
		return false
	}

	var inbox *magister.MessageFolder
	for i := range folders {
		if folders[i].IsInbox() {
			inbox = &folders[i]
			break
		}
	}
	if inbox == nil {
		// Not a failure class worth skipping the cycle for: the account
		// simply has no inbox folder we recognize.
		s.logger.Warn("No inbox folder found among message folders")
		return true
	}

	messages, err := s.client.Messages(ctx, inbox.ID, messageFetchLimit)
	if err != nil {
		s.handleFetchError(ctx, "messages", err, authHandled)
		return false
	}

	var fresh []magister.Message
	for _, msg := range messages {
		if !s.state.SeenMessages.Has(msg.ID) {
			fresh = append(fresh, msg)
		}
	}

	if s.state.Initialized && len(fresh) > 0 {
		if len(fresh) > s.maxChanges {
			s.suppress("messages", len(fresh))
		} else {
			for _, msg := range fresh {
				s.emit(ctx, "messages", fmt.Sprintf("📧 **New message** received from **%s**.", msg.SenderName()))
			}
		}
	}

	for _, msg := range messages {
		s.state.SeenMessages.Add(msg.ID)
	}
	return true
}

// checkAssignments notifies on never-before-seen open assignments and caches
// the fetched list for the deadline reminder sweep.
func (s *MonitorService) checkAssignments(ctx context.Context, authHandled *bool) bool {
	assignments, err := s.client.Assignments(ctx, assignmentFetchLimit)
	if err != nil {
		s.handleFetchError(ctx, "assignments", err, authHandled)
		return false
	}

	s.state.Assignments = assignments

	var fresh []magister.Assignment
	for _, a := range assignments {
		if !s.state.SeenAssignments.Has(a.ID) && a.IsOpen() {
			fresh = append(fresh, a)
		}
	}

	if s.state.Initialized && len(fresh) > 0 {
		if len(fresh) > s.maxChanges {
			s.suppress("assignments", len(fresh))
		} else {
			for _, a := range fresh {
				s.emit(ctx, "assignments", fmt.Sprintf("📝 **New assignment**: %s (due %s).", a.Title, a.Deadline.Format("02-01 15:04")))
			}
		}
	}

	for _, a := range assignments {
		s.state.SeenAssignments.Add(a.ID)
	}
	return true
}

// checkSchedule runs the full snapshot pipeline for today's schedule:
// day-rollover handling, diff, stability verification, spam guards,
// notification emission, baseline commit.
func (s *MonitorService) checkSchedule(ctx context.Context, now time.Time, authHandled *bool) bool {
	today := now.Format(dateLayout)
	rollover := s.state.ScheduleDate != "" && s.state.ScheduleDate != today

	snap, ok := s.fetchScheduleSnapshot(ctx, now, today, authHandled)
	if !ok {
		return false
	}

	commit := func(sn monitor.Snapshot) {
		s.state.ScheduleBaseline = sn
		s.state.ScheduleDate = today
	}

	if rollover {
		// Re-initialization for the new day: never compare across the
		// boundary, never notify.
		s.logger.WithFields(logrus.Fields{
			"previous_date": s.state.ScheduleDate,
			"new_date":      today,
			"lessons":       len(snap),
		}).Info("Day rollover, re-baselining schedule")
		commit(snap)
		return true
	}

	if !s.state.Initialized {
		commit(snap)
		return true
	}

	delta := monitor.Diff(s.state.ScheduleBaseline, snap)
	if delta.Empty() {
		commit(snap)
		return true
	}

	// Stability verification: membership changes in a bounded daily
	// collection are suspicious until a re-fetch agrees.
	if delta.Total() > 0 {
		s.logger.WithFields(logrus.Fields{
			"added":   len(delta.Added),
			"removed": len(delta.Removed),
		}).Info("Schedule membership changed, re-fetching after settle delay")
		s.sleep(ctx, s.settleDelay)
		if ctx.Err() != nil {
			return false
		}

		verified, ok := s.fetchScheduleSnapshot(ctx, now, today, authHandled)
		if !ok {
			return false
		}
		if !snap.SameIDs(verified) {
			// Flapping: no decision this cycle, keep the last-known-good
			// baseline so the next cycle re-evaluates from the same point.
			s.logger.Warn("Schedule data is flapping between fetches, keeping previous baseline")
			s.metrics.FlapsRejected.Inc()
			return true
		}
		// Use the verified snapshot downstream so we never commit
		// inconsistent in-flight data.
		snap = verified
		delta = monitor.Diff(s.state.ScheduleBaseline, snap)
	}

	// Empty-collapse guard: a full day disappearing at once is an upstream
	// glitch until proven otherwise.
	if len(s.state.ScheduleBaseline) > 0 && len(snap) == 0 {
		s.logger.Warn("Schedule collapsed to empty, keeping previous baseline")
		s.metrics.CyclesSuppressed.Inc()
		return true
	}

	// Threshold guard: commit silently on a burst so the next cycle compares
	// against current reality instead of re-reporting the same storm.
	if delta.Total() > s.maxChanges {
		s.suppress("schedule", delta.Total())
		commit(snap)
		return true
	}

	for _, id := range delta.Added {
		s.emit(ctx, "schedule", fmt.Sprintf("📅 **New lesson**: %s.", snap[id].Summary))
	}
	for _, id := range delta.Removed {
		s.emit(ctx, "schedule", fmt.Sprintf("📅 **Lesson cancelled**: %s.", s.state.ScheduleBaseline[id].Summary))
	}
	for _, id := range delta.Changed {
		s.emit(ctx, "schedule", fmt.Sprintf("📅 **Schedule update**: '%s' has been modified.", snap[id].Summary))
	}

	commit(snap)
	return true
}

// fetchScheduleSnapshot fetches today's appointments and normalizes them into
// a snapshot, dropping anything not starting on the target date (the portal
// occasionally leaks the neighbouring day into a date-ranged query).
func (s *MonitorService) fetchScheduleSnapshot(ctx context.Context, now time.Time, today string, authHandled *bool) (monitor.Snapshot, bool) {
	appointments, err := s.client.Schedule(ctx, now, now.AddDate(0, 0, 1))
	if err != nil {
		s.handleFetchError(ctx, "schedule", err, authHandled)
		return nil, false
	}
	return scheduleSnapshot(appointments, today), true
}

// scheduleSnapshot builds the id -> (fingerprint, summary) mapping for all
// appointments starting on the given date.
func scheduleSnapshot(appointments []magister.Appointment, date string) monitor.Snapshot {
	snap := monitor.Snapshot{}
	for _, a := range appointments {
		if a.Start.Format(dateLayout) != date {
			continue
		}
		snap[a.ID] = monitor.Entry{
			Fingerprint: monitor.Fingerprint(
				strconv.FormatInt(a.ID, 10),
				a.Start.Format(time.RFC3339),
				a.End.Format(time.RFC3339),
				a.LocationName(),
				a.DisplayName(),
				a.ContentText(),
				strconv.Itoa(a.InfoType),
				strconv.FormatBool(a.Completed),
			),
			Summary: appointmentSummary(a),
		}
	}
	return snap
}

func appointmentSummary(a magister.Appointment) string {
	name := a.DisplayName()
	if name == "" {
		name = "(untitled)"
	}
	if loc := a.LocationName(); loc != "" {
		return fmt.Sprintf("%s %s (%s)", a.Start.Format("15:04"), name, loc)
	}
	return fmt.Sprintf("%s %s", a.Start.Format("15:04"), name)
}

// handleFetchError classifies a fetch failure. Auth failures trigger one
// token refresh per cycle; everything else just skips the category.
func (s *MonitorService) handleFetchError(ctx context.Context, category string, err error, authHandled *bool) {
	var authErr *magister.AuthError
	if errors.As(err, &authErr) {
		s.metrics.FetchErrorsTotal.WithLabelValues(category, "auth").Inc()
		s.logger.WithField("category", category).Warn("Fetch rejected as unauthorized, token refresh required")
		if !*authHandled {
			*authHandled = true
			s.refreshToken(ctx)
		}
		return
	}

	s.metrics.FetchErrorsTotal.WithLabelValues(category, "transient").Inc()
	s.logger.WithError(err).WithField("category", category).Warn("Fetch failed, skipping category for this cycle")
}

// refreshToken runs the token-failure hook. A failed refresh is reported to
// the operator exactly once and the loop carries on.
func (s *MonitorService) refreshToken(ctx context.Context) {
	s.metrics.TokenRefreshes.Inc()
	if err := s.tokens.Refresh(ctx); err != nil {
		s.logger.WithError(err).Error("Token refresh failed")
		s.alert(ctx, "🔒 Magister login failed: could not refresh the session. The monitor keeps running and will retry.")
	}
}

// suppress logs a spam-guard hit.
func (s *MonitorService) suppress(category string, changes int) {
	s.metrics.CyclesSuppressed.Inc()
	s.logger.WithFields(logrus.Fields{
		"category": category,
		"changes":  changes,
		"max":      s.maxChanges,
	}).Warn("Too many changes in one cycle, suppressing individual notifications")
}

// emit delivers one per-item notification. Delivery failures are logged and
// never retried.
func (s *MonitorService) emit(ctx context.Context, category, text string) {
	if err := s.notifier.Send(ctx, text); err != nil {
		s.logger.WithError(err).WithField("category", category).Error("Notification delivery failed")
		return
	}
	s.metrics.NotificationsTotal.WithLabelValues(category).Inc()
	s.logger.WithField("category", category).Info("Notification sent")
}

// alert delivers an operator-facing meta-alert (startup, login failure).
func (s *MonitorService) alert(ctx context.Context, text string) {
	if err := s.notifier.Send(ctx, text); err != nil {
		s.logger.WithError(err).Error("Operator alert delivery failed")
		return
	}
	s.metrics.NotificationsTotal.WithLabelValues("operator").Inc()
}

// AnnounceStartup sends the startup meta-alert.
func (s *MonitorService) AnnounceStartup(ctx context.Context) {
	s.alert(ctx, "🚀 Magister monitor started.")
}

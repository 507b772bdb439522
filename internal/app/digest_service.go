// internal/app/digest_service.go
package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"magister_monitor/internal/domain/magister"
	"magister_monitor/internal/domain/notify"

	"github.com/sirupsen/logrus"
)

// DigestService sends one morning summary: today's lessons, unread mail and
// open assignments. It fetches its own data and holds no state, so the cron
// job can run it concurrently with the poll loop.
type DigestService struct {
	client   magister.Client
	notifier notify.Notifier
	logger   *logrus.Entry

	now func() time.Time
}

// NewDigestService wires the digest.
func NewDigestService(client magister.Client, notifier notify.Notifier, log *logrus.Logger) *DigestService {
	return &DigestService{
		client:   client,
		notifier: notifier,
		logger:   log.WithField("component", "digest"),
		now:      time.Now,
	}
}

// SendDailyDigest composes and delivers the summary. Each section degrades
// independently: a failing fetch is noted in the digest instead of aborting
// it.
func (s *DigestService) SendDailyDigest(ctx context.Context) error {
	now := s.now()
	var b strings.Builder
	fmt.Fprintf(&b, "🌅 **Daily digest** — %s\n", now.Format("Monday 2 January"))

	s.writeSchedule(ctx, &b, now)
	s.writeInbox(ctx, &b)
	s.writeAssignments(ctx, &b, now)

	if err := s.notifier.Send(ctx, b.String()); err != nil {
		return fmt.Errorf("deliver digest: %w", err)
	}
	s.logger.Info("Daily digest sent")
	return nil
}

func (s *DigestService) writeSchedule(ctx context.Context, b *strings.Builder, now time.Time) {
	appointments, err := s.client.Schedule(ctx, now, now)
	if err != nil {
		s.logger.WithError(err).Warn("Digest: schedule unavailable")
		b.WriteString("\n📅 Schedule unavailable.\n")
		return
	}

	today := now.Format(dateLayout)
	var todays []magister.Appointment
	for _, a := range appointments {
		if a.Start.Format(dateLayout) == today {
			todays = append(todays, a)
		}
	}
	sort.Slice(todays, func(i, j int) bool { return todays[i].Start.Before(todays[j].Start) })

	if len(todays) == 0 {
		b.WriteString("\n📅 No lessons today.\n")
		return
	}
	fmt.Fprintf(b, "\n📅 **%d lessons today**\n", len(todays))
	for _, a := range todays {
		fmt.Fprintf(b, "• %s\n", appointmentSummary(a))
	}
}

func (s *DigestService) writeInbox(ctx context.Context, b *strings.Builder) {
	folders, err := s.client.Folders(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Digest: folders unavailable")
		b.WriteString("\n📧 Inbox unavailable.\n")
		return
	}
	for _, f := range folders {
		if f.IsInbox() {
			if f.Unread > 0 {
				fmt.Fprintf(b, "\n📧 **%d unread** message(s) in your inbox.\n", f.Unread)
			} else {
				b.WriteString("\n📧 No unread mail.\n")
			}
			return
		}
	}
	b.WriteString("\n📧 No inbox folder found.\n")
}

func (s *DigestService) writeAssignments(ctx context.Context, b *strings.Builder, now time.Time) {
	assignments, err := s.client.Assignments(ctx, assignmentFetchLimit)
	if err != nil {
		s.logger.WithError(err).Warn("Digest: assignments unavailable")
		b.WriteString("\n📝 Assignments unavailable.\n")
		return
	}

	var open []magister.Assignment
	for _, a := range assignments {
		if a.IsOpen() && a.Deadline.After(now) {
			open = append(open, a)
		}
	}
	sort.Slice(open, func(i, j int) bool { return open[i].Deadline.Before(open[j].Deadline) })

	if len(open) == 0 {
		b.WriteString("\n📝 No open assignments.\n")
		return
	}
	fmt.Fprintf(b, "\n📝 **%d open assignment(s)**\n", len(open))
	for _, a := range open {
		fmt.Fprintf(b, "• %s — due %s\n", a.Title, a.Deadline.Format("02-01 15:04"))
	}
}

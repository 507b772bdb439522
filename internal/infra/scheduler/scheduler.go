package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DigestRunner is the piece of the app layer the cron scheduler drives.
type DigestRunner interface {
	SendDailyDigest(ctx context.Context) error
}

// DigestScheduler runs the daily digest on a cron spec. It deliberately
// knows nothing about monitor state: the digest fetches its own data, so the
// job can run concurrently with the poll loop.
type DigestScheduler struct {
	cronEngine *cron.Cron
	digest     DigestRunner
	logger     *logrus.Entry
	cronSpec   string
}

// NewDigestScheduler builds the scheduler. The spec is standard 5-field cron,
// e.g. "0 8 * * *" for 08:00 every day.
func NewDigestScheduler(digest DigestRunner, log *logrus.Logger, cronSpec string) *DigestScheduler {
	return &DigestScheduler{
		cronEngine: cron.New(cron.WithLocation(time.Local)), // digest hour is the student's wall clock
		digest:     digest,
		logger:     log.WithField("component", "digest_scheduler"),
		cronSpec:   cronSpec,
	}
}

// Start registers the digest job and starts the cron engine.
func (s *DigestScheduler) Start() error {
	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		s.logger.Info("Cron job triggered for daily digest")
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := s.digest.SendDailyDigest(ctx); err != nil {
			s.logger.WithError(err).Error("Daily digest failed")
		}
	})
	if err != nil {
		return err
	}

	s.cronEngine.Start()
	s.logger.WithField("cron_spec", s.cronSpec).Info("Digest scheduler started")
	return nil
}

// Stop stops the engine and waits for a running job to finish.
func (s *DigestScheduler) Stop() {
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	s.logger.Info("Digest scheduler stopped")
}

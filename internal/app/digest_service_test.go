package app

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"magister_monitor/internal/domain/magister"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDigest(client *fakeClient) (*DigestService, *recorder) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	rec := &recorder{}

	svc := NewDigestService(client, rec, log)
	svc.now = func() time.Time { return testNow }
	return svc, rec
}

func TestDailyDigestSummarizesTheDay(t *testing.T) {
	client := &fakeClient{
		schedules: [][]magister.Appointment{{
			lessonAt(11, 10),
			lessonAt(10, 9),
			appt(12, time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC), "Morgen", "X1"), // tomorrow, filtered out
		}},
		folders: []magister.MessageFolder{
			{ID: 4, Name: "Verzonden items"},
			{ID: 5, Name: "Postvak IN", Unread: 3},
		},
		assignments: []magister.Assignment{
			{ID: 200, Title: "Essay", Deadline: testNow.Add(48 * time.Hour)},
			{ID: 201, Title: "Oud", Deadline: testNow.Add(-time.Hour)}, // already due, omitted
		},
	}
	svc, rec := newTestDigest(client)

	require.NoError(t, svc.SendDailyDigest(context.Background()))
	require.Len(t, rec.sent, 1)

	digest := rec.sent[0]
	assert.Contains(t, digest, "2 lessons today")
	assert.Contains(t, digest, "3 unread")
	assert.Contains(t, digest, "Essay")
	assert.NotContains(t, digest, "Oud")
	assert.NotContains(t, digest, "Morgen")
}

func TestDailyDigestDegradesPerSection(t *testing.T) {
	client := &fakeClient{
		scheduleErr: &magister.TransientError{Op: "GET afspraken", Err: errors.New("timeout")},
		folders:     []magister.MessageFolder{{ID: 5, Name: "Postvak IN"}},
	}
	svc, rec := newTestDigest(client)

	require.NoError(t, svc.SendDailyDigest(context.Background()))
	require.Len(t, rec.sent, 1)

	digest := rec.sent[0]
	assert.Contains(t, digest, "Schedule unavailable")
	assert.Contains(t, digest, "No unread mail")
	assert.Contains(t, digest, "No open assignments")
}

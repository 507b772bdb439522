package notify

import (
	"context"
	"errors"

	dn "magister_monitor/internal/domain/notify"
)

// Fanout delivers each alert to every configured sink. One sink failing does
// not stop delivery to the others.
type Fanout struct {
	sinks []dn.Notifier
}

// NewFanout builds a fanout over the given sinks.
func NewFanout(sinks ...dn.Notifier) *Fanout {
	return &Fanout{sinks: sinks}
}

// Send delivers the alert to all sinks and joins any failures.
func (f *Fanout) Send(ctx context.Context, text string) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Send(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

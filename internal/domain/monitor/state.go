package monitor

import (
	"time"

	"magister_monitor/internal/domain/magister"
)

// IDSet is a set of record IDs.
type IDSet map[int64]struct{}

// Has reports membership.
func (s IDSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Add inserts an ID.
func (s IDSet) Add(id int64) { s[id] = struct{}{} }

// State is the aggregate monitor state: the committed schedule baseline, the
// append-only seen-ID sets, the rollover marker and the initialization flag.
// It lives only in process memory and is owned exclusively by the poll loop;
// a restart simply rebuilds it as a fresh baseline.
type State struct {
	// ScheduleBaseline is the last committed schedule snapshot.
	ScheduleBaseline Snapshot
	// ScheduleDate is the wall-clock date ("2006-01-02") the baseline was
	// taken for. A date change triggers the day-rollover handler.
	ScheduleDate string

	// Seen-ID sets for the monotonic-append categories. They only grow.
	SeenGrades      IDSet
	SeenMessages    IDSet
	SeenAssignments IDSet

	// Assignments is the most recently fetched assignment list, cached for
	// the deadline reminder sweep.
	Assignments []magister.Assignment

	// Initialized flips true after the first cycle in which every category
	// fetched successfully. Before that, snapshots become baselines directly
	// and no notifications are emitted.
	Initialized bool
	// LastCheck is when the last poll cycle finished.
	LastCheck time.Time

	Reminders ReminderState
}

// NewState returns an empty monitor state.
func NewState() *State {
	return &State{
		ScheduleBaseline: Snapshot{},
		SeenGrades:       IDSet{},
		SeenMessages:     IDSet{},
		SeenAssignments:  IDSet{},
		Reminders:        NewReminderState(),
	}
}

// ReminderState tracks which deadline thresholds have already fired per
// assignment ID. An ID is added when its threshold is first crossed and
// removed once the deadline has fully passed, so a deadline that is later
// moved back into the future can legitimately re-trigger.
type ReminderState struct {
	Notified24h IDSet
	Notified1h  IDSet
}

// NewReminderState returns an empty reminder state.
func NewReminderState() ReminderState {
	return ReminderState{Notified24h: IDSet{}, Notified1h: IDSet{}}
}

// ClearPassed removes an ID whose deadline has passed from both sets.
func (r ReminderState) ClearPassed(id int64) {
	delete(r.Notified24h, id)
	delete(r.Notified1h, id)
}

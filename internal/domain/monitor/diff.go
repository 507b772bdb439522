package monitor

import "sort"

// Delta is the result of comparing two snapshots. ID slices are sorted so
// downstream notification order is deterministic.
type Delta struct {
	Added   []int64
	Removed []int64
	Changed []int64
}

// Total returns the number of membership changes. Changed-in-place records do
// not count toward the spam-guard cap.
func (d Delta) Total() int {
	return len(d.Added) + len(d.Removed)
}

// Empty reports whether the delta contains no changes at all.
func (d Delta) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Diff computes the added, removed and changed ID sets between the previous
// and current snapshots. Pure set arithmetic, no side effects.
func Diff(previous, current Snapshot) Delta {
	var d Delta
	for id, cur := range current {
		prev, ok := previous[id]
		switch {
		case !ok:
			d.Added = append(d.Added, id)
		case prev.Fingerprint != cur.Fingerprint:
			d.Changed = append(d.Changed, id)
		}
	}
	for id := range previous {
		if _, ok := current[id]; !ok {
			d.Removed = append(d.Removed, id)
		}
	}
	sortIDs(d.Added)
	sortIDs(d.Removed)
	sortIDs(d.Changed)
	return d
}

func sortIDs(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

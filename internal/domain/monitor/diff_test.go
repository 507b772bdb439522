package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiffAddedRemovedChanged(t *testing.T) {
	previous := Snapshot{
		1: {Fingerprint: "h1"},
		2: {Fingerprint: "h2"},
		3: {Fingerprint: "h3"},
	}
	current := Snapshot{
		1: {Fingerprint: "h1"},
		3: {Fingerprint: "h3-modified"},
		4: {Fingerprint: "h4"},
	}

	d := Diff(previous, current)

	assert.Equal(t, []int64{4}, d.Added)
	assert.Equal(t, []int64{2}, d.Removed)
	assert.Equal(t, []int64{3}, d.Changed)
	assert.Equal(t, 2, d.Total(), "changed-in-place items do not count toward the cap")
	assert.False(t, d.Empty())
}

func TestDiffIdentical(t *testing.T) {
	snap := Snapshot{10: {Fingerprint: "locA-09:00-h1"}}

	d := Diff(snap, snap)

	assert.True(t, d.Empty())
	assert.Zero(t, d.Total())
}

func TestDiffFromEmptyPrevious(t *testing.T) {
	current := Snapshot{1: {Fingerprint: "a"}, 2: {Fingerprint: "b"}}

	d := Diff(Snapshot{}, current)

	assert.Equal(t, []int64{1, 2}, d.Added)
	assert.Empty(t, d.Removed)
	assert.Empty(t, d.Changed)
}

func TestDiffToEmptyCurrent(t *testing.T) {
	previous := Snapshot{7: {Fingerprint: "a"}, 8: {Fingerprint: "b"}}

	d := Diff(previous, Snapshot{})

	assert.Empty(t, d.Added)
	assert.Equal(t, []int64{7, 8}, d.Removed)
}

func TestDiffOrderingDeterministic(t *testing.T) {
	current := Snapshot{9: {}, 3: {}, 11: {}, 5: {}}

	d := Diff(Snapshot{}, current)

	assert.Equal(t, []int64{3, 5, 9, 11}, d.Added)
}

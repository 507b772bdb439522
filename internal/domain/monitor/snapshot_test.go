package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprintDeterministic(t *testing.T) {
	fields := []string{"42", "2025-03-10T09:00:00Z", "2025-03-10T10:00:00Z", "A12", "Wiskunde", "", "1", "false"}

	first := Fingerprint(fields...)
	second := Fingerprint(fields...)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64) // sha256 hex
}

func TestFingerprintChangesWithAnyField(t *testing.T) {
	base := []string{"42", "09:00", "10:00", "A12", "Wiskunde", "homework", "1", "false"}
	reference := Fingerprint(base...)

	for i := range base {
		mutated := make([]string, len(base))
		copy(mutated, base)
		mutated[i] = mutated[i] + "x"
		assert.NotEqual(t, reference, Fingerprint(mutated...), "field %d should affect the fingerprint", i)
	}
}

func TestSameIDs(t *testing.T) {
	a := Snapshot{1: {Fingerprint: "h1"}, 2: {Fingerprint: "h2"}}
	b := Snapshot{1: {Fingerprint: "other"}, 2: {Fingerprint: "h2"}}
	c := Snapshot{1: {Fingerprint: "h1"}, 3: {Fingerprint: "h3"}}

	assert.True(t, a.SameIDs(b), "fingerprints must not matter for membership comparison")
	assert.False(t, a.SameIDs(c))
	assert.False(t, a.SameIDs(Snapshot{}))
	assert.True(t, Snapshot{}.SameIDs(Snapshot{}))
}

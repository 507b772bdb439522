// Package monitor contains the pure change-detection model: fingerprints,
// snapshots, the differ and the in-memory monitor state. Nothing in this
// package performs I/O; the app layer owns all fetching and notification.
package monitor

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Entry is one record inside a snapshot: its comparison fingerprint plus a
// short human-readable summary used when a notification is emitted.
type Entry struct {
	Fingerprint string
	Summary     string
}

// Snapshot maps a record's stable ID to its entry. One snapshot exists per
// monitored category per poll cycle.
type Snapshot map[int64]Entry

// IDSet returns the set of IDs present in the snapshot.
func (s Snapshot) IDSet() map[int64]struct{} {
	ids := make(map[int64]struct{}, len(s))
	for id := range s {
		ids[id] = struct{}{}
	}
	return ids
}

// SameIDs reports whether both snapshots cover exactly the same record IDs,
// ignoring fingerprints. Used by the stability verifier, which only cares
// about membership flapping.
func (s Snapshot) SameIDs(other Snapshot) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if _, ok := other[id]; !ok {
			return false
		}
	}
	return true
}

// Fingerprint computes a fixed-length digest over a canonical concatenation
// of a record's tracked fields. Equal field tuples always produce equal
// digests; any change to a tracked field changes the digest. The result is
// used only for equality comparison and never shown to the user.
func Fingerprint(fields ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(sum[:])
}

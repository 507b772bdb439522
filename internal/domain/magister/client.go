package magister

import (
	"context"
	"time"
)

// Client defines the read-only fetch surface of the Magister portal.
// Implementations classify failures as *AuthError or *TransientError so the
// monitor can branch on the failure class instead of catching generic errors.
// Implementations must be safe for concurrent use.
type Client interface {
	// Grades returns the most recently entered grades, newest first.
	Grades(ctx context.Context, limit int) ([]Grade, error)
	// Folders returns the student's message folders.
	Folders(ctx context.Context) ([]MessageFolder, error)
	// Messages returns the newest messages in a folder.
	Messages(ctx context.Context, folderID int64, limit int) ([]Message, error)
	// Schedule returns appointments in the half-open date range [from, to].
	Schedule(ctx context.Context, from, to time.Time) ([]Appointment, error)
	// Assignments returns handed-out assignments, open or not.
	Assignments(ctx context.Context, limit int) ([]Assignment, error)
}

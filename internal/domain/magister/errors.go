package magister

import "fmt"

// AuthError marks a fetch rejected with 401/403. It triggers the token
// refresh hook and is never retried at the fetch boundary.
type AuthError struct {
	StatusCode int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("magister: authentication rejected (status %d)", e.StatusCode)
}

// TransientError covers network failures, timeouts, server-side errors and
// undecodable responses. The affected category is skipped for the cycle and
// its baseline left untouched.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("magister: %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

package provider

import "fmt"

// TransientError marks a failure that is worth retrying: timeouts,
// connection resets, 5xx responses and rate limiting.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient fetch error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks a failure that retrying cannot fix, such as a bad
// token or an unknown station. The location is skipped for this cycle.
type PermanentError struct {
	StatusCode int
	Err        error
}

func (e *PermanentError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("permanent fetch error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("permanent fetch error: %v", e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }

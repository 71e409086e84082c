package domain

import "errors"

// ErrUserRequired missing user identifier, rejected before any write
var ErrUserRequired = errors.New("user id is required")

// ErrCourseRequired missing course identifier, rejected before any write
var ErrCourseRequired = errors.New("course id is required")

// ErrDuplicateCompletion the same lesson completion was already recorded
// this week (raised by the caller-side dedup guard, not by the engine)
var ErrDuplicateCompletion = errors.New("lesson completion already recorded this week")

// RecoveryError reports the single unmet precondition of a rejected streak
// recovery. No state changes when it is returned.
type RecoveryError struct {
	Reason string
}

func NewRecoveryError(reason string) *RecoveryError {
	return &RecoveryError{Reason: reason}
}

func (e *RecoveryError) Error() string {
	return "streak recovery rejected: " + e.Reason
}

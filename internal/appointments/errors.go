package appointments

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an appointment id does not resolve.
var ErrNotFound = errors.New("appointment not found")

// ValidationError reports a missing or malformed payload field.
// The operation is not attempted when validation fails.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("appointments: invalid %s: %s", e.Field, e.Reason)
}

// InvalidTransitionError reports that the current status does not permit
// the requested action.
type InvalidTransitionError struct {
	From   Status
	Action Action
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("appointments: cannot %s an appointment in status %q", e.Action, e.From)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsInvalidTransition reports whether err is an InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var te *InvalidTransitionError
	return errors.As(err, &te)
}

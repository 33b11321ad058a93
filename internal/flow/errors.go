package flow

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSlotTaken signals a booking collision: the draft's (date, slot) pair
// is already in the ledger.
var ErrSlotTaken = errors.New("time slot already booked")

// ValidationError lists the required contact fields that were empty.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}

// TransitionError reports an action fired in a step that does not allow it.
type TransitionError struct {
	Step   Step
	Action string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s while in step %q", e.Action, e.Step)
}

// IsValidation reports whether err is a required-field failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConflict reports whether err is a booking collision.
func IsConflict(err error) bool {
	return errors.Is(err, ErrSlotTaken)
}

// IsBadTransition reports whether err is an out-of-step action.
func IsBadTransition(err error) bool {
	var te *TransitionError
	return errors.As(err, &te)
}

package readiness

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/devinit/internal/devtable"
)

var (
	// ErrAlreadyReady is returned when a transition is attempted on a Ready component.
	ErrAlreadyReady = errors.New("component already ready")
	// ErrInvalidTransition is returned for any other transition the state machine forbids.
	ErrInvalidTransition = errors.New("invalid readiness transition")
)

// TransitionError describes a refused transition of a single component.
type TransitionError struct {
	ID   devtable.ID
	From Status
	To   Status
	Err  error
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("component %d: %s -> %s: %v", e.ID, e.From, e.To, e.Err)
}

// Unwrap returns the sentinel describing why the transition was refused.
func (e *TransitionError) Unwrap() error {
	return e.Err
}

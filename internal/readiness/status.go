package readiness

import "fmt"

// Status is the initialization state of one component.
type Status int32

const (
	// Uninitialized is the state of every component at startup.
	Uninitialized Status = iota
	// Initializing means a caller announced it is bringing the component up.
	Initializing
	// Ready means initialization completed. There is no way back.
	Ready
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("Status(%d)", int32(s))
	}
}

// Statuses lists every status in lifecycle order.
var Statuses = []Status{Uninitialized, Initializing, Ready}

// Error taxonomy and the per-run fault log.
//
// Entity-local faults (scheduling into the past, invariant violations,
// failing subscribers) are recorded and the run continues; kernel faults
// abort the run but leave all state inspectable.

package sim

import (
	"errors"
	"fmt"
)

// Sentinel errors for the four fault classes. Callers match them with
// errors.Is after wrapping.
var (
	// ErrPastTimestamp is returned by Schedule when the event timestamp is
	// earlier than the current virtual time.
	ErrPastTimestamp = errors.New("event timestamp is in the past")

	// ErrInvariant marks a rejected entity mutation: PM over-allocation,
	// a second terminal transition on a request, or a lifecycle transition
	// from an invalid source state.
	ErrInvariant = errors.New("invariant violation")

	// ErrKernel marks an unrecoverable kernel condition; the run aborts.
	ErrKernel = errors.New("kernel fault")
)

// FaultKind classifies an entry in the fault log.
type FaultKind int

const (
	FaultScheduling FaultKind = iota
	FaultInvariant
	FaultSubscriber
	FaultKernel
)

func (k FaultKind) String() string {
	switch k {
	case FaultScheduling:
		return "scheduling"
	case FaultInvariant:
		return "invariant"
	case FaultSubscriber:
		return "subscriber"
	case FaultKernel:
		return "kernel"
	default:
		return fmt.Sprintf("FaultKind(%d)", int(k))
	}
}

// Fault is one diagnostic record in the run's fault log. Time is the
// virtual time at which the fault was observed.
type Fault struct {
	Kind   FaultKind
	Time   int64
	Detail string
}

func (f Fault) String() string {
	return fmt.Sprintf("[%s@%d] %s", f.Kind, f.Time, f.Detail)
}

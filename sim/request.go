// Defines the Request entity: a demand for capacity entering the system,
// admitted or rejected exactly once, then optionally stopped.

package sim

import "fmt"

// RequestID indexes the request arena of a Simulation.
type RequestID int

// NoAction marks an absent follow-up action on a request.
const NoAction ActionID = -1

// RequestStatus is the lifecycle state of a request.
type RequestStatus int

const (
	RequestArrived RequestStatus = iota
	RequestAccepted
	RequestRejected
	RequestStopped
)

func (st RequestStatus) String() string {
	switch st {
	case RequestArrived:
		return "arrived"
	case RequestAccepted:
		return "accepted"
	case RequestRejected:
		return "rejected"
	case RequestStopped:
		return "stopped"
	default:
		return fmt.Sprintf("RequestStatus(%d)", int(st))
	}
}

// terminal reports whether the admission decision has been made.
// Accepted requests may still transition to Stopped.
func (st RequestStatus) terminal() bool {
	return st != RequestArrived
}

// Request asks the data center to place one VM. It is owned by the kernel's
// entity table; VMs and deployments refer to it by id, never by pointer.
type Request struct {
	ID          RequestID
	ArrivalTime int64
	Demand      int64 // resource units, mirrors the VM's demand
	VM          VMID  // the VM this request wants placed
	Status      RequestStatus

	// Required marks an initialization request whose rejection is a kernel
	// fault and aborts the run.
	Required bool
	// Ignored excludes the request from tracker statistics. It is still
	// admitted or rejected normally.
	Ignored bool

	// Optional follow-up actions, executed through action.execute once the
	// admission decision lands. NoAction when unset.
	OnAccept ActionID
	OnReject ActionID
}

func (r *Request) String() string {
	return fmt.Sprintf("Request(ID: %d, VM: %d, Status: %s, ArrivalTime: %d)", r.ID, r.VM, r.Status, r.ArrivalTime)
}

// AddRequest records a new request for the given VM in the entity table.
// The request starts without a status transition; it enters Arrived when
// its request.arrive event is dispatched.
func (s *Simulation) AddRequest(vm VMID, arrival int64) *Request {
	v := s.VM(vm)
	r := &Request{
		ID:          RequestID(len(s.requests)),
		ArrivalTime: arrival,
		Demand:      v.Demand,
		VM:          vm,
		Status:      RequestArrived,
		OnAccept:    NoAction,
		OnReject:    NoAction,
	}
	s.requests = append(s.requests, r)
	s.vmRequest[vm] = r.ID
	return r
}

// Request resolves a request id through the arena. Panics on an id that was
// never issued, which always indicates a corrupted payload.
func (s *Simulation) Request(id RequestID) *Request {
	if id < 0 || int(id) >= len(s.requests) {
		panic(fmt.Sprintf("unknown request id %d", id))
	}
	return s.requests[id]
}

// Requests returns the request arena for read-only iteration.
func (s *Simulation) Requests() []*Request {
	return s.requests
}

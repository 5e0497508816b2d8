// sim/kernel.go
//
// The simulation kernel: one Simulation owns the virtual clock, the event
// queue, the event bus, and the entity arenas, and drives the main loop.
// There is no process-wide state; independent simulations can run side by
// side in one process.

package sim

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// KernelState is the loop state of a simulation.
type KernelState int

const (
	KernelIdle KernelState = iota
	KernelRunning
	KernelDrained
	KernelAborted
)

func (st KernelState) String() string {
	switch st {
	case KernelIdle:
		return "idle"
	case KernelRunning:
		return "running"
	case KernelDrained:
		return "drained"
	case KernelAborted:
		return "aborted"
	default:
		return fmt.Sprintf("KernelState(%d)", int(st))
	}
}

// RunLimits bounds a run. EndTime <= 0 means no horizon; MaxEvents <= 0
// means no event budget. Exceeding the horizon drains the run cleanly;
// tripping the event budget is the safety valve for schedules that never
// exhaust (handlers perpetually rescheduling) and aborts the run.
type RunLimits struct {
	EndTime   int64
	MaxEvents int
}

// Simulation is the core object: clock, queue, bus, arenas, policies, and
// the diagnostic record of everything that happened.
type Simulation struct {
	RunID uuid.UUID
	Name  string

	clock Clock
	queue EventQueue
	bus   EventBus

	nextSeq uint64
	state   KernelState

	eventLog []Event
	faults   []Fault
	metrics  *Metrics

	allocator   Allocator
	admission   AdmissionPolicy
	interpreter StepInterpreter

	requests    []*Request
	pms         []*PhysicalMachine
	vms         []*VirtualMachine
	instances   []*Instance
	deployments []*Deployment
	actions     []*Action

	// vmRequest links a VM back to the request that asked for it, for the
	// reject pathway when placement fails.
	vmRequest map[VMID]RequestID
}

// NewSimulation creates an empty simulation with the given allocator.
// A nil allocator defaults to first-fit; admission defaults to the
// capacity policy. The kernel's own entity handlers are subscribed first,
// so user subscribers observe entity state after the kernel has applied
// the transition.
func NewSimulation(name string, allocator Allocator) *Simulation {
	if allocator == nil {
		allocator = FirstFit{}
	}
	s := &Simulation{
		RunID:       uuid.New(),
		Name:        name,
		state:       KernelIdle,
		metrics:     NewMetrics(),
		allocator:   allocator,
		admission:   CapacityAdmission{},
		interpreter: defaultInterpreter{},
		vmRequest:   make(map[VMID]RequestID),
	}
	s.registerKernelHandlers()
	return s
}

// Now returns the current virtual time in ticks.
func (s *Simulation) Now() int64 {
	return s.clock.Now()
}

// State returns the kernel loop state.
func (s *Simulation) State() KernelState {
	return s.state
}

// Metrics returns the per-run metrics.
func (s *Simulation) Metrics() *Metrics {
	return s.metrics
}

// Faults returns every fault recorded so far, in observation order.
func (s *Simulation) Faults() []Fault {
	return s.faults
}

// EventLog returns the dispatched events in dispatch order. With a fixed
// input trace, two runs produce identical logs.
func (s *Simulation) EventLog() []Event {
	return s.eventLog
}

// SetAdmissionPolicy replaces the admission policy. Passing nil restores
// capacity-based admission.
func (s *Simulation) SetAdmissionPolicy(p AdmissionPolicy) {
	if p == nil {
		p = CapacityAdmission{}
	}
	s.admission = p
}

// Allocator returns the placement policy in use.
func (s *Simulation) Allocator() Allocator {
	return s.allocator
}

// Subscribe registers a handler for a topic pattern on the bus.
func (s *Simulation) Subscribe(pattern Topic, h Handler) {
	s.bus.Subscribe(pattern, h)
}

// SubscribeFunc registers a plain function as a handler.
func (s *Simulation) SubscribeFunc(pattern Topic, f func(*Simulation, Event) error) {
	s.bus.Subscribe(pattern, HandlerFunc(f))
}

// Schedule inserts an event into the queue at the given virtual time.
// Scheduling into the past is a SchedulingFault: the error is recorded,
// the queue is untouched, and the run continues.
func (s *Simulation) Schedule(topic Topic, at int64, payload any) error {
	if at < s.clock.Now() {
		err := fmt.Errorf("%w: %s at %d, now %d", ErrPastTimestamp, topic, at, s.clock.Now())
		s.recordFault(FaultScheduling, err.Error())
		return err
	}
	ev := Event{Topic: topic, Time: at, Payload: payload, seq: s.nextSeq}
	s.nextSeq++
	s.queue.push(ev)
	return nil
}

// emit schedules a follow-up event at the current virtual time. Handlers
// use it to announce transitions they have just applied; the event lands
// behind everything already queued for this tick.
func (s *Simulation) emit(topic Topic, payload any) error {
	return s.Schedule(topic, s.clock.Now(), payload)
}

// Run drives the main loop: pop the earliest event, advance the clock,
// publish to the bus, repeat. It returns nil when the run drains (queue
// empty or horizon reached) and an ErrKernel-wrapped error when the run
// aborts. Partial state stays inspectable either way.
func (s *Simulation) Run(limits RunLimits) error {
	switch s.state {
	case KernelAborted:
		return fmt.Errorf("%w: simulation already aborted", ErrKernel)
	case KernelRunning:
		return fmt.Errorf("%w: Run is not reentrant", ErrKernel)
	}
	s.state = KernelRunning
	logrus.Infof("%s@%d> ======== START ========", s.Name, s.Now())

	processed := 0
	for {
		next, ok := s.queue.peekTime()
		if !ok {
			s.state = KernelDrained
			break
		}
		if limits.EndTime > 0 && next > limits.EndTime {
			s.state = KernelDrained
			break
		}
		ev, _ := s.queue.pop()
		s.clock.advanceTo(ev.Time)
		s.eventLog = append(s.eventLog, ev)
		logrus.Debugf("[tick %07d] dispatch %s (seq %d)", s.Now(), ev.Topic, ev.seq)
		s.bus.publish(s, ev)

		if s.state == KernelAborted {
			return fmt.Errorf("%w: %s", ErrKernel, s.lastKernelFault())
		}
		processed++
		if limits.MaxEvents > 0 && processed >= limits.MaxEvents && s.queue.Len() > 0 {
			s.abortf("safety valve: %d events processed with %d still pending", processed, s.queue.Len())
			return fmt.Errorf("%w: %s", ErrKernel, s.lastKernelFault())
		}
	}

	logrus.Infof("%s@%d> ======== STOP ========", s.Name, s.Now())
	return nil
}

// recordFault appends to the fault log and bumps the fault counter.
func (s *Simulation) recordFault(kind FaultKind, detail string) {
	s.faults = append(s.faults, Fault{Kind: kind, Time: s.Now(), Detail: detail})
	s.metrics.faultRecorded()
}

// invariantf records an InvariantViolation: the offending mutation has
// been discarded and the entity remains in its last valid state.
func (s *Simulation) invariantf(format string, args ...any) {
	detail := fmt.Sprintf(format, args...)
	s.recordFault(FaultInvariant, detail)
	logrus.Warnf("[tick %07d] invariant violation: %s", s.Now(), detail)
}

// invariantErr records an error already carrying ErrInvariant context.
func (s *Simulation) invariantErr(err error) {
	s.recordFault(FaultInvariant, err.Error())
	logrus.Warnf("[tick %07d] %v", s.Now(), err)
}

// abortf records a KernelFault and halts the loop. State is preserved for
// diagnostics, never rolled back.
func (s *Simulation) abortf(format string, args ...any) {
	detail := fmt.Sprintf(format, args...)
	s.recordFault(FaultKernel, detail)
	s.state = KernelAborted
	logrus.Errorf("[tick %07d] kernel fault: %s", s.Now(), detail)
}

func (s *Simulation) lastKernelFault() string {
	for i := len(s.faults) - 1; i >= 0; i-- {
		if s.faults[i].Kind == FaultKernel {
			return s.faults[i].Detail
		}
	}
	return "unknown kernel fault"
}

// Report prints the end-of-run summary: terminal kernel state, admission
// statistics, and every fault encountered, even on an aborted run.
func (s *Simulation) Report() {
	fmt.Printf("%s@%d> run %s finished in state %q\n", s.Name, s.Now(), s.RunID, s.state)
	s.metrics.Report(s.Name, s.Now())
	if len(s.faults) > 0 {
		fmt.Printf("%s@%d> %d fault(s):\n", s.Name, s.Now(), len(s.faults))
		for _, f := range s.faults {
			fmt.Printf("  %s\n", f)
		}
	}
}

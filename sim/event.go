// Defines the event model: topics, payloads, and the Event record itself.
// Events are plain data. Handlers never receive closures or continuations;
// everything that happens later in the run is an explicit future-timestamped
// event in the queue, which keeps the control flow inspectable and replayable.

package sim

import "strings"

// Topic is the named category of an event, used for subscriber matching.
// The built-in topics below form a closed set covering the whole entity
// lifecycle. Custom creates user-defined topics outside that set.
type Topic string

const (
	TopicRequestArrive Topic = "request.arrive"
	TopicRequestAccept Topic = "request.accept"
	TopicRequestReject Topic = "request.reject"
	TopicRequestStop   Topic = "request.stop"

	TopicActionExecute Topic = "action.execute"

	TopicAppStart        Topic = "app.start"
	TopicAppStop         Topic = "app.stop"
	TopicContainerStart  Topic = "container.start"
	TopicContainerStop   Topic = "container.stop"
	TopicControllerStart Topic = "controller.start"
	TopicControllerStop  Topic = "controller.stop"

	TopicDeploymentRun     Topic = "deployment.run"
	TopicDeploymentPend    Topic = "deployment.pend"
	TopicDeploymentDegrade Topic = "deployment.degrade"
	TopicDeploymentScale   Topic = "deployment.scale"
	TopicDeploymentStop    Topic = "deployment.stop"

	TopicVMAllocate   Topic = "vm.allocate"
	TopicVMDeallocate Topic = "vm.deallocate"

	TopicSimLog Topic = "sim.log"
)

// builtinTopics is the closed set of kernel-owned topics.
var builtinTopics = map[Topic]struct{}{
	TopicRequestArrive: {}, TopicRequestAccept: {}, TopicRequestReject: {}, TopicRequestStop: {},
	TopicActionExecute: {},
	TopicAppStart:      {}, TopicAppStop: {},
	TopicContainerStart: {}, TopicContainerStop: {},
	TopicControllerStart: {}, TopicControllerStop: {},
	TopicDeploymentRun: {}, TopicDeploymentPend: {}, TopicDeploymentDegrade: {},
	TopicDeploymentScale: {}, TopicDeploymentStop: {},
	TopicVMAllocate: {}, TopicVMDeallocate: {},
	TopicSimLog: {},
}

// Custom returns a user-defined topic in the "custom" family. Custom topics
// participate in scheduling and dispatch exactly like built-in ones but are
// never fired by the kernel itself.
func Custom(name string) Topic {
	return Topic("custom." + name)
}

// IsBuiltin reports whether t is one of the kernel-owned topics.
func (t Topic) IsBuiltin() bool {
	_, ok := builtinTopics[t]
	return ok
}

// Family returns the topic family, i.e. the part before the first dot
// ("vm.allocate" -> "vm").
func (t Topic) Family() string {
	if i := strings.IndexByte(string(t), '.'); i >= 0 {
		return string(t)[:i]
	}
	return string(t)
}

// Matches reports whether topic t matches the subscription pattern.
// A pattern is an exact topic, a family wildcard such as "deployment.*",
// or the global wildcard "*".
func (t Topic) Matches(pattern Topic) bool {
	if pattern == "*" || pattern == t {
		return true
	}
	if fam, ok := strings.CutSuffix(string(pattern), ".*"); ok {
		return t.Family() == fam
	}
	return false
}

// Event is a single immutable record in the simulation schedule.
// The ordering key is (Time, seq): seq is assigned by the kernel at
// scheduling time and breaks ties FIFO, which makes every run with the
// same input trace bit-for-bit reproducible.
type Event struct {
	Topic   Topic
	Time    int64 // virtual time in ticks
	Payload any   // typed per-topic payload, see below

	seq uint64
}

// Seq returns the insertion sequence number assigned when the event was
// scheduled.
func (e Event) Seq() uint64 {
	return e.seq
}

// ArrivalPayload carries the requests entering the system on a
// request.arrive event. Requests that share an arrival tick may be grouped
// into a single event; they are still admitted individually, in order.
type ArrivalPayload struct {
	Requests []RequestID
}

// RequestPayload carries a single request for accept/reject/stop events.
// Reason is set on request.reject.
type RequestPayload struct {
	Request RequestID
	Reason  string
}

// ActionPayload identifies one step of an action on action.execute.
type ActionPayload struct {
	Action ActionID
	Step   int
}

// LifecyclePayload carries app/container/controller start and stop events.
type LifecyclePayload struct {
	Instance InstanceID
	VM       VMID
}

// DeploymentPayload carries deployment state transitions with the replica
// counts at the moment of the transition.
type DeploymentPayload struct {
	Deployment DeploymentID
	Desired    int
	Current    int
}

// VMPayload carries vm.allocate / vm.deallocate events. PM is NoPM when a
// vm.allocate is scheduled as a placement trigger and the host is not yet
// chosen.
type VMPayload struct {
	VM VMID
	PM PMID
}

// LogPayload is the free-form diagnostic record carried by sim.log.
type LogPayload struct {
	Message string
}

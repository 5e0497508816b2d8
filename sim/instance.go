// Defines the workload instances that run on VMs: applications, containers,
// and controllers. Their state strictly mirrors the *.start / *.stop event
// stream; out-of-order transitions are rejected.

package sim

import "fmt"

// InstanceID indexes the instance arena.
type InstanceID int

// InstanceKind distinguishes applications, containers, and controllers.
// Each kind has its own start/stop topic pair.
type InstanceKind int

const (
	KindApp InstanceKind = iota
	KindContainer
	KindController
)

func (k InstanceKind) String() string {
	switch k {
	case KindApp:
		return "app"
	case KindContainer:
		return "container"
	case KindController:
		return "controller"
	default:
		return fmt.Sprintf("InstanceKind(%d)", int(k))
	}
}

// StartTopic returns the start topic for this kind.
func (k InstanceKind) StartTopic() Topic {
	switch k {
	case KindApp:
		return TopicAppStart
	case KindContainer:
		return TopicContainerStart
	default:
		return TopicControllerStart
	}
}

// StopTopic returns the stop topic for this kind.
func (k InstanceKind) StopTopic() Topic {
	switch k {
	case KindApp:
		return TopicAppStop
	case KindContainer:
		return TopicContainerStop
	default:
		return TopicControllerStop
	}
}

// InstanceStatus is the run state of an instance.
type InstanceStatus int

const (
	InstanceStopped InstanceStatus = iota
	InstanceRunning
)

func (st InstanceStatus) String() string {
	if st == InstanceRunning {
		return "running"
	}
	return "stopped"
}

// Instance is one application, container, or controller hosted on a VM.
// Deployment is NoDeployment for standalone instances; containers and
// controllers that belong to a deployment count as its replicas.
type Instance struct {
	ID         InstanceID
	Kind       InstanceKind
	Name       string
	HostVM     VMID
	Deployment DeploymentID
	Status     InstanceStatus
}

func (in *Instance) String() string {
	return fmt.Sprintf("%s(%s, vm=%d, %s)", in.Kind, in.Name, in.HostVM, in.Status)
}

// AddInstance registers an instance on the given VM, initially Stopped.
// Pass NoDeployment for instances not managed by a deployment.
func (s *Simulation) AddInstance(kind InstanceKind, name string, vm VMID, dep DeploymentID) *Instance {
	in := &Instance{
		ID:         InstanceID(len(s.instances)),
		Kind:       kind,
		Name:       name,
		HostVM:     vm,
		Deployment: dep,
		Status:     InstanceStopped,
	}
	s.instances = append(s.instances, in)
	return in
}

// Instance resolves an instance id through the arena.
func (s *Simulation) Instance(id InstanceID) *Instance {
	if id < 0 || int(id) >= len(s.instances) {
		panic(fmt.Sprintf("unknown instance id %d", id))
	}
	return s.instances[id]
}

// Instances returns the instance arena for read-only iteration.
func (s *Simulation) Instances() []*Instance {
	return s.instances
}

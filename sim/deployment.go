// Defines the Deployment entity: a desired-replica-count abstraction over
// container instances spread across the VMs of a cluster.

package sim

import "fmt"

// DeploymentID indexes the deployment arena. NoDeployment marks a
// standalone instance.
type DeploymentID int

// NoDeployment is the nil value for deployment references.
const NoDeployment DeploymentID = -1

// DeploymentState is derived from the replica counts, with one extra bit
// of cause: a shortfall from an explicit scale request reads as Scaling,
// a shortfall from replica loss reads as Degraded.
type DeploymentState int

const (
	DeploymentPending DeploymentState = iota
	DeploymentRunning
	DeploymentDegraded
	DeploymentScaling
	DeploymentStopped
)

func (st DeploymentState) String() string {
	switch st {
	case DeploymentPending:
		return "pending"
	case DeploymentRunning:
		return "running"
	case DeploymentDegraded:
		return "degraded"
	case DeploymentScaling:
		return "scaling"
	case DeploymentStopped:
		return "stopped"
	default:
		return fmt.Sprintf("DeploymentState(%d)", int(st))
	}
}

// topic maps a deployment state to the transition event announcing it.
func (st DeploymentState) topic() Topic {
	switch st {
	case DeploymentPending:
		return TopicDeploymentPend
	case DeploymentRunning:
		return TopicDeploymentRun
	case DeploymentDegraded:
		return TopicDeploymentDegrade
	case DeploymentScaling:
		return TopicDeploymentScale
	default:
		return TopicDeploymentStop
	}
}

// Deployment tracks desired vs. current replicas. Replicas are container
// instances bound to this deployment; the instance arena owns them and the
// relation is recorded by id only.
type Deployment struct {
	ID      DeploymentID
	Name    string
	Desired int
	Current int
	State   DeploymentState

	// Nodes is the VM pool replicas are placed on, round-robin.
	Nodes    []VMID
	nextNode int

	// scaling records that the last replica-count change was an explicit
	// scale request. Replica counts alone cannot distinguish Scaling from
	// Degraded.
	scaling bool

	// starting and stopping count replicas with a lifecycle event scheduled
	// but not yet dispatched, so a scale request sizes its delta against
	// what the deployment will have, not what it has this instant.
	starting int
	stopping int
}

// expected returns the replica count the deployment converges to once all
// in-flight lifecycle events dispatch.
func (d *Deployment) expected() int {
	return d.Current + d.starting - d.stopping
}

func (d *Deployment) String() string {
	return fmt.Sprintf("Deployment(%s, %d/%d, %s)", d.Name, d.Current, d.Desired, d.State)
}

// replicas returns the ids of this deployment's currently running replica
// instances, in creation order.
func (s *Simulation) replicas(d *Deployment) []InstanceID {
	var ids []InstanceID
	for _, in := range s.instances {
		if in.Deployment == d.ID && in.Status == InstanceRunning {
			ids = append(ids, in.ID)
		}
	}
	return ids
}

// Deployment resolves a deployment id through the arena.
func (s *Simulation) Deployment(id DeploymentID) *Deployment {
	if id < 0 || int(id) >= len(s.deployments) {
		panic(fmt.Sprintf("unknown deployment id %d", id))
	}
	return s.deployments[id]
}

// Deployments returns the deployment arena for read-only iteration.
func (s *Simulation) Deployments() []*Deployment {
	return s.deployments
}

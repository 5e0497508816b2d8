// The deployment manager: watches replica counts against desired counts
// and emits deployment state transitions exactly once per boundary
// crossing. Replica changes always flow through container start/stop
// events, and node VMs are brought up through the same vm.allocate
// pathway as any other caller.

package sim

import "fmt"

// Apply registers a deployment with the given desired replica count and
// node pool, announces its initial state, and starts rolling replicas out.
// A zero-replica deployment is born Stopped; there is no rollout to wait
// for.
func (s *Simulation) Apply(name string, replicas int, nodes []VMID) *Deployment {
	d := &Deployment{
		ID:      DeploymentID(len(s.deployments)),
		Name:    name,
		Desired: replicas,
		Current: 0,
		State:   DeploymentPending,
		Nodes:   nodes,
	}
	s.deployments = append(s.deployments, d)
	if replicas == 0 {
		d.State = DeploymentStopped
		s.emit(TopicDeploymentStop, DeploymentPayload{Deployment: d.ID, Desired: d.Desired, Current: d.Current})
		return d
	}
	s.emit(TopicDeploymentPend, DeploymentPayload{Deployment: d.ID, Desired: d.Desired, Current: d.Current})
	for i := 0; i < replicas; i++ {
		s.startReplica(d)
	}
	return d
}

// Scale sets a new desired replica count. The change is recorded as
// operator-initiated, which is what distinguishes the Scaling state from
// Degraded while the replicas catch up.
func (s *Simulation) Scale(id DeploymentID, replicas int) error {
	if replicas < 0 {
		return fmt.Errorf("scale %d: replica count must be >= 0", replicas)
	}
	d := s.Deployment(id)
	if replicas == d.Desired && replicas == d.expected() {
		return nil
	}
	// Delta is sized against the converged replica count, so a degraded
	// deployment scaled back up regrows the lost replicas too.
	delta := replicas - d.expected()
	d.Desired = replicas
	d.scaling = true

	if delta > 0 {
		for i := 0; i < delta; i++ {
			s.startReplica(d)
		}
	} else {
		s.stopReplicas(d, -delta)
	}
	s.reevaluate(d)
	return nil
}

// startReplica creates one container replica on the next node of the pool
// and schedules its start. An unbound node VM gets a vm.allocate trigger
// first; the manager never touches the PM pool directly.
func (s *Simulation) startReplica(d *Deployment) {
	if len(d.Nodes) == 0 {
		s.invariantf("deployment %s has no nodes to place replicas on", d.Name)
		return
	}
	node := d.Nodes[d.nextNode%len(d.Nodes)]
	d.nextNode++

	if s.VM(node).Status == VMUnallocated {
		s.emit(TopicVMAllocate, VMPayload{VM: node, PM: NoPM})
	}
	name := fmt.Sprintf("%s-%d", d.Name, d.nextNode)
	in := s.AddInstance(KindContainer, name, node, d.ID)
	d.starting++
	s.emit(in.Kind.StartTopic(), LifecyclePayload{Instance: in.ID, VM: node})
}

// stopReplicas schedules stops for the n newest running replicas.
func (s *Simulation) stopReplicas(d *Deployment, n int) {
	ids := s.replicas(d)
	for i := 0; i < n && len(ids) > 0; i++ {
		id := ids[len(ids)-1]
		ids = ids[:len(ids)-1]
		in := s.Instance(id)
		d.stopping++
		s.emit(in.Kind.StopTopic(), LifecyclePayload{Instance: in.ID, VM: in.HostVM})
	}
}

// reevaluate derives the deployment state from the replica counts and the
// operator-initiated flag, and announces the transition iff the state
// actually changed. Re-evaluation without change emits nothing.
//
// Over-replication (more running replicas than desired, e.g. a stray
// container.start bound to the deployment) reads as Running since the
// desired count is met, and the surplus is reconciled down through the
// regular stop pathway.
func (s *Simulation) reevaluate(d *Deployment) {
	if surplus := d.Current - d.stopping - d.Desired; surplus > 0 {
		s.stopReplicas(d, surplus)
	}
	var next DeploymentState
	switch {
	case d.Desired == 0:
		next = DeploymentStopped
	case d.Current == d.Desired:
		next = DeploymentRunning
	case d.scaling:
		next = DeploymentScaling
	case d.Current > d.Desired:
		next = DeploymentRunning
	case d.Current == 0:
		next = DeploymentPending
	default:
		next = DeploymentDegraded
	}
	if next == DeploymentRunning || next == DeploymentStopped {
		// Caught up: the next shortfall without a scale request is a loss.
		d.scaling = false
	}
	if next == d.State {
		return
	}
	d.State = next
	s.emit(next.topic(), DeploymentPayload{Deployment: d.ID, Desired: d.Desired, Current: d.Current})
}

// The kernel's own subscriptions: the entity state machines that react to
// dispatched events and emit follow-ups. Entities never call each other
// directly; every cross-entity effect goes through the bus.

package sim

import "fmt"

func (s *Simulation) registerKernelHandlers() {
	s.SubscribeFunc(TopicRequestArrive, (*Simulation).handleRequestArrive)
	s.SubscribeFunc(TopicRequestAccept, (*Simulation).handleRequestAccept)
	s.SubscribeFunc(TopicRequestReject, (*Simulation).handleRequestReject)
	s.SubscribeFunc(TopicRequestStop, (*Simulation).handleRequestStop)

	s.SubscribeFunc(TopicVMAllocate, (*Simulation).handleVMAllocate)
	s.SubscribeFunc(TopicVMDeallocate, (*Simulation).handleVMDeallocate)

	for _, kind := range []InstanceKind{KindApp, KindContainer, KindController} {
		s.SubscribeFunc(kind.StartTopic(), (*Simulation).handleInstanceStart)
		s.SubscribeFunc(kind.StopTopic(), (*Simulation).handleInstanceStop)
	}

	s.SubscribeFunc(TopicActionExecute, (*Simulation).handleActionExecute)
	s.SubscribeFunc(TopicSimLog, (*Simulation).handleSimLog)

	s.registerLogFormatters()
}

// handleRequestArrive runs admission for each arriving request. Admission
// and placement commit happen here, in arrival order, so two same-tick
// requests see each other's reservations; the accept and vm.allocate
// events that follow are announcements of the committed decision.
func (s *Simulation) handleRequestArrive(ev Event) error {
	p, ok := ev.Payload.(ArrivalPayload)
	if !ok {
		return fmt.Errorf("request.arrive: unexpected payload %T", ev.Payload)
	}
	for _, id := range p.Requests {
		req := s.Request(id)
		if !req.Ignored {
			s.metrics.requestArrived()
		}
		s.emit(TopicSimLog, LogPayload{Message: "arrive " + s.VM(req.VM).Name + requestTags(req)})

		pm, admitted, reason := s.admission.Admit(s, req)
		if admitted {
			vm := s.VM(req.VM)
			if err := s.bindVM(vm, s.PM(pm)); err != nil {
				// The policy proposed a placement the bookkeeping refuses.
				s.invariantErr(err)
				admitted, reason = false, "no capacity"
			} else {
				s.emit(TopicRequestAccept, RequestPayload{Request: id})
				s.emit(TopicVMAllocate, VMPayload{VM: vm.ID, PM: pm})
			}
		}
		if !admitted {
			if req.Required {
				s.abortf("required request %d (%s) rejected: %s", id, s.VM(req.VM).Name, reason)
				return nil
			}
			s.emit(TopicRequestReject, RequestPayload{Request: id, Reason: reason})
		}
	}
	return nil
}

func (s *Simulation) handleRequestAccept(ev Event) error {
	p, ok := ev.Payload.(RequestPayload)
	if !ok {
		return fmt.Errorf("request.accept: unexpected payload %T", ev.Payload)
	}
	req := s.Request(p.Request)
	if req.Status.terminal() {
		s.invariantf("accept on request %d already %s", req.ID, req.Status)
		return nil
	}
	req.Status = RequestAccepted
	if !req.Ignored {
		s.metrics.requestAccepted()
	}
	s.emit(TopicSimLog, LogPayload{Message: "accept " + s.VM(req.VM).Name + requestTags(req)})
	if req.OnAccept != NoAction {
		s.emit(TopicActionExecute, ActionPayload{Action: req.OnAccept, Step: 0})
	}
	return nil
}

func (s *Simulation) handleRequestReject(ev Event) error {
	p, ok := ev.Payload.(RequestPayload)
	if !ok {
		return fmt.Errorf("request.reject: unexpected payload %T", ev.Payload)
	}
	req := s.Request(p.Request)
	if req.Status.terminal() {
		s.invariantf("reject on request %d already %s", req.ID, req.Status)
		return nil
	}
	req.Status = RequestRejected
	if !req.Ignored {
		s.metrics.requestRejected()
	}
	s.emit(TopicSimLog, LogPayload{Message: "reject " + s.VM(req.VM).Name + requestTags(req)})
	if req.OnReject != NoAction {
		s.emit(TopicActionExecute, ActionPayload{Action: req.OnReject, Step: 0})
	}
	return nil
}

// handleRequestStop ends an accepted request's lifecycle and releases the
// resources it was holding through the regular deallocate pathway.
func (s *Simulation) handleRequestStop(ev Event) error {
	p, ok := ev.Payload.(RequestPayload)
	if !ok {
		return fmt.Errorf("request.stop: unexpected payload %T", ev.Payload)
	}
	req := s.Request(p.Request)
	if req.Status != RequestAccepted {
		s.invariantf("stop on request %d in state %s", req.ID, req.Status)
		return nil
	}
	req.Status = RequestStopped
	vm := s.VM(req.VM)
	if vm.Status == VMAllocated {
		s.emit(TopicVMDeallocate, VMPayload{VM: vm.ID, PM: vm.HostPM})
	}
	return nil
}

// handleVMAllocate serves two shapes of the same topic. For an unbound VM
// the event is a placement trigger: the allocator picks a host and the
// binding is committed here, with no further event (allocation is the
// terminal effect). For a VM already bound the event is the announcement
// of a commit made during admission, and there is nothing left to apply.
func (s *Simulation) handleVMAllocate(ev Event) error {
	p, ok := ev.Payload.(VMPayload)
	if !ok {
		return fmt.Errorf("vm.allocate: unexpected payload %T", ev.Payload)
	}
	vm := s.VM(p.VM)
	if vm.Status == VMAllocated {
		return nil
	}
	pm, found := s.allocator.SelectPM(vm.Demand, s.pms)
	if !found {
		if rid, tied := s.vmRequest[vm.ID]; tied && !s.Request(rid).Status.terminal() {
			s.emit(TopicRequestReject, RequestPayload{Request: rid, Reason: "no capacity"})
		}
		return nil
	}
	if err := s.bindVM(vm, s.PM(pm)); err != nil {
		s.invariantErr(err)
	}
	return nil
}

// handleVMDeallocate releases a VM->PM binding. A VM that was already
// deallocated by an earlier event this tick is skipped: cancellation is
// expressed by checking entity state, not by retracting queued events.
func (s *Simulation) handleVMDeallocate(ev Event) error {
	p, ok := ev.Payload.(VMPayload)
	if !ok {
		return fmt.Errorf("vm.deallocate: unexpected payload %T", ev.Payload)
	}
	vm := s.VM(p.VM)
	switch vm.Status {
	case VMDeallocated:
		return nil
	case VMUnallocated:
		s.invariantf("deallocate on VM %s that was never allocated", vm.Name)
		return nil
	}
	// Anything still running on the VM goes down with it.
	for _, in := range s.instances {
		if in.HostVM == vm.ID && in.Status == InstanceRunning {
			s.emit(in.Kind.StopTopic(), LifecyclePayload{Instance: in.ID, VM: vm.ID})
		}
	}
	if err := s.releaseVM(vm); err != nil {
		s.invariantErr(err)
	}
	return nil
}

func (s *Simulation) handleInstanceStart(ev Event) error {
	p, ok := ev.Payload.(LifecyclePayload)
	if !ok {
		return fmt.Errorf("%s: unexpected payload %T", ev.Topic, ev.Payload)
	}
	in := s.Instance(p.Instance)
	if in.Status != InstanceStopped {
		s.invariantf("start on %s %s in state %s", in.Kind, in.Name, in.Status)
		return nil
	}
	in.Status = InstanceRunning
	if in.Deployment != NoDeployment {
		d := s.Deployment(in.Deployment)
		d.Current++
		if d.starting > 0 {
			d.starting--
		}
		s.reevaluate(d)
	}
	return nil
}

func (s *Simulation) handleInstanceStop(ev Event) error {
	p, ok := ev.Payload.(LifecyclePayload)
	if !ok {
		return fmt.Errorf("%s: unexpected payload %T", ev.Topic, ev.Payload)
	}
	in := s.Instance(p.Instance)
	if in.Status != InstanceRunning {
		s.invariantf("stop on %s %s in state %s", in.Kind, in.Name, in.Status)
		return nil
	}
	in.Status = InstanceStopped
	if in.Deployment != NoDeployment {
		d := s.Deployment(in.Deployment)
		d.Current--
		if d.stopping > 0 {
			d.stopping--
		}
		s.reevaluate(d)
	}
	return nil
}

// handleActionExecute runs one step through the interpreter and, if more
// steps remain, schedules the next one.
func (s *Simulation) handleActionExecute(ev Event) error {
	p, ok := ev.Payload.(ActionPayload)
	if !ok {
		return fmt.Errorf("action.execute: unexpected payload %T", ev.Payload)
	}
	act := s.Action(p.Action)
	if p.Step < 0 || p.Step >= len(act.Steps) {
		s.invariantf("action %s has no step %d", act.Name, p.Step)
		return nil
	}
	if err := s.interpreter.ExecuteStep(s, act, p.Step); err != nil {
		return fmt.Errorf("action %s step %d: %w", act.Name, p.Step, err)
	}
	if p.Step+1 < len(act.Steps) {
		s.emit(TopicActionExecute, ActionPayload{Action: act.ID, Step: p.Step + 1})
	}
	return nil
}

func requestTags(req *Request) string {
	tags := ""
	if req.Required {
		tags += " [REQUIRED]"
	}
	if req.Ignored {
		tags += " [IGNORED]"
	}
	return tags
}

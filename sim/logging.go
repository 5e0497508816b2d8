// sim.log plumbing: the kernel subscribes a formatter to every lifecycle
// topic so a run produces the familiar human-readable trace, and the
// sim.log handler forwards each record to logrus.

package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

func (s *Simulation) handleSimLog(ev Event) error {
	p, ok := ev.Payload.(LogPayload)
	if !ok {
		return fmt.Errorf("sim.log: unexpected payload %T", ev.Payload)
	}
	logrus.Infof("%s@%d> %s", s.Name, s.Now(), p.Message)
	return nil
}

// registerLogFormatters turns lifecycle announcements into sim.log lines.
// Formatters run after the kernel's entity handlers, so they observe the
// state after the transition.
func (s *Simulation) registerLogFormatters() {
	s.SubscribeFunc(TopicVMAllocate, func(s *Simulation, ev Event) error {
		p := ev.Payload.(VMPayload)
		vm := s.VM(p.VM)
		if vm.Status != VMAllocated {
			return nil // placement failed, the reject pathway logs it
		}
		return s.emit(TopicSimLog, LogPayload{Message: fmt.Sprintf("[%s]: allocate %s", s.PM(vm.HostPM).Name, vm.Name)})
	})
	s.SubscribeFunc(TopicVMDeallocate, func(s *Simulation, ev Event) error {
		p := ev.Payload.(VMPayload)
		vm := s.VM(p.VM)
		host := "-"
		if p.PM != NoPM {
			host = s.PM(p.PM).Name
		}
		return s.emit(TopicSimLog, LogPayload{Message: fmt.Sprintf("[%s]: deallocate %s", host, vm.Name)})
	})

	for _, kind := range []InstanceKind{KindApp, KindContainer, KindController} {
		s.SubscribeFunc(kind.StartTopic(), formatLifecycle("start"))
		s.SubscribeFunc(kind.StopTopic(), formatLifecycle("stop"))
	}

	s.SubscribeFunc(Topic("deployment.*"), func(s *Simulation, ev Event) error {
		p, ok := ev.Payload.(DeploymentPayload)
		if !ok {
			return nil
		}
		d := s.Deployment(p.Deployment)
		var msg string
		switch ev.Topic {
		case TopicDeploymentRun:
			msg = fmt.Sprintf("%s is RUNNING", d.Name)
		case TopicDeploymentPend:
			msg = fmt.Sprintf("%s is PENDING", d.Name)
		case TopicDeploymentDegrade:
			msg = fmt.Sprintf("%s is DEGRADED (%d replica(s) remained)", d.Name, p.Desired-p.Current)
		case TopicDeploymentScale:
			msg = fmt.Sprintf("%s is SCALED (%+d replica(s))", d.Name, p.Desired-p.Current)
		case TopicDeploymentStop:
			msg = fmt.Sprintf("%s is STOPPED", d.Name)
		default:
			return nil
		}
		return s.emit(TopicSimLog, LogPayload{Message: msg})
	})
}

func formatLifecycle(verb string) func(*Simulation, Event) error {
	return func(s *Simulation, ev Event) error {
		p, ok := ev.Payload.(LifecyclePayload)
		if !ok {
			return nil
		}
		in := s.Instance(p.Instance)
		return s.emit(TopicSimLog, LogPayload{Message: fmt.Sprintf("[%s]: %s %s", s.VM(in.HostVM).Name, verb, in.Name)})
	}
}

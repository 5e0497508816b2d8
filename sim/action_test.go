package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAction_StepsRunInOrder(t *testing.T) {
	s := NewSimulation("t", nil)
	act := s.AddAction("announce", []ActionStep{
		{Op: OpLog, Message: "one"},
		{Op: OpLog, Message: "two"},
		{Op: OpLog, Message: "three"},
	})

	var messages []string
	s.SubscribeFunc(TopicSimLog, func(_ *Simulation, ev Event) error {
		messages = append(messages, ev.Payload.(LogPayload).Message)
		return nil
	})
	require.NoError(t, s.Schedule(TopicActionExecute, 0, ActionPayload{Action: act.ID, Step: 0}))
	require.NoError(t, s.Run(RunLimits{}))

	assert.Equal(t, []string{"one", "two", "three"}, messages)
	assert.Equal(t, 3, countTopic(s.EventLog(), TopicActionExecute))
}

func TestAction_OnRejectFollowUp(t *testing.T) {
	// A rejected request fires its OnReject action.
	s := NewSimulation("t", nil)
	s.AddPM("pm-0", 2)
	vm := s.AddVM("vm-0", 4) // never fits
	r := s.AddRequest(vm.ID, 0)
	act := s.AddAction("on-reject", []ActionStep{{Op: OpLog, Message: "fallback"}})
	r.OnReject = act.ID

	var messages []string
	s.SubscribeFunc(TopicSimLog, func(_ *Simulation, ev Event) error {
		messages = append(messages, ev.Payload.(LogPayload).Message)
		return nil
	})
	require.NoError(t, s.Schedule(TopicRequestArrive, 0, ArrivalPayload{Requests: []RequestID{r.ID}}))
	require.NoError(t, s.Run(RunLimits{}))

	assert.Equal(t, RequestRejected, r.Status)
	assert.Contains(t, messages, "fallback")
}

func TestAction_StopRequestStep(t *testing.T) {
	s := NewSimulation("t", nil)
	pm := s.AddPM("pm-0", 4)
	vm := s.AddVM("vm-0", 4)
	r := s.AddRequest(vm.ID, 0)
	act := s.AddAction("teardown", []ActionStep{{Op: OpStopRequest, Request: r.ID}})
	require.NoError(t, s.Schedule(TopicRequestArrive, 0, ArrivalPayload{Requests: []RequestID{r.ID}}))
	require.NoError(t, s.Schedule(TopicActionExecute, 10, ActionPayload{Action: act.ID, Step: 0}))

	require.NoError(t, s.Run(RunLimits{}))

	assert.Equal(t, RequestStopped, r.Status)
	assert.Equal(t, int64(0), pm.Allocated)
}

func TestAction_ScaleDeploymentStep(t *testing.T) {
	s := NewSimulation("t", nil)
	s.AddPM("pm-0", 100)
	nodes := []VMID{s.AddVM("node-0", 10).ID, s.AddVM("node-1", 10).ID}
	d := s.Apply("web", 2, nodes)
	act := s.AddAction("grow", []ActionStep{{Op: OpScaleDeployment, Deployment: d.ID, Replicas: 4}})
	require.NoError(t, s.Schedule(TopicActionExecute, 5, ActionPayload{Action: act.ID, Step: 0}))

	require.NoError(t, s.Run(RunLimits{}))

	assert.Equal(t, 4, d.Current)
	assert.Equal(t, DeploymentRunning, d.State)
}

func TestAction_UnknownOpIsSubscriberFault(t *testing.T) {
	s := NewSimulation("t", nil)
	act := s.AddAction("bad", []ActionStep{{Op: "frobnicate"}})
	require.NoError(t, s.Schedule(TopicActionExecute, 0, ActionPayload{Action: act.ID, Step: 0}))

	require.NoError(t, s.Run(RunLimits{}))

	require.NotEmpty(t, s.Faults())
	assert.Equal(t, FaultSubscriber, s.Faults()[0].Kind)
	assert.Equal(t, KernelDrained, s.State())
}

func TestAction_StepOutOfRangeIsInvariantFault(t *testing.T) {
	s := NewSimulation("t", nil)
	act := s.AddAction("short", []ActionStep{{Op: OpLog, Message: "only"}})
	require.NoError(t, s.Schedule(TopicActionExecute, 0, ActionPayload{Action: act.ID, Step: 5}))

	require.NoError(t, s.Run(RunLimits{}))

	require.Len(t, s.Faults(), 1)
	assert.Equal(t, FaultInvariant, s.Faults()[0].Kind)
}

func TestAction_CustomInterpreter(t *testing.T) {
	s := NewSimulation("t", nil)
	act := s.AddAction("custom", []ActionStep{{Op: "alpha"}, {Op: "beta"}})

	var ops []string
	s.SetInterpreter(stepFunc(func(_ *Simulation, a *Action, step int) error {
		ops = append(ops, a.Steps[step].Op)
		return nil
	}))
	require.NoError(t, s.Schedule(TopicActionExecute, 0, ActionPayload{Action: act.ID, Step: 0}))
	require.NoError(t, s.Run(RunLimits{}))

	assert.Equal(t, []string{"alpha", "beta"}, ops)
}

// stepFunc adapts a function to the StepInterpreter interface.
type stepFunc func(*Simulation, *Action, int) error

func (f stepFunc) ExecuteStep(s *Simulation, act *Action, step int) error {
	return f(s, act, step)
}

package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstanceLifecycle(t *testing.T) {
	s := NewSimulation("t", nil)
	s.AddPM("pm-0", 10)
	vm := s.AddVM("vm-0", 2)
	in := s.AddInstance(KindApp, "app-0", vm.ID, NoDeployment)
	require.Equal(t, InstanceStopped, in.Status)

	require.NoError(t, s.Schedule(KindApp.StartTopic(), 1, LifecyclePayload{Instance: in.ID, VM: vm.ID}))
	require.NoError(t, s.Schedule(KindApp.StopTopic(), 2, LifecyclePayload{Instance: in.ID, VM: vm.ID}))
	require.NoError(t, s.Run(RunLimits{}))

	assert.Equal(t, InstanceStopped, in.Status)
	assert.Empty(t, s.Faults())
}

func TestInstanceLifecycle_OutOfOrderRejected(t *testing.T) {
	s := NewSimulation("t", nil)
	s.AddPM("pm-0", 10)
	vm := s.AddVM("vm-0", 2)
	in := s.AddInstance(KindContainer, "c-0", vm.ID, NoDeployment)

	// Stop before start, then a double start.
	require.NoError(t, s.Schedule(KindContainer.StopTopic(), 0, LifecyclePayload{Instance: in.ID, VM: vm.ID}))
	require.NoError(t, s.Schedule(KindContainer.StartTopic(), 1, LifecyclePayload{Instance: in.ID, VM: vm.ID}))
	require.NoError(t, s.Schedule(KindContainer.StartTopic(), 2, LifecyclePayload{Instance: in.ID, VM: vm.ID}))
	require.NoError(t, s.Run(RunLimits{}))

	// The out-of-order transitions were discarded, the valid one applied.
	assert.Equal(t, InstanceRunning, in.Status)
	require.Len(t, s.Faults(), 2)
	for _, f := range s.Faults() {
		assert.Equal(t, FaultInvariant, f.Kind)
	}
}

func TestInstanceKindTopics(t *testing.T) {
	tests := []struct {
		kind  InstanceKind
		start Topic
		stop  Topic
	}{
		{KindApp, TopicAppStart, TopicAppStop},
		{KindContainer, TopicContainerStart, TopicContainerStop},
		{KindController, TopicControllerStart, TopicControllerStop},
	}
	for _, tt := range tests {
		if got := tt.kind.StartTopic(); got != tt.start {
			t.Errorf("%s start topic %s, want %s", tt.kind, got, tt.start)
		}
		if got := tt.kind.StopTopic(); got != tt.stop {
			t.Errorf("%s stop topic %s, want %s", tt.kind, got, tt.stop)
		}
	}
}

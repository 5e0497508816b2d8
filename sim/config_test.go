package sim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleScenario = `
name: sample
seed: 7
horizon: 100
allocator: best-fit
admission: capacity
machines:
  - name: pm-0
    capacity: 8
  - name: pm-1
    capacity: 8
vms:
  - name: vm-0
    demand: 4
  - name: vm-1
    demand: 4
  - name: node-0
    demand: 2
deployments:
  - name: web
    replicas: 2
    nodes: [node-0]
requests:
  - vm: vm-0
    arrival: 0
  - vm: vm-1
    arrival: 3
    required: true
`

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, sampleScenario))
	require.NoError(t, err)

	assert.Equal(t, "sample", sc.Name)
	assert.Equal(t, int64(7), sc.Seed)
	assert.Equal(t, int64(100), sc.Horizon)
	assert.Equal(t, "best-fit", sc.Allocator)
	assert.Len(t, sc.Machines, 2)
	assert.Len(t, sc.VMs, 3)
	require.Len(t, sc.Deployments, 1)
	assert.Equal(t, 2, sc.Deployments[0].Replicas)
	require.Len(t, sc.Requests, 2)
	assert.True(t, sc.Requests[1].Required)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadScenario_BadYAML(t *testing.T) {
	_, err := LoadScenario(writeScenario(t, "name: [unclosed"))
	assert.Error(t, err)
}

func TestScenarioValidate(t *testing.T) {
	base := func() *Scenario {
		return &Scenario{
			Name:     "v",
			Machines: []MachineSpec{{Name: "pm-0", Capacity: 8}},
			VMs:      []VMSpec{{Name: "vm-0", Demand: 4}},
		}
	}
	tests := []struct {
		name    string
		mutate  func(*Scenario)
		wantErr string
	}{
		{"valid", func(*Scenario) {}, ""},
		{"missing name", func(sc *Scenario) { sc.Name = "" }, "name is required"},
		{"no machines", func(sc *Scenario) { sc.Machines = nil }, "at least one machine"},
		{"zero capacity", func(sc *Scenario) { sc.Machines[0].Capacity = 0 }, "capacity must be > 0"},
		{"duplicate machine", func(sc *Scenario) {
			sc.Machines = append(sc.Machines, MachineSpec{Name: "pm-0", Capacity: 4})
		}, "duplicate machine"},
		{"zero demand", func(sc *Scenario) { sc.VMs[0].Demand = 0 }, "demand must be > 0"},
		{"unplaceable vm", func(sc *Scenario) { sc.VMs[0].Demand = 100 }, "can never be placed"},
		{"duplicate vm", func(sc *Scenario) {
			sc.VMs = append(sc.VMs, VMSpec{Name: "vm-0", Demand: 2})
		}, "duplicate vm"},
		{"unknown deployment node", func(sc *Scenario) {
			sc.Deployments = []DeploymentSpec{{Name: "web", Replicas: 1, Nodes: []string{"ghost"}}}
		}, "unknown node"},
		{"negative replicas", func(sc *Scenario) {
			sc.Deployments = []DeploymentSpec{{Name: "web", Replicas: -1}}
		}, "replicas must be >= 0"},
		{"unknown request vm", func(sc *Scenario) {
			sc.Requests = []RequestSpec{{VM: "ghost"}}
		}, "unknown vm"},
		{"negative arrival", func(sc *Scenario) {
			sc.Requests = []RequestSpec{{VM: "vm-0", Arrival: -1}}
		}, "arrival must be >= 0"},
		{"bad arrival rate", func(sc *Scenario) {
			sc.Arrivals = &ArrivalsSpec{Rate: 0, Count: 5, DemandMin: 1, DemandMax: 2}
		}, "rate must be > 0"},
		{"bad demand range", func(sc *Scenario) {
			sc.Arrivals = &ArrivalsSpec{Rate: 1, Count: 5, DemandMin: 4, DemandMax: 2}
		}, "demand_min <= demand_max"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := base()
			tt.mutate(sc)
			err := sc.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestScenarioBuild_EndToEnd(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, sampleScenario))
	require.NoError(t, err)
	s, err := sc.Build()
	require.NoError(t, err)

	require.NoError(t, s.Run(RunLimits{EndTime: sc.Horizon}))

	assert.Equal(t, KernelDrained, s.State())
	// Both trace requests fit on the two hosts.
	assert.Equal(t, 2, s.Metrics().Requests)
	assert.Equal(t, 2, s.Metrics().Accepted)
	assert.Equal(t, 0, s.Metrics().Rejected)
	assert.False(t, s.Metrics().HasPending())
	// The deployment rolled out both replicas onto its node.
	d := s.Deployment(0)
	assert.Equal(t, DeploymentRunning, d.State)
	assert.Equal(t, 2, d.Current)
}

func TestScenarioBuild_SyntheticArrivalsDeterministic(t *testing.T) {
	sc := &Scenario{
		Name:     "poisson",
		Seed:     99,
		Machines: []MachineSpec{{Name: "pm-0", Capacity: 64}},
		Arrivals: &ArrivalsSpec{Rate: 0.5, Count: 20, DemandMin: 1, DemandMax: 4},
	}
	require.NoError(t, sc.Validate())

	a, err := sc.Build()
	require.NoError(t, err)
	b, err := sc.Build()
	require.NoError(t, err)

	require.Len(t, a.Requests(), 20)
	for i := range a.Requests() {
		assert.Equal(t, a.Requests()[i].ArrivalTime, b.Requests()[i].ArrivalTime, "request %d", i)
		assert.Equal(t, a.Requests()[i].Demand, b.Requests()[i].Demand, "request %d", i)
	}
}

// Scenario configuration: the YAML schema describing a data center and its
// workload, and the builder that turns a loaded scenario into a ready
// Simulation with the initial arrival trace scheduled.

package sim

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario is the top-level scenario configuration, loaded from YAML via
// LoadScenario(path).
type Scenario struct {
	Name      string `yaml:"name"`
	Seed      int64  `yaml:"seed"`
	Horizon   int64  `yaml:"horizon,omitempty"`
	Allocator string `yaml:"allocator,omitempty"` // first-fit (default), best-fit, worst-fit
	Admission string `yaml:"admission,omitempty"` // capacity (default), always-reject

	Machines    []MachineSpec    `yaml:"machines"`
	VMs         []VMSpec         `yaml:"vms"`
	Deployments []DeploymentSpec `yaml:"deployments,omitempty"`
	Requests    []RequestSpec    `yaml:"requests,omitempty"`
	Arrivals    *ArrivalsSpec    `yaml:"arrivals,omitempty"`
}

// MachineSpec describes one PM.
type MachineSpec struct {
	Name     string `yaml:"name"`
	Capacity int64  `yaml:"capacity"`
}

// VMSpec describes one VM template.
type VMSpec struct {
	Name   string `yaml:"name"`
	Demand int64  `yaml:"demand"`
}

// DeploymentSpec describes a deployment applied at the start of the run.
type DeploymentSpec struct {
	Name     string   `yaml:"name"`
	Replicas int      `yaml:"replicas"`
	Nodes    []string `yaml:"nodes"`
}

// RequestSpec describes one request of the arrival trace.
type RequestSpec struct {
	VM       string `yaml:"vm"`
	Arrival  int64  `yaml:"arrival"`
	Required bool   `yaml:"required,omitempty"`
	Ignored  bool   `yaml:"ignored,omitempty"`
}

// ArrivalsSpec enables synthetic Poisson arrivals on top of (or instead
// of) the explicit request trace.
type ArrivalsSpec struct {
	Rate      float64 `yaml:"rate"`  // mean arrivals per tick
	Count     int     `yaml:"count"` // number of requests to generate
	DemandMin int64   `yaml:"demand_min"`
	DemandMax int64   `yaml:"demand_max"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &sc, nil
}

// Validate checks the scenario for internal consistency before any entity
// is created.
func (sc *Scenario) Validate() error {
	if sc.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(sc.Machines) == 0 {
		return fmt.Errorf("at least one machine is required")
	}
	var maxCapacity int64
	machines := make(map[string]struct{}, len(sc.Machines))
	for _, m := range sc.Machines {
		if m.Capacity <= 0 {
			return fmt.Errorf("machine %q: capacity must be > 0", m.Name)
		}
		if _, dup := machines[m.Name]; dup {
			return fmt.Errorf("duplicate machine name %q", m.Name)
		}
		machines[m.Name] = struct{}{}
		if m.Capacity > maxCapacity {
			maxCapacity = m.Capacity
		}
	}
	vms := make(map[string]struct{}, len(sc.VMs))
	for _, v := range sc.VMs {
		if v.Demand <= 0 {
			return fmt.Errorf("vm %q: demand must be > 0", v.Name)
		}
		if v.Demand > maxCapacity {
			return fmt.Errorf("vm %q: demand %d exceeds every machine's capacity (max %d); it can never be placed",
				v.Name, v.Demand, maxCapacity)
		}
		if _, dup := vms[v.Name]; dup {
			return fmt.Errorf("duplicate vm name %q", v.Name)
		}
		vms[v.Name] = struct{}{}
	}
	for _, d := range sc.Deployments {
		if d.Replicas < 0 {
			return fmt.Errorf("deployment %q: replicas must be >= 0", d.Name)
		}
		for _, n := range d.Nodes {
			if _, ok := vms[n]; !ok {
				return fmt.Errorf("deployment %q: unknown node vm %q", d.Name, n)
			}
		}
	}
	for i, r := range sc.Requests {
		if _, ok := vms[r.VM]; !ok {
			return fmt.Errorf("request %d: unknown vm %q", i, r.VM)
		}
		if r.Arrival < 0 {
			return fmt.Errorf("request %d: arrival must be >= 0", i)
		}
	}
	if a := sc.Arrivals; a != nil {
		if a.Rate <= 0 {
			return fmt.Errorf("arrivals: rate must be > 0")
		}
		if a.Count <= 0 {
			return fmt.Errorf("arrivals: count must be > 0")
		}
		if a.DemandMin <= 0 || a.DemandMax < a.DemandMin {
			return fmt.Errorf("arrivals: need 0 < demand_min <= demand_max")
		}
		if a.DemandMax > maxCapacity {
			return fmt.Errorf("arrivals: demand_max %d exceeds every machine's capacity (max %d)", a.DemandMax, maxCapacity)
		}
	}
	return nil
}

// Build constructs a Simulation from the scenario: entities registered,
// deployments applied, and the arrival trace scheduled. The returned
// simulation is Idle and ready for Run.
func (sc *Scenario) Build() (*Simulation, error) {
	s := NewSimulation(sc.Name, NewAllocator(sc.Allocator))
	s.SetAdmissionPolicy(NewAdmissionPolicy(sc.Admission))

	for _, m := range sc.Machines {
		s.AddPM(m.Name, m.Capacity)
	}
	vmIDs := make(map[string]VMID, len(sc.VMs))
	for _, v := range sc.VMs {
		vmIDs[v.Name] = s.AddVM(v.Name, v.Demand).ID
	}
	for _, d := range sc.Deployments {
		nodes := make([]VMID, len(d.Nodes))
		for i, n := range d.Nodes {
			nodes[i] = vmIDs[n]
		}
		s.Apply(d.Name, d.Replicas, nodes)
	}

	var requests []*Request
	for _, r := range sc.Requests {
		req := s.AddRequest(vmIDs[r.VM], r.Arrival)
		req.Required = r.Required
		req.Ignored = r.Ignored
		requests = append(requests, req)
	}
	if sc.Arrivals != nil {
		rng := NewPartitionedRNG(sc.Seed)
		requests = append(requests, s.GeneratePoissonArrivals(rng, *sc.Arrivals)...)
	}
	if err := scheduleArrivals(s, requests); err != nil {
		return nil, err
	}
	return s, nil
}

// scheduleArrivals groups the trace by arrival tick, preserving trace
// order within a tick, and schedules one request.arrive per group.
func scheduleArrivals(s *Simulation, requests []*Request) error {
	sort.SliceStable(requests, func(i, j int) bool {
		return requests[i].ArrivalTime < requests[j].ArrivalTime
	})
	for i := 0; i < len(requests); {
		j := i
		var batch []RequestID
		for ; j < len(requests) && requests[j].ArrivalTime == requests[i].ArrivalTime; j++ {
			batch = append(batch, requests[j].ID)
		}
		if err := s.Schedule(TopicRequestArrive, requests[i].ArrivalTime, ArrivalPayload{Requests: batch}); err != nil {
			return fmt.Errorf("schedule arrivals: %w", err)
		}
		i = j
	}
	return nil
}

package sim

import "fmt"

// GeneratePoissonArrivals creates requests whose arrival times form a
// Poisson process with the configured rate. Each request gets its own VM
// with a demand drawn uniformly from [DemandMin, DemandMax]. Generation is
// fully determined by the RNG's seed.
func (s *Simulation) GeneratePoissonArrivals(rng *PartitionedRNG, spec ArrivalsSpec) []*Request {
	wrng := rng.ForSubsystem(SubsystemWorkload)
	requests := make([]*Request, 0, spec.Count)

	var now float64
	for i := 0; i < spec.Count; i++ {
		// Interarrival times of a Poisson process are exponential with
		// mean 1/rate.
		now += wrng.ExpFloat64() / spec.Rate
		demand := spec.DemandMin
		if spread := spec.DemandMax - spec.DemandMin; spread > 0 {
			demand += wrng.Int63n(spread + 1)
		}
		vm := s.AddVM(fmt.Sprintf("vm-gen-%d", len(s.vms)), demand)
		requests = append(requests, s.AddRequest(vm.ID, int64(now)))
	}
	return requests
}

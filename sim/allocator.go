// The Allocator interface consumed by the kernel, plus the stock placement
// heuristics selectable by name. The kernel re-checks the resource
// invariant at commit time, so a misbehaving allocator can propose an
// overcommitting placement but never apply one.

package sim

import "fmt"

// Allocator chooses a host for a VM demand, or reports that no PM has
// capacity. Implementations must not mutate the pool.
type Allocator interface {
	SelectPM(demand int64, pool []*PhysicalMachine) (PMID, bool)
}

// FirstFit picks the first PM with enough free capacity, in arena order.
type FirstFit struct{}

func (FirstFit) SelectPM(demand int64, pool []*PhysicalMachine) (PMID, bool) {
	for _, pm := range pool {
		if pm.Free() >= demand {
			return pm.ID, true
		}
	}
	return NoPM, false
}

// BestFit picks the PM whose free capacity exceeds the demand by the
// smallest margin, leaving large holes intact for large VMs.
type BestFit struct{}

func (BestFit) SelectPM(demand int64, pool []*PhysicalMachine) (PMID, bool) {
	best := NoPM
	var bestFree int64
	for _, pm := range pool {
		free := pm.Free()
		if free < demand {
			continue
		}
		if best == NoPM || free < bestFree {
			best = pm.ID
			bestFree = free
		}
	}
	return best, best != NoPM
}

// WorstFit picks the PM with the most free capacity, spreading load.
type WorstFit struct{}

func (WorstFit) SelectPM(demand int64, pool []*PhysicalMachine) (PMID, bool) {
	best := NoPM
	var bestFree int64
	for _, pm := range pool {
		free := pm.Free()
		if free < demand {
			continue
		}
		if best == NoPM || free > bestFree {
			best = pm.ID
			bestFree = free
		}
	}
	return best, best != NoPM
}

// ValidAllocators lists the allocator names accepted by NewAllocator.
var ValidAllocators = []string{"first-fit", "best-fit", "worst-fit"}

// NewAllocator creates an allocator by name. An empty string defaults to
// first-fit. Panics on unrecognized names.
func NewAllocator(name string) Allocator {
	switch name {
	case "", "first-fit":
		return FirstFit{}
	case "best-fit":
		return BestFit{}
	case "worst-fit":
		return WorstFit{}
	default:
		panic(fmt.Sprintf("unknown allocator %q (valid: %v)", name, ValidAllocators))
	}
}

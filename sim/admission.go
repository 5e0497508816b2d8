package sim

import "fmt"

// AdmissionPolicy decides whether an arriving request is admitted. On
// admission it names the PM the request's VM should land on; the kernel
// commits the placement and fires request.accept followed by vm.allocate.
type AdmissionPolicy interface {
	Admit(s *Simulation, req *Request) (pm PMID, admitted bool, reason string)
}

// CapacityAdmission admits a request iff the simulation's allocator can
// place the request's VM on the current PM pool. Arrival handling is the
// allocation attempt; there is no separate reservation step.
type CapacityAdmission struct{}

func (CapacityAdmission) Admit(s *Simulation, req *Request) (PMID, bool, string) {
	vm := s.VM(req.VM)
	pm, ok := s.allocator.SelectPM(vm.Demand, s.pms)
	if !ok {
		return NoPM, false, "no capacity"
	}
	return pm, true, ""
}

// AlwaysReject rejects every request. Useful as a drain valve in
// degradation experiments.
type AlwaysReject struct{}

func (AlwaysReject) Admit(_ *Simulation, _ *Request) (PMID, bool, string) {
	return NoPM, false, "admission disabled"
}

// ValidAdmissionPolicies lists the names accepted by NewAdmissionPolicy.
var ValidAdmissionPolicies = []string{"capacity", "always-reject"}

// NewAdmissionPolicy creates an admission policy by name. An empty string
// defaults to capacity-based admission. Panics on unrecognized names.
func NewAdmissionPolicy(name string) AdmissionPolicy {
	switch name {
	case "", "capacity":
		return CapacityAdmission{}
	case "always-reject":
		return AlwaysReject{}
	default:
		panic(fmt.Sprintf("unknown admission policy %q (valid: %v)", name, ValidAdmissionPolicies))
	}
}

// Defines the physical and virtual machine entities and the capacity
// bookkeeping the kernel enforces around them. The resource invariant
// (allocated <= total on every PM) is checked here, at commit time, so no
// allocator policy can overcommit a host.

package sim

import "fmt"

// PMID indexes the physical machine arena. NoPM marks an unbound VM.
type PMID int

// NoPM is the nil value for PM references.
const NoPM PMID = -1

// PhysicalMachine is a host with fixed capacity. VMs it hosts are tracked
// by id; the VM arena owns the VM records themselves.
type PhysicalMachine struct {
	ID        PMID
	Name      string
	Capacity  int64
	Allocated int64
	HostedVMs map[VMID]struct{}
}

// Free returns the unallocated capacity.
func (pm *PhysicalMachine) Free() int64 {
	return pm.Capacity - pm.Allocated
}

func (pm *PhysicalMachine) String() string {
	return fmt.Sprintf("PM(%s, %d/%d)", pm.Name, pm.Allocated, pm.Capacity)
}

// VMID indexes the virtual machine arena. NoVM marks an absent reference.
type VMID int

// NoVM is the nil value for VM references.
const NoVM VMID = -1

// VMStatus is the placement state of a VM.
type VMStatus int

const (
	VMUnallocated VMStatus = iota
	VMAllocated
	VMDeallocated
)

func (st VMStatus) String() string {
	switch st {
	case VMUnallocated:
		return "unallocated"
	case VMAllocated:
		return "allocated"
	case VMDeallocated:
		return "deallocated"
	default:
		return fmt.Sprintf("VMStatus(%d)", int(st))
	}
}

// VirtualMachine is a resource-demanding unit placed on exactly one PM.
type VirtualMachine struct {
	ID     VMID
	Name   string
	Demand int64
	HostPM PMID // NoPM while unbound
	Status VMStatus
}

func (vm *VirtualMachine) String() string {
	return fmt.Sprintf("VM(%s, demand=%d, %s)", vm.Name, vm.Demand, vm.Status)
}

// AddPM registers a host with the given total capacity.
func (s *Simulation) AddPM(name string, capacity int64) *PhysicalMachine {
	pm := &PhysicalMachine{
		ID:        PMID(len(s.pms)),
		Name:      name,
		Capacity:  capacity,
		HostedVMs: make(map[VMID]struct{}),
	}
	s.pms = append(s.pms, pm)
	return pm
}

// AddVM registers a VM with the given resource demand. It starts unbound.
func (s *Simulation) AddVM(name string, demand int64) *VirtualMachine {
	vm := &VirtualMachine{
		ID:     VMID(len(s.vms)),
		Name:   name,
		Demand: demand,
		HostPM: NoPM,
		Status: VMUnallocated,
	}
	s.vms = append(s.vms, vm)
	return vm
}

// PM resolves a PM id through the arena.
func (s *Simulation) PM(id PMID) *PhysicalMachine {
	if id < 0 || int(id) >= len(s.pms) {
		panic(fmt.Sprintf("unknown PM id %d", id))
	}
	return s.pms[id]
}

// VM resolves a VM id through the arena.
func (s *Simulation) VM(id VMID) *VirtualMachine {
	if id < 0 || int(id) >= len(s.vms) {
		panic(fmt.Sprintf("unknown VM id %d", id))
	}
	return s.vms[id]
}

// PMs returns the PM arena for read-only iteration.
func (s *Simulation) PMs() []*PhysicalMachine {
	return s.pms
}

// VMs returns the VM arena for read-only iteration.
func (s *Simulation) VMs() []*VirtualMachine {
	return s.vms
}

// bindVM commits a VM->PM placement. This is the single point where PM
// capacity counters move up, so the resource invariant holds no matter
// which allocator proposed the placement.
func (s *Simulation) bindVM(vm *VirtualMachine, pm *PhysicalMachine) error {
	if vm.Status != VMUnallocated {
		return fmt.Errorf("%w: allocate on VM %s in state %s", ErrInvariant, vm.Name, vm.Status)
	}
	if pm.Allocated+vm.Demand > pm.Capacity {
		return fmt.Errorf("%w: allocating %s (demand %d) would overcommit %s (free %d)",
			ErrInvariant, vm.Name, vm.Demand, pm.Name, pm.Free())
	}
	pm.Allocated += vm.Demand
	pm.HostedVMs[vm.ID] = struct{}{}
	vm.HostPM = pm.ID
	vm.Status = VMAllocated
	s.metrics.vmAllocated(vm.Demand)
	return nil
}

// releaseVM clears a VM->PM binding and returns its capacity to the host.
func (s *Simulation) releaseVM(vm *VirtualMachine) error {
	if vm.Status != VMAllocated {
		return fmt.Errorf("%w: deallocate on VM %s in state %s", ErrInvariant, vm.Name, vm.Status)
	}
	pm := s.PM(vm.HostPM)
	pm.Allocated -= vm.Demand
	delete(pm.HostedVMs, vm.ID)
	vm.HostPM = NoPM
	vm.Status = VMDeallocated
	s.metrics.vmDeallocated(vm.Demand)
	return nil
}

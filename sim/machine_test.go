package sim

import (
	"errors"
	"testing"
)

func TestBindVM_CommitsCapacity(t *testing.T) {
	s := NewSimulation("t", nil)
	pm := s.AddPM("pm-0", 10)
	vm := s.AddVM("vm-0", 4)

	if err := s.bindVM(vm, pm); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if pm.Allocated != 4 || pm.Free() != 6 {
		t.Errorf("pm allocated %d free %d, want 4/6", pm.Allocated, pm.Free())
	}
	if vm.Status != VMAllocated || vm.HostPM != pm.ID {
		t.Errorf("vm %v after bind", vm)
	}
	if _, hosted := pm.HostedVMs[vm.ID]; !hosted {
		t.Error("vm missing from pm's hosted set")
	}
}

func TestBindVM_RefusesOvercommit(t *testing.T) {
	s := NewSimulation("t", nil)
	pm := s.AddPM("pm-0", 10)
	s.bindVM(s.AddVM("vm-0", 8), pm)
	vm := s.AddVM("vm-1", 4)

	err := s.bindVM(vm, pm)

	if !errors.Is(err, ErrInvariant) {
		t.Fatalf("error %v, want ErrInvariant", err)
	}
	// The refused mutation left both entities untouched.
	if pm.Allocated != 8 {
		t.Errorf("pm allocated %d, want 8", pm.Allocated)
	}
	if vm.Status != VMUnallocated || vm.HostPM != NoPM {
		t.Errorf("vm %v mutated by refused bind", vm)
	}
}

func TestBindVM_ExactFitAllowed(t *testing.T) {
	s := NewSimulation("t", nil)
	pm := s.AddPM("pm-0", 4)
	vm := s.AddVM("vm-0", 4)

	if err := s.bindVM(vm, pm); err != nil {
		t.Fatalf("exact fit refused: %v", err)
	}
	if pm.Free() != 0 {
		t.Errorf("free %d, want 0", pm.Free())
	}
}

func TestBindVM_RefusesDoubleBind(t *testing.T) {
	s := NewSimulation("t", nil)
	pm := s.AddPM("pm-0", 10)
	vm := s.AddVM("vm-0", 2)
	s.bindVM(vm, pm)

	if err := s.bindVM(vm, pm); !errors.Is(err, ErrInvariant) {
		t.Fatalf("error %v, want ErrInvariant", err)
	}
	if pm.Allocated != 2 {
		t.Errorf("pm allocated %d after refused rebind, want 2", pm.Allocated)
	}
}

func TestReleaseVM_ReturnsCapacity(t *testing.T) {
	s := NewSimulation("t", nil)
	pm := s.AddPM("pm-0", 10)
	vm := s.AddVM("vm-0", 4)
	s.bindVM(vm, pm)

	if err := s.releaseVM(vm); err != nil {
		t.Fatalf("release: %v", err)
	}
	if pm.Allocated != 0 {
		t.Errorf("pm allocated %d after release, want 0", pm.Allocated)
	}
	if vm.Status != VMDeallocated || vm.HostPM != NoPM {
		t.Errorf("vm %v after release", vm)
	}
	if len(pm.HostedVMs) != 0 {
		t.Error("vm still in pm's hosted set")
	}

	// Deallocation is terminal: the VM cannot be bound again.
	if err := s.bindVM(vm, pm); !errors.Is(err, ErrInvariant) {
		t.Fatalf("rebind of deallocated vm: error %v, want ErrInvariant", err)
	}
}

func TestReleaseVM_RefusesUnbound(t *testing.T) {
	s := NewSimulation("t", nil)
	s.AddPM("pm-0", 10)
	vm := s.AddVM("vm-0", 4)

	if err := s.releaseVM(vm); !errors.Is(err, ErrInvariant) {
		t.Fatalf("error %v, want ErrInvariant", err)
	}
}

package sim

import (
	"hash/fnv"
	"math/rand"
)

// Subsystem names for partitioned randomness. Each subsystem draws from
// its own deterministically-derived stream, so adding randomness to one
// part of a scenario never perturbs another.
const (
	SubsystemWorkload  = "workload"
	SubsystemPlacement = "placement"
)

// PartitionedRNG provides deterministic, isolated RNG instances per
// subsystem. Two runs with the same seed draw identical streams.
//
// Thread-safety: not thread-safe; the kernel is single-threaded by design.
type PartitionedRNG struct {
	seed       int64
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a master seed.
func NewPartitionedRNG(seed int64) *PartitionedRNG {
	return &PartitionedRNG{
		seed:       seed,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns the RNG for the named subsystem, creating it on
// first use. The same name always returns the same instance.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(p.seed ^ fnv1a64(name)))
	p.subsystems[name] = rng
	return rng
}

// Seed returns the master seed this PartitionedRNG was created with.
func (p *PartitionedRNG) Seed() int64 {
	return p.seed
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}

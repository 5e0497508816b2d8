// Package sim provides the discrete-event simulation kernel for cloud-sim.
//
// # Reading Guide
//
// Start with these three files to understand the kernel:
//   - event.go: topics, payloads, and the (timestamp, sequence) ordering key
//   - kernel.go: the Simulation object and the main loop
//   - handlers.go: the entity state machines reacting to dispatched events
//
// # Architecture
//
// One Simulation owns a virtual Clock, a time-ordered EventQueue, a
// topic-based EventBus, and flat arenas for every entity kind (requests,
// PMs, VMs, instances, deployments, actions). The loop pops the earliest
// event, advances the clock, and publishes the event synchronously to every
// matching subscriber. Handlers mutate entity state and schedule follow-up
// events; they never call each other directly and never block. Equal
// timestamps dispatch in scheduling order, so a fixed input trace replays
// bit-for-bit.
//
// # Key Interfaces
//
// The extension points are small interfaces:
//   - Allocator: pick a host PM for a VM demand (first-fit and friends)
//   - AdmissionPolicy: accept or reject an arriving request
//   - StepInterpreter: give meaning to action steps
//   - Handler: any subscriber on the bus
//
// The kernel enforces the capacity invariant and lifecycle ordering
// regardless of which policies are plugged in.
package sim

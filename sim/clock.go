package sim

// Clock holds the current virtual time of a simulation, in ticks.
// Time is advanced only by the kernel, immediately before an event is
// dispatched. It never follows the wall clock and never moves backwards.
type Clock struct {
	now int64
}

// Now returns the current virtual time in ticks.
func (c *Clock) Now() int64 {
	return c.now
}

// advanceTo moves the clock forward to t. The kernel guarantees t >= now
// because the event queue only releases events in timestamp order.
func (c *Clock) advanceTo(t int64) {
	if t > c.now {
		c.now = t
	}
}

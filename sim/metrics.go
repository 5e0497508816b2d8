// Tracks per-run admission statistics and resource usage. Counters are
// mirrored into a per-run Prometheus registry so driver code can export a
// finished (or aborted) run without the kernel knowing about scraping.

package sim

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics aggregates statistics about one simulation run.
type Metrics struct {
	Requests int // requests that arrived (Ignored ones excluded)
	Accepted int
	Rejected int
	Faults   int

	registry          *prometheus.Registry
	requestsTotal     prometheus.Counter
	acceptedTotal     prometheus.Counter
	rejectedTotal     prometheus.Counter
	faultsTotal       prometheus.Counter
	allocatedCapacity prometheus.Gauge
}

// NewMetrics creates an empty metrics set with its own registry, so
// multiple simulations in one process never share counters.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		requestsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "cloudsim_requests_total",
			Help: "Requests that arrived in the system.",
		}),
		acceptedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "cloudsim_requests_accepted_total",
			Help: "Requests admitted by the admission policy.",
		}),
		rejectedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "cloudsim_requests_rejected_total",
			Help: "Requests denied by the admission policy.",
		}),
		faultsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "cloudsim_faults_total",
			Help: "Faults recorded during the run, all kinds.",
		}),
		allocatedCapacity: f.NewGauge(prometheus.GaugeOpts{
			Name: "cloudsim_allocated_capacity",
			Help: "Capacity units currently allocated across all PMs.",
		}),
	}
}

// Registry exposes the run's metrics for gathering or export.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) requestArrived() {
	m.Requests++
	m.requestsTotal.Inc()
}

func (m *Metrics) requestAccepted() {
	m.Accepted++
	m.acceptedTotal.Inc()
}

func (m *Metrics) requestRejected() {
	m.Rejected++
	m.rejectedTotal.Inc()
}

func (m *Metrics) faultRecorded() {
	m.Faults++
	m.faultsTotal.Inc()
}

func (m *Metrics) vmAllocated(demand int64) {
	m.allocatedCapacity.Add(float64(demand))
}

func (m *Metrics) vmDeallocated(demand int64) {
	m.allocatedCapacity.Sub(float64(demand))
}

// HasPending reports whether some arrived request still awaits its
// admission decision.
func (m *Metrics) HasPending() bool {
	return m.Requests-m.Accepted-m.Rejected > 0
}

// AcceptRate returns accepted/requests, 0 for an empty run.
func (m *Metrics) AcceptRate() float64 {
	if m.Requests == 0 {
		return 0
	}
	return float64(m.Accepted) / float64(m.Requests)
}

// RejectRate returns rejected/requests, 0 for an empty run.
func (m *Metrics) RejectRate() float64 {
	if m.Requests == 0 {
		return 0
	}
	return float64(m.Rejected) / float64(m.Requests)
}

// Report prints the admission summary at the end of a run.
func (m *Metrics) Report(name string, now int64) {
	fmt.Printf("%s@%d> Accept[%d / %d] = %.2f\n", name, now, m.Accepted, m.Requests, m.AcceptRate())
	fmt.Printf("%s@%d> Reject[%d / %d] = %.2f\n", name, now, m.Rejected, m.Requests, m.RejectRate())
}

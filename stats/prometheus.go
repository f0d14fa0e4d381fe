package stats

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registerer wires a Stats aggregate into a Prometheus registry as a
// set of GaugeFunc collectors, each reading the aggregate
// through Snapshot at scrape time rather than duplicating the counters
// as separate Prometheus-native values. This keeps Stats the single
// source of truth spec.md §3 requires ("readers receive snapshots,
// never live references") while still giving operators a pull-based
// metrics surface alongside the binary ServerStats admin command.
type Registerer struct {
	stats *Stats
}

// NewRegisterer builds a Registerer over stats. Call Register to
// attach it to a *prometheus.Registry.
func NewRegisterer(stats *Stats) *Registerer {
	return &Registerer{stats: stats}
}

// Register creates and registers every exposed gauge on reg. It is
// safe to call once per process; calling it twice on the same reg
// returns the AlreadyRegistered error from the underlying client.
func (r *Registerer) Register(reg *prometheus.Registry) error {
	snap := func() Snapshot { return r.stats.Snapshot() }

	gauges := []prometheus.GaugeFunc{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "codexec", Name: "sessions_active", Help: "Currently connected sessions.",
		}, func() float64 { return float64(snap().SessionsActive) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "codexec", Name: "sessions_total", Help: "Sessions accepted since start.",
		}, func() float64 { return float64(snap().SessionsTotal) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "codexec", Name: "jobs_active", Help: "Jobs queued or running.",
		}, func() float64 { return float64(snap().JobsActive) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "codexec", Name: "jobs_total", Help: "Jobs submitted since start.",
		}, func() float64 { return float64(snap().JobsTotal) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "codexec", Name: "jobs_completed", Help: "Jobs that reached Completed.",
		}, func() float64 { return float64(snap().JobsCompleted) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "codexec", Name: "jobs_failed", Help: "Jobs that reached Failed.",
		}, func() float64 { return float64(snap().JobsFailed) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "codexec", Name: "jobs_cancelled", Help: "Jobs that reached Cancelled.",
		}, func() float64 { return float64(snap().JobsCancelled) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "codexec", Name: "jobs_timeout", Help: "Jobs that reached Timeout.",
		}, func() float64 { return float64(snap().JobsTimeout) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "codexec", Name: "bytes_in_total", Help: "Bytes received from clients.",
		}, func() float64 { return float64(snap().BytesIn) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "codexec", Name: "bytes_out_total", Help: "Bytes sent to clients.",
		}, func() float64 { return float64(snap().BytesOut) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "codexec", Name: "job_wall_time_ms_avg", Help: "EMA of per-job wall time, in milliseconds.",
		}, func() float64 { return snap().AvgJobWallTimeMs }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "codexec", Name: "compiles_successful", Help: "Successful compile phases.",
		}, func() float64 { return float64(snap().SuccessfulCompiles) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "codexec", Name: "compiles_failed", Help: "Failed compile phases.",
		}, func() float64 { return float64(snap().FailedCompiles) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "codexec", Name: "executions_successful", Help: "Successful run phases.",
		}, func() float64 { return float64(snap().SuccessfulExecutions) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "codexec", Name: "executions_failed", Help: "Failed run phases.",
		}, func() float64 { return float64(snap().FailedExecutions) }),
	}

	for _, g := range gauges {
		if err := reg.Register(g); err != nil {
			return err
		}
	}
	return nil
}

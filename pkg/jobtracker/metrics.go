package jobtracker

import "github.com/prometheus/client_golang/prometheus"

// Per-job-type gauges and counters, grounded on the teacher's job
// execution metrics (CounterVec/GaugeVec labelled by job_name, wired
// through prometheus.MustRegister at package init).
var (
	queueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "mummi",
			Subsystem: "jobtracker",
			Name:      "queued_sims",
			Help:      "Number of simulations currently queued for this job type",
		},
		[]string{"job_type"},
	)

	runningJobs = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "mummi",
			Subsystem: "jobtracker",
			Name:      "running_jobs",
			Help:      "Number of scheduler jobs currently in flight for this job type",
		},
		[]string{"job_type"},
	)

	simsTerminal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mummi",
			Subsystem: "jobtracker",
			Name:      "simulations_terminal_total",
			Help:      "Total simulations that reached a terminal status",
		},
		[]string{"job_type", "status"},
	)

	jobsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mummi",
			Subsystem: "jobtracker",
			Name:      "jobs_started_total",
			Help:      "Total scheduler jobs submitted for this job type",
		},
		[]string{"job_type"},
	)

	jobsCanceled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mummi",
			Subsystem: "jobtracker",
			Name:      "jobs_canceled_total",
			Help:      "Total scheduler jobs explicitly canceled for this job type",
		},
		[]string{"job_type"},
	)
)

func init() {
	prometheus.MustRegister(queueDepth, runningJobs, simsTerminal, jobsStarted, jobsCanceled)
}

// reportMetricsLocked refreshes the gauges from current tracker state.
// Call with t.mu held.
func (t *Tracker) reportMetricsLocked() {
	label := string(t.jobType)
	queueDepth.WithLabelValues(label).Set(float64(len(t.queued)))
	runningJobs.WithLabelValues(label).Set(float64(len(t.running)))
}

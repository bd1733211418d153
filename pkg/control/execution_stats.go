package control

import "time"

// TickStats summarizes one scheduled update/start_jobs cycle for a
// single job type, adapted from the teacher's generic execution-stats
// record down to the counters a tick actually produces.
type TickStats struct {
	JobType       string    `json:"job_type"`
	SimsSucceeded int       `json:"sims_succeeded"`
	SimsFailed    int       `json:"sims_failed"`
	JobsStarted   int       `json:"jobs_started"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Duration      float64   `json:"duration_seconds"`
	Err           error     `json:"-"`
}

func (s *TickStats) finish() {
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime).Seconds()
}

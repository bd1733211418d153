package jobtracker

import (
	"context"

	"github.com/llnl/mummi-workflow-core/pkg/history"
	"github.com/llnl/mummi-workflow-core/pkg/job"
	"github.com/llnl/mummi-workflow-core/pkg/logger/log"
)

// checkSimStatus polls the signal flags of each sim in a bundle,
// returning Success/Failed/Unknown per sim — grounded on the source's
// static check_sim_status.
func (t *Tracker) checkSimStatus(ctx context.Context, simNames []string) []job.SimulationStatus {
	out := make([]job.SimulationStatus, len(simNames))
	for i, s := range simNames {
		dir := t.dirSim(s)
		switch {
		case t.io.TestSignal(dir, t.flagSuccess):
			out[i] = job.StatusSuccess
		case t.io.TestSignal(dir, t.flagFailure):
			out[i] = job.StatusFailed
		default:
			out[i] = job.StatusUnknown
		}
	}
	return out
}

func splitByStatus(simNames []string, statuses []job.SimulationStatus) (success, failed, unknown []string) {
	for i, s := range simNames {
		switch statuses[i] {
		case job.StatusSuccess:
			success = append(success, s)
		case job.StatusFailed:
			failed = append(failed, s)
		default:
			unknown = append(unknown, s)
		}
	}
	return
}

// Update polls job states and signal flags for every running job in a
// single tick (adapter state sampled once, sim flags sampled once per
// job), classifies each simulation, and reclaims, cancels, or requeues
// as dictated by the decision table in §4.F.
func (t *Tracker) Update(ctx context.Context) (successes, failures []string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.running) == 0 {
		log.Debugf("[%s] no running jobs: %s", t.jobType, t.String())
		return nil, nil, nil
	}

	log.Info(t.String())

	jobIDs := make([]string, 0, len(t.running))
	for id := range t.running {
		jobIDs = append(jobIDs, id)
	}

	states, cerr := t.adapter.CheckJobs(ctx, jobIDs)
	if cerr != nil {
		// NoJobs/Error collapses to "cannot classify": leave running
		// set intact for the next tick, never reclaim on uncertainty.
		log.Warnf("[%s] adapter could not classify jobs this tick: %v", t.jobType, cerr)
		return nil, nil, nil
	}

	var simsSuccess, simsFailed, simsContinue []string
	var jobsToCancel, jobsToReclaim []string

	for _, id := range jobIDs {
		j := t.running[id]
		state := states[id]

		var statuses []job.SimulationStatus
		if !state.Alive && state.TimedOut {
			statuses = make([]job.SimulationStatus, len(j.Sims))
			for i := range statuses {
				statuses[i] = job.StatusFailed
			}
		} else {
			statuses = t.checkSimStatus(ctx, j.Sims)
		}

		anyUnknown := false
		allTerminalFailed := true
		for _, s := range statuses {
			if s == job.StatusUnknown {
				anyUnknown = true
			}
			if s != job.StatusFailed {
				allTerminalFailed = false
			}
		}

		if state.Alive && anyUnknown {
			continue // leave running
		}

		jobsToReclaim = append(jobsToReclaim, id)
		if state.Alive && allTerminalFailed {
			jobsToCancel = append(jobsToCancel, id)
		}

		ss, sf, sc := splitByStatus(j.Sims, statuses)
		simsSuccess = append(simsSuccess, ss...)
		simsFailed = append(simsFailed, sf...)
		simsContinue = append(simsContinue, sc...)
	}

	t.writeHistoryLocked(history.EventSuccess, simsSuccess, "update")
	t.writeHistoryLocked(history.EventFailed, simsFailed, "update")
	simsTerminal.WithLabelValues(string(t.jobType), "success").Add(float64(len(simsSuccess)))
	simsTerminal.WithLabelValues(string(t.jobType), "failed").Add(float64(len(simsFailed)))

	if t.bundleSize == 1 && len(simsContinue) > 0 {
		log.Errorf("[%s] found %d sims to continue for bundle_size=1: ended without a flag: %v",
			t.jobType, len(simsContinue), simsContinue)
	}

	if len(jobsToCancel) > 0 {
		if _, cerr := t.cancelJobsLocked(ctx, jobsToCancel); cerr != nil {
			log.Errorf("[%s] failed to cancel jobs: %v", t.jobType, cerr)
		}
	}

	for _, id := range jobsToReclaim {
		delete(t.running, id)
	}

	if len(simsContinue) > 0 {
		t.enqueueLocked(simsContinue, true)
	}

	t.reportMetricsLocked()
	log.Info(t.String())
	return simsSuccess, simsFailed, nil
}

// cancelJobsLocked is idempotent and tolerates already-dead jobs: an
// Ok/Error/Unknown adapter response maps to true/false/false
// respectively, and every outcome is logged, never raised.
func (t *Tracker) cancelJobsLocked(ctx context.Context, jobIDs []string) (bool, error) {
	if !t.doScheduling {
		return true, nil
	}
	result, err := t.adapter.CancelJobs(ctx, jobIDs)
	if err != nil {
		log.Errorf("[%s] cancel_jobs error: %v", t.jobType, err)
		return false, nil
	}
	switch result {
	case CancelOK:
		jobsCanceled.WithLabelValues(string(t.jobType)).Add(float64(len(jobIDs)))
		log.Infof("[%s] successfully canceled %d jobs", t.jobType, len(jobIDs))
		return true, nil
	case CancelError:
		log.Errorf("[%s] failed to cancel jobs", t.jobType)
		return false, nil
	default:
		log.Errorf("[%s] unknown cancel result", t.jobType)
		return false, nil
	}
}

// CancelJobs is the public, lock-guarded entry point for external
// callers (e.g. an operator CLI) that want to cancel jobs outside of
// an update() tick.
func (t *Tracker) CancelJobs(ctx context.Context, jobIDs []string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ok, err := t.cancelJobsLocked(ctx, jobIDs)
	for _, id := range jobIDs {
		delete(t.running, id)
	}
	return ok, err
}

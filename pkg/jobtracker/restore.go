package jobtracker

import (
	"context"
	"fmt"

	"github.com/llnl/mummi-workflow-core/pkg/errors"
	"github.com/llnl/mummi-workflow-core/pkg/history"
	"github.com/llnl/mummi-workflow-core/pkg/job"
	"github.com/llnl/mummi-workflow-core/pkg/logger/log"
)

// CheckpointState is the restart payload a Tracker hydrates itself
// from: the shape saved and loaded through pkg/io/facade's
// SaveCheckpoint/LoadCheckpoint.
type CheckpointState struct {
	Type    string              `yaml:"type"`
	JobCnt  int64               `yaml:"jobCnt"`
	Running map[string][]string `yaml:"running"`
	Queued  []string            `yaml:"queued"`
}

// IsSetupFunc decides whether a simulation's workspace is coherent
// enough to resume. The default (nil) always accepts, matching the
// source's is_setup() stub; callers that need real coherence checks
// inject one with SetIsSetup.
type IsSetupFunc func(simname string) bool

// SetIsSetup overrides the per-simulation coherence check used by
// Restore. Only meaningful before the first Restore call.
func (t *Tracker) SetIsSetup(f IsSetupFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.isSetup = f
}

func (t *Tracker) isSetupLocked(simname string) bool {
	if t.isSetup == nil {
		return true
	}
	return t.isSetup(simname)
}

// Restore rehydrates queued and running state from a checkpoint.
// When checkForRunningJobs is true, every checkpointed running job is
// re-queried against the adapter and reattached (up to max_jobs_total)
// if still alive; everything else is treated as "not restored" and
// reclassified via the sim status flags, matching §4.G.
//
// Any simulation that fails the is_setup coherence check is a hard
// error (§7 "restore: strict-reject"): the checkpoint is incoherent
// with the on-disk workspace and must not be silently dropped.
func (t *Tracker) Restore(ctx context.Context, state CheckpointState, checkForRunningJobs bool) ([]string, []string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if state.Type != string(t.jobType) {
		return nil, nil, errors.NewError().WithCode(errors.InvalidArgument).
			WithMessagef("checkpoint type %q does not match tracker type %q", state.Type, t.jobType)
	}
	t.jobCnt = state.JobCnt

	jobsRunning := make(map[string][]string, len(state.Running))
	for id, sims := range state.Running {
		jobsRunning[id] = append([]string(nil), sims...)
	}
	simsQueued := append([]string(nil), state.Queued...)

	nrunning, nqueued := len(jobsRunning), len(simsQueued)
	log.Infof("[%s] restoring JobTracker: running=%d jobs, queued=%d sims", t.jobType, nrunning, nqueued)

	if nrunning == 0 && nqueued == 0 {
		return nil, nil, nil
	}

	t.writeHistoryLocked(history.EventRestore,
		[]string{fmt.Sprintf("running=%d", nrunning), fmt.Sprintf("queued=%d", nqueued)}, "restore")

	if checkForRunningJobs {
		jobIDs := make([]string, 0, len(jobsRunning))
		for id := range jobsRunning {
			jobIDs = append(jobIDs, id)
		}
		states, err := t.adapter.CheckJobs(ctx, jobIDs)
		if err != nil {
			states = nil
		}

		var restoredIDs, restoredSims []string
		for _, id := range jobIDs {
			sims := jobsRunning[id]
			alive := states != nil && states[id].Alive
			log.Debugf("[%s] is job %s running? %v -> %v", t.jobType, id, sims, alive)
			if alive {
				t.running[id] = job.New(t.jobType, id, sims)
				restoredIDs = append(restoredIDs, id)
				restoredSims = append(restoredSims, sims...)
			}
			if len(t.running) >= t.maxJobsTotal {
				break
			}
		}
		log.Infof("[%s] restored %d jobs", t.jobType, len(t.running))
		t.writeHistoryLocked(history.EventRestored, restoredSims, "restore")

		for _, id := range restoredIDs {
			delete(jobsRunning, id)
		}
	}

	var simsNotRestored []string
	for _, sims := range jobsRunning {
		simsNotRestored = append(simsNotRestored, sims...)
	}

	simsNotRestored, rejected := t.partitionSetup(simsNotRestored)
	if len(rejected) > 0 {
		log.Errorf("[%s] found running sims that were not setup correctly: %v", t.jobType, rejected)
		t.writeHistoryLocked(history.EventRejected, rejected, "restore:incorrect_setup/running")
		return nil, nil, errors.NewError().WithCode(errors.InvalidOperation).
			WithMessagef("checkpoint incoherent: running sims not setup: %v", rejected).
			WithError(errors.ErrSetupIncoherent)
	}

	simsQueued, rejected = t.partitionSetup(simsQueued)
	if len(rejected) > 0 {
		log.Errorf("[%s] found queued sims that were not setup correctly: %v", t.jobType, rejected)
		t.writeHistoryLocked(history.EventRejected, rejected, "restore:incorrect_setup/queued")
		return nil, nil, errors.NewError().WithCode(errors.InvalidOperation).
			WithMessagef("checkpoint incoherent: queued sims not setup: %v", rejected).
			WithError(errors.ErrSetupIncoherent)
	}

	statuses := t.checkSimStatus(ctx, simsNotRestored)
	simsSuccess, simsFailed, simsContinue := splitByStatus(simsNotRestored, statuses)

	t.writeHistoryLocked(history.EventSuccess, simsSuccess, "restore")
	t.writeHistoryLocked(history.EventFailed, simsFailed, "restore")
	simsTerminal.WithLabelValues(string(t.jobType), "success").Add(float64(len(simsSuccess)))
	simsTerminal.WithLabelValues(string(t.jobType), "failed").Add(float64(len(simsFailed)))

	log.Infof("[%s] queuing %d previously-running sims", t.jobType, len(simsContinue))
	t.enqueueLocked(simsContinue, true)
	t.enqueueLocked(simsQueued, false)

	log.Infof("[%s] restored %d queued and %d running jobs", t.jobType, nqueued, nrunning)
	t.reportMetricsLocked()
	log.Info(t.String())

	return simsSuccess, simsFailed, nil
}

func (t *Tracker) partitionSetup(sims []string) (ok, rejected []string) {
	for _, s := range sims {
		if t.isSetupLocked(s) {
			ok = append(ok, s)
		} else {
			rejected = append(rejected, s)
		}
	}
	return
}

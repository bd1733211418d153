package jobtracker

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/llnl/mummi-workflow-core/pkg/errors"
	"github.com/llnl/mummi-workflow-core/pkg/history"
	"github.com/llnl/mummi-workflow-core/pkg/job"
	"github.com/llnl/mummi-workflow-core/pkg/logger/log"
)

// StartJobs pulls from the queue, forms bundles, renders and submits
// launch scripts, and records the returned job identifiers. Returns
// the number of jobs started and the sim names started, sorted
// lexicographically within the batch so identical queue contents
// always bundle identically across runs.
func (t *Tracker) StartJobs(ctx context.Context, requestedN int) (int, []string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if requestedN == 0 {
		return 0, nil, nil
	}
	if requestedN < 0 {
		return 0, nil, errors.NewError().WithCode(errors.InvalidArgument).
			WithMessage("requested job count must be >= 0")
	}

	log.Info(t.String())

	actual := requestedN
	if room := t.maxJobsTotal - len(t.running); room < actual {
		actual = room
	}
	if avail := len(t.queued) / t.bundleSize; avail < actual {
		actual = avail
	}
	if actual <= 0 {
		log.Debugf("[%s] nothing to do: max_jobs=%d running=%d queued=%d bundle=%d",
			t.jobType, t.maxJobsTotal, len(t.running), len(t.queued), t.bundleSize)
		return 0, nil, nil
	}

	nSims := actual * t.bundleSize
	started := append([]string(nil), t.queued[:nSims]...)
	sort.Strings(started)
	t.queued = t.queued[nSims:]

	bundles := make([][]string, actual)
	for i := 0; i < actual; i++ {
		bundles[i] = started[i*t.bundleSize : (i+1)*t.bundleSize]
	}

	if !t.doScheduling {
		log.Infof("[%s] scheduling disabled", t.jobType)
		for _, bundle := range bundles {
			jobID := uuid.NewString()
			t.running[jobID] = job.New(t.jobType, jobID, bundle)
			t.jobCnt++
		}
		jobsStarted.WithLabelValues(string(t.jobType)).Add(float64(actual))
		t.reportMetricsLocked()
		return actual, started, nil
	}

	log.Infof("[%s] start_jobs: rendering %d bundles", t.jobType, len(bundles))
	rendered := t.renderBundles(ctx, bundles)

	for _, r := range rendered {
		if r.err != nil {
			return 0, nil, errors.NewError().WithCode(errors.InternalError).
				WithMessagef("failed to render script for bundle %v", r.bundle).WithError(r.err)
		}

		script, err := t.adapter.WriteScript(ctx, t.workspace, r.bundle, r.script)
		if err != nil {
			return 0, nil, errors.NewError().WithCode(errors.InternalError).
				WithMessagef("failed to write launch script for bundle %v", r.bundle).WithError(err)
		}

		log.Debugf("[%s] submitting bundle %v", t.jobType, r.bundle)
		jobID, err := t.adapter.Submit(ctx, t.workspace, script, r.bundle)
		if err != nil {
			return 0, nil, errors.NewError().WithCode(errors.InternalError).
				WithMessagef("failed to submit %s job for bundle %v", t.jobType, r.bundle).WithError(err)
		}
		t.running[jobID] = job.New(t.jobType, jobID, r.bundle)
		t.jobCnt++
		log.Debugf("[%s] started job %s for %v", t.jobType, jobID, r.bundle)
	}

	t.writeHistoryLocked(history.EventStarted, started, "start_jobs")
	jobsStarted.WithLabelValues(string(t.jobType)).Add(float64(actual))
	t.reportMetricsLocked()
	log.Infof("[%s] started %d jobs: %s", t.jobType, actual, t.String())
	return actual, started, nil
}

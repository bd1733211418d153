package jobtracker

import (
	"github.com/llnl/mummi-workflow-core/pkg/history"
	"github.com/llnl/mummi-workflow-core/pkg/logger/log"
)

// Enqueue dedupes sim names, rejects any already queued or running
// (journaling each rejection with its reason), then appends (or
// prepends, for the requeue path) the rest. Returns the sims that were
// actually added.
func (t *Tracker) Enqueue(simNames []string, prepend bool) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enqueueLocked(simNames, prepend)
}

func (t *Tracker) enqueueLocked(simNames []string, prepend bool) []string {
	if len(simNames) == 0 {
		return nil
	}

	log.Infof("[%s] adding %d sims: %s", t.jobType, len(simNames), t.String())

	unique := dedupe(simNames)
	if len(unique) < len(simNames) {
		log.Warnf("[%s] found only %d unique sims", t.jobType, len(unique))
	}

	queuedSet := make(map[string]struct{}, len(t.queued))
	for _, q := range t.queued {
		queuedSet[q] = struct{}{}
	}

	var afterQueueFilter []string
	var rejectedQueued []string
	for _, s := range unique {
		if _, ok := queuedSet[s]; ok {
			rejectedQueued = append(rejectedQueued, s)
		} else {
			afterQueueFilter = append(afterQueueFilter, s)
		}
	}
	if len(rejectedQueued) > 0 {
		log.Warnf("[%s] rejecting %d already-queued sims: %v", t.jobType, len(rejectedQueued), rejectedQueued)
		t.writeHistoryLocked(history.EventRejected, rejectedQueued, "add_to_queue:already_queued")
	}

	runningSet := make(map[string]struct{})
	for _, s := range t.runningSims() {
		runningSet[s] = struct{}{}
	}

	var accepted []string
	var rejectedRunning []string
	for _, s := range afterQueueFilter {
		if _, ok := runningSet[s]; ok {
			rejectedRunning = append(rejectedRunning, s)
		} else {
			accepted = append(accepted, s)
		}
	}
	if len(rejectedRunning) > 0 {
		log.Warnf("[%s] rejecting %d already-running sims: %v", t.jobType, len(rejectedRunning), rejectedRunning)
		t.writeHistoryLocked(history.EventRejected, rejectedRunning, "add_to_queue:already_running")
	}

	if len(accepted) == 0 {
		return accepted
	}

	event := history.EventAppended
	if prepend {
		event = history.EventPrepended
		t.queued = append(append([]string(nil), accepted...), t.queued...)
	} else {
		t.queued = append(t.queued, accepted...)
	}
	t.writeHistoryLocked(event, accepted, "add_to_queue")
	log.Debugf("[%s] %s %d sims: %s: %v", t.jobType, event, len(accepted), t.String(), accepted)
	return accepted
}

func (t *Tracker) writeHistoryLocked(event history.Event, data []string, comment string) {
	if err := t.journal.Write(string(t.jobType), event, data, len(t.running), len(t.queued), comment); err != nil {
		log.Errorf("[%s] failed to write history: %v", t.jobType, err)
	}
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

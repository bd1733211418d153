// Package control wires a set of JobTrackers into a single cron-driven
// run loop: each job type's update/start_jobs tick fires on its own
// schedule, skip-if-still-running guarded the same way the teacher's
// job runner guards its scheduled jobs.
package control

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/llnl/mummi-workflow-core/pkg/jobtracker"
	"github.com/llnl/mummi-workflow-core/pkg/logger/log"
)

// TickConfig is the per-job-type schedule and start-batch size the
// Loop drives a Tracker with.
type TickConfig struct {
	JobType       string
	Schedule      string // standard cron expression, e.g. "@every 30s"
	StartBatch    int    // requestedN passed to StartJobs each tick
}

// Loop owns a fixed set of Trackers and the cron scheduler that drives
// their update/start_jobs cycle.
type Loop struct {
	mu        sync.RWMutex
	trackers  map[string]*jobtracker.Tracker
	cron      *cron.Cron
	lastTicks map[string]TickStats
}

// New builds a Loop. Each tracker's tick fires Update then, if room
// remains, StartJobs — mirroring the source's top-level run_forever
// calling update() before start_jobs() every iteration.
func New(ctx context.Context, tracked map[string]*jobtracker.Tracker, ticks []TickConfig) (*Loop, error) {
	l := &Loop{
		trackers:  tracked,
		lastTicks: make(map[string]TickStats, len(tracked)),
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
	}

	for _, tick := range ticks {
		tick := tick
		t, ok := tracked[tick.JobType]
		if !ok {
			log.Warnf("control: no tracker registered for job type %q, skipping schedule", tick.JobType)
			continue
		}
		_, err := l.cron.AddFunc(tick.Schedule, func() {
			l.runTick(ctx, tick.JobType, t, tick.StartBatch)
		})
		if err != nil {
			return nil, err
		}
		log.Infof("control: scheduled %q on %q", tick.JobType, tick.Schedule)
	}
	return l, nil
}

func (l *Loop) runTick(ctx context.Context, jobType string, t *jobtracker.Tracker, startBatch int) {
	stats := TickStats{JobType: jobType, StartTime: time.Now()}
	defer func() {
		stats.finish()
		l.mu.Lock()
		l.lastTicks[jobType] = stats
		l.mu.Unlock()
	}()

	success, failed, err := t.Update(ctx)
	stats.SimsSucceeded, stats.SimsFailed = len(success), len(failed)
	if err != nil {
		stats.Err = err
		log.Errorf("control: update tick failed for %q: %v", jobType, err)
		return
	}
	if startBatch <= 0 {
		return
	}
	n, _, err := t.StartJobs(ctx, startBatch)
	stats.JobsStarted = n
	if err != nil {
		stats.Err = err
		log.Errorf("control: start_jobs tick failed for %q: %v", jobType, err)
	}
}

// LastTick returns the most recent tick's summary for a job type.
func (l *Loop) LastTick(jobType string) (TickStats, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.lastTicks[jobType]
	return s, ok
}

// Start begins the cron scheduler; it does not block.
func (l *Loop) Start() { l.cron.Start() }

// Stop halts the scheduler and waits for any in-flight tick to finish.
func (l *Loop) Stop(ctx context.Context) {
	stopCtx := l.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
}

// Trackers implements pkg/httpapi's TrackerSource.
func (l *Loop) Trackers() map[string]*jobtracker.Tracker {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]*jobtracker.Tracker, len(l.trackers))
	for k, v := range l.trackers {
		out[k] = v
	}
	return out
}

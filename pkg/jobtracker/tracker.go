// Package jobtracker implements the per-job-type controller that
// manages a queue of pending simulations, a set of in-flight scheduler
// jobs, bundling, submission, status reconciliation, cancellation,
// resource accounting, restart from checkpoint, and history
// journaling — grounded on the source's JobTracker class.
package jobtracker

import (
	"fmt"
	"sync"

	"github.com/llnl/mummi-workflow-core/pkg/config"
	"github.com/llnl/mummi-workflow-core/pkg/errors"
	"github.com/llnl/mummi-workflow-core/pkg/history"
	"github.com/llnl/mummi-workflow-core/pkg/io/facade"
	"github.com/llnl/mummi-workflow-core/pkg/job"
	"github.com/llnl/mummi-workflow-core/pkg/logger/log"
	"github.com/llnl/mummi-workflow-core/pkg/naming"
)

// HostResources is the per-node capacity the tracker's resource
// accounting resolves from host identity at construction — the Go
// analogue of mummi_core.get_resource_counts().
type HostResources struct {
	CoresPerNode int
	GPUsPerNode  int
}

// Tracker is a single-owner state machine: its state is never
// externally mutated outside of the control-loop goroutine that owns
// it (see pkg/control).
type Tracker struct {
	mu sync.Mutex

	jobType job.Type
	typesCfg job.TypesConfig
	cfg     config.JobConfig

	adapter       Adapter
	doScheduling  bool
	io            *facade.Facade
	naming        *naming.Service
	journal       *history.Journal

	flagSuccess, flagFailure string

	nnodes, nprocs, ncores, ngpus int
	bundleSize                    int
	maxJobsTotal                  int

	queued  []string
	running map[string]*job.Job
	jobCnt  int64

	isSetup IsSetupFunc

	workspace string
}

// New constructs a Tracker, resolving resource-sizing invariants
// (§3 "max_jobs_total ... ≥ 1") at construction; construction fails
// loudly on an invariant violation, per §7 Error Handling.
func New(
	jobType job.Type,
	typesCfg job.TypesConfig,
	cfg config.JobConfig,
	totalNodes int,
	host HostResources,
	adapter Adapter,
	enableScheduling bool,
	io *facade.Facade,
	nm *naming.Service,
) (*Tracker, error) {
	if !typesCfg.IsValid(jobType) {
		return nil, errors.NewError().WithCode(errors.InvalidArgument).
			WithMessagef("job type %q is not in the configured type set", jobType)
	}

	nnodes := cfg.NNodes
	nprocs := cfg.NProcs
	ncores := cfg.CoresPerTask
	ngpus := cfg.NGPUs
	bundleSize := cfg.BundleSize
	if bundleSize <= 0 {
		bundleSize = 1
	}

	if nnodes != 1 {
		return nil, errors.NewError().WithCode(errors.InvalidArgument).
			WithMessage("nnodes must be 1 per simulation")
	}
	if nprocs < 1 || nprocs > host.CoresPerNode {
		return nil, errors.NewError().WithCode(errors.InvalidArgument).
			WithMessagef("nprocs=%d out of range [1,%d]", nprocs, host.CoresPerNode)
	}
	if ncores < 1 || ncores > host.CoresPerNode {
		return nil, errors.NewError().WithCode(errors.InvalidArgument).
			WithMessagef("ncores=%d out of range [1,%d]", ncores, host.CoresPerNode)
	}
	if ngpus < 0 || ngpus > host.GPUsPerNode {
		return nil, errors.NewError().WithCode(errors.InvalidArgument).
			WithMessagef("ngpus=%d out of range [0,%d]", ngpus, host.GPUsPerNode)
	}

	coresPerJob := bundleSize * ncores
	gpusPerJob := bundleSize * ngpus

	maxJobsPerNode := host.CoresPerNode / coresPerJob
	if gpusPerJob > 0 {
		if gpusPerJob > host.GPUsPerNode {
			return nil, errors.NewError().WithCode(errors.InvalidArgument).
				WithMessagef("gpus_per_job=%d exceeds gpus_per_node=%d", gpusPerJob, host.GPUsPerNode)
		}
		if gpuMax := host.GPUsPerNode / gpusPerJob; gpuMax < maxJobsPerNode {
			maxJobsPerNode = gpuMax
		}
	}
	if maxJobsPerNode <= 0 {
		return nil, errors.NewError().WithCode(errors.InvalidArgument).
			WithMessage("resource configuration yields max_jobs_pernode <= 0")
	}

	maxJobsTotal := totalNodes * maxJobsPerNode
	if maxJobsTotal < 1 {
		maxJobsTotal = 1
	}

	flagSuccess, flagFailure := nm.StatusFlags(string(jobType))
	workspace := nm.DirRoot("workspace")

	t := &Tracker{
		jobType:      jobType,
		typesCfg:     typesCfg,
		cfg:          cfg,
		adapter:      adapter,
		doScheduling: enableScheduling && adapter != nil,
		io:           io,
		naming:       nm,
		journal:      history.Open(workspace + "/jobtracker.history.csv"),
		flagSuccess:  flagSuccess,
		flagFailure:  flagFailure,
		nnodes:       nnodes,
		nprocs:       nprocs,
		ncores:       ncores,
		ngpus:        ngpus,
		bundleSize:   bundleSize,
		maxJobsTotal: maxJobsTotal,
		queued:       nil,
		running:      make(map[string]*job.Job),
		workspace:    workspace,
	}

	log.Infof("[%s] initialized JobTracker: nodes=%d max_jobs=%d bundle_size=%d",
		jobType, totalNodes, maxJobsTotal, bundleSize)
	return t, nil
}

func (t *Tracker) String() string {
	return fmt.Sprintf("JobTracker[%s]: max_jobs=%d running=%d queued=%d",
		t.jobType, t.maxJobsTotal, len(t.running), len(t.queued))
}

func (t *Tracker) dirSim(simname string) string {
	bucket := t.cfg.DirSim
	if bucket == "" {
		bucket = string(t.jobType)
	}
	return t.naming.DirSim(bucket, simname)
}

func (t *Tracker) nQueued() int  { return len(t.queued) }
func (t *Tracker) nRunning() int { return len(t.running) }

func (t *Tracker) runningSims() []string {
	var out []string
	for _, j := range t.running {
		out = append(out, j.Sims...)
	}
	return out
}

// Status returns a structural snapshot intended for external monitors
// (e.g. pkg/httpapi), matching the source's status() dict shape.
type Status struct {
	Type     string              `json:"type"`
	JobCnt    int64               `json:"jobCnt"`
	NQueued  int                 `json:"nqueued"`
	NRunning int                 `json:"nrunning"`
	Queued   []string            `json:"queued"`
	Running  map[string][]string `json:"running"`
}

func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	running := make(map[string][]string, len(t.running))
	for id, j := range t.running {
		running[id] = append([]string(nil), j.Sims...)
	}
	return Status{
		Type:     string(t.jobType),
		JobCnt:   t.jobCnt,
		NQueued:  len(t.queued),
		NRunning: len(running),
		Queued:   append([]string(nil), t.queued...),
		Running:  running,
	}
}

// Package bootstrap wires a loaded Config into a running set of
// JobTrackers plus the control loop and status server that drive them
// — grounded on the teacher's Init(ctx, cfg) bootstrap entry point.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/llnl/mummi-workflow-core/pkg/adapter/flux"
	"github.com/llnl/mummi-workflow-core/pkg/config"
	"github.com/llnl/mummi-workflow-core/pkg/control"
	mio "github.com/llnl/mummi-workflow-core/pkg/io"
	"github.com/llnl/mummi-workflow-core/pkg/io/facade"
	"github.com/llnl/mummi-workflow-core/pkg/io/localfs"
	"github.com/llnl/mummi-workflow-core/pkg/io/s3archive"
	"github.com/llnl/mummi-workflow-core/pkg/io/shard"
	"github.com/llnl/mummi-workflow-core/pkg/io/tar"
	"github.com/llnl/mummi-workflow-core/pkg/job"
	"github.com/llnl/mummi-workflow-core/pkg/jobtracker"
	"github.com/llnl/mummi-workflow-core/pkg/logger/conf"
	"github.com/llnl/mummi-workflow-core/pkg/logger/log"
	"github.com/llnl/mummi-workflow-core/pkg/logger/logrus"
	"github.com/llnl/mummi-workflow-core/pkg/naming"
)

// System is the fully-wired runtime: every configured Tracker plus the
// control loop driving them, and the shared naming/io handles CLI
// subcommands need for one-shot checkpoint load/enqueue/save cycles.
type System struct {
	Trackers map[string]*jobtracker.Tracker
	Loop     *control.Loop
	Naming   *naming.Service
	IO       *facade.Facade
}

// CheckpointPath is the on-disk location a Tracker's checkpoint is
// saved to and loaded from between CLI invocations.
func CheckpointPath(nm *naming.Service, jobType string) string {
	return nm.DirRoot("checkpoints") + "/" + jobType + ".checkpoint.yaml"
}

// Init parses the logging section, selects the IO backend, builds a
// Tracker per configured job type, and assembles the cron-driven
// control loop.
func Init(ctx context.Context, cfg *config.Config) (*System, error) {
	if err := initLogging(cfg.Log); err != nil {
		return nil, err
	}

	if len(cfg.Jobs) == 0 {
		return nil, fmt.Errorf("bootstrap: at least one job type must be configured")
	}

	nm := naming.New(cfg.Root.MummiRoot, cfg.Root.MummiResources, cfg.Root.MummiApp)

	backend, err := buildBackend(ctx, cfg.IO)
	if err != nil {
		return nil, err
	}
	io := facade.New(backend)
	if cfg.Archive.Endpoint != "" {
		mirror, err := s3archive.New(cfg.Archive)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: checkpoint archive: %w", err)
		}
		io.SetArchiver(mirror)
		log.Infof("bootstrap: mirroring checkpoints to s3://%s/%s", cfg.Archive.Bucket, cfg.Archive.Prefix)
	}

	typesCfg := job.TypesConfig{NextQueue: map[job.Type]string{}}
	for _, t := range cfg.Types.Types {
		typesCfg.Types = append(typesCfg.Types, job.Type(t))
	}
	for from, to := range cfg.Types.NextQueue {
		typesCfg.NextQueue[job.Type(from)] = to
	}

	host := jobtracker.HostResources{
		CoresPerNode: cfg.Cluster.CoresPerNode,
		GPUsPerNode:  cfg.Cluster.GPUsPerNode,
	}

	trackers := make(map[string]*jobtracker.Tracker, len(cfg.Jobs))
	var ticks []control.TickConfig
	for name, jc := range cfg.Jobs {
		jt := job.Type(jc.JobType)
		if jt == "" {
			jt = job.Type(name)
		}
		adapter := flux.New(jc.NNodes, jc.NProcs, jc.CoresPerTask)
		tr, err := jobtracker.New(jt, typesCfg, jc, cfg.Cluster.TotalNodes, host, adapter,
			cfg.Cluster.EnableScheduling, io, nm)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: job type %q: %w", name, err)
		}
		trackers[name] = tr

		if jc.Schedule != "" {
			ticks = append(ticks, control.TickConfig{
				JobType:    name,
				Schedule:   jc.Schedule,
				StartBatch: jc.StartBatch,
			})
		}
		log.Infof("bootstrap: initialized tracker %q (type=%s)", name, jt)
	}

	loop, err := control.New(ctx, trackers, ticks)
	if err != nil {
		return nil, err
	}
	return &System{Trackers: trackers, Loop: loop, Naming: nm, IO: io}, nil
}

func initLogging(lc conf.LogConfig) error {
	cfg := &lc
	if lc.Level == "" {
		cfg = conf.DefaultConfig()
	}
	l, err := logrus.NewLogrusWrapper(cfg)
	if err != nil {
		return fmt.Errorf("bootstrap: init logger: %w", err)
	}
	log.SetGlobalLogger(l)
	return nil
}

func buildBackend(ctx context.Context, ioc config.IOConfig) (mio.Backend, error) {
	switch ioc.Backend {
	case "", "localfs":
		return localfs.New(), nil
	case "tar":
		return tar.New(), nil
	case "shard":
		timeout := 10 * time.Second
		if ioc.Shard.LockTimeout != "" {
			d, err := time.ParseDuration(ioc.Shard.LockTimeout)
			if err != nil {
				return nil, fmt.Errorf("bootstrap: invalid shard lock_timeout: %w", err)
			}
			timeout = d
		}
		reg := shard.NewRegistry(ioc.Shard.RegistryFile, ioc.Shard.BindingFile, timeout)
		return shard.New(ctx, reg)
	default:
		return nil, fmt.Errorf("bootstrap: unknown io backend %q", ioc.Backend)
	}
}

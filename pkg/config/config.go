// Package config loads the static, on-disk configuration for a
// mummi-workflow-core deployment: the logging section, the per-job-type
// tracker configs, and the IO backend selection — grounded on the
// nested-struct-with-yaml-tags layout the teacher uses for its own
// top-level Config.
package config

import (
	"os"

	"gopkg.in/yaml.v2"

	"github.com/llnl/mummi-workflow-core/pkg/io/s3archive"
	"github.com/llnl/mummi-workflow-core/pkg/logger/conf"
)

// Config is the root configuration document, loaded once at process
// startup and passed by value (or as a read-only pointer) into every
// subsystem constructor.
type Config struct {
	Log     conf.LogConfig       `yaml:"log"`
	Root    RootConfig           `yaml:"root"`
	Cluster ClusterConfig        `yaml:"cluster"`
	IO      IOConfig             `yaml:"io"`
	HTTP    HTTPConfig           `yaml:"http"`
	Types   TypesConfig          `yaml:"types"`
	Jobs    map[string]JobConfig `yaml:"jobs"`

	// Archive configures an optional off-cluster checkpoint mirror.
	// Zero value (empty Endpoint) disables it.
	Archive s3archive.Config `yaml:"archive"`
}

// ClusterConfig supplies the host-resource inputs to every Tracker's
// resource-accounting construction (§3 max_jobs_total).
type ClusterConfig struct {
	TotalNodes      int  `yaml:"total_nodes"`
	CoresPerNode    int  `yaml:"cores_per_node"`
	GPUsPerNode     int  `yaml:"gpus_per_node"`
	EnableScheduling bool `yaml:"enable_scheduling"`
}

// HTTPConfig configures the read-only status server.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// TypesConfig is the YAML shape of job.TypesConfig: the valid job
// types and the queue each feeds into on success.
type TypesConfig struct {
	Types     []string          `yaml:"types"`
	NextQueue map[string]string `yaml:"next_queue"`
}

// RootConfig supplies the Naming Service inputs when not sourced from
// the environment.
type RootConfig struct {
	MummiRoot      string `yaml:"mummi_root"`
	MummiResources string `yaml:"mummi_resources"`
	MummiApp       string `yaml:"mummi_app"`
}

// IOConfig selects and configures the IO backend the facade binds to.
type IOConfig struct {
	// Backend is one of "localfs", "tar", "shard". localfs and tar take
	// namespace paths as given by the Naming Service directly and need
	// no further configuration; shard needs the fields below.
	Backend string      `yaml:"backend"`
	Shard   ShardConfig `yaml:"shard"`
}

type ShardConfig struct {
	RegistryFile string `yaml:"registry_file"`
	BindingFile  string `yaml:"binding_file"`
	LockTimeout  string `yaml:"lock_timeout"` // parsed with time.ParseDuration
}

// JobConfig is the per-job-type resource and scheduling description —
// the Go shape of the source's `job_desc['config']` dict, with keys
// made explicit instead of stringly-typed map access.
type JobConfig struct {
	JobType      string            `yaml:"job_type"`
	DirSim       string            `yaml:"dir_sim"`
	NNodes       int               `yaml:"nnodes"`
	NProcs       int               `yaml:"nprocs"`
	CoresPerTask int               `yaml:"cores_per_task"`
	NGPUs        int               `yaml:"ngpus"`
	BundleSize   int               `yaml:"bundle_size"`
	UseBroker    bool              `yaml:"use_broker"`
	BrokerOpts   map[string]string `yaml:"broker_options"`
	Walltime     string            `yaml:"walltime"`
	Wrapper      string            `yaml:"wrapper"`
	Script       string            `yaml:"script"`
	Imports      []string          `yaml:"imports"`
	Variables    map[string]interface{} `yaml:"variables"`
	JobName      string            `yaml:"jobname"`
	JobDesc      string            `yaml:"jobdesc"`

	// Schedule and StartBatch drive pkg/control's per-type cron tick.
	Schedule   string `yaml:"schedule"`
	StartBatch int    `yaml:"start_batch"`
}

// Load reads and parses a YAML config file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
log:
  level: info
  format: json
root:
  mummi_root: /tmp/mummi
  mummi_resources: /tmp/mummi-resources
  mummi_app: myapp
cluster:
  total_nodes: 4
  cores_per_node: 16
  gpus_per_node: 0
  enable_scheduling: true
io:
  backend: localfs
http:
  addr: ":9090"
types:
  types: ["aa", "cg"]
  next_queue:
    aa: cg
jobs:
  aa:
    job_type: aa
    nnodes: 1
    nprocs: 4
    cores_per_task: 4
    bundle_size: 1
    schedule: "@every 30s"
    start_batch: 2
`

func TestLoadParsesNestedSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Cluster.TotalNodes)
	assert.True(t, cfg.Cluster.EnableScheduling)
	assert.Equal(t, "localfs", cfg.IO.Backend)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, []string{"aa", "cg"}, cfg.Types.Types)
	assert.Equal(t, "cg", cfg.Types.NextQueue["aa"])

	job, ok := cfg.Jobs["aa"]
	require.True(t, ok)
	assert.Equal(t, 1, job.NNodes)
	assert.Equal(t, "@every 30s", job.Schedule)
	assert.Equal(t, 2, job.StartBatch)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}

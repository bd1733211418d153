package jobtracker

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llnl/mummi-workflow-core/pkg/config"
	"github.com/llnl/mummi-workflow-core/pkg/io/facade"
	"github.com/llnl/mummi-workflow-core/pkg/io/localfs"
	"github.com/llnl/mummi-workflow-core/pkg/job"
	"github.com/llnl/mummi-workflow-core/pkg/naming"
)

// fakeAdapter is an in-memory Adapter whose CheckJobs/CancelJobs
// responses are pre-scripted by the test, mirroring how the teacher's
// own mock job/client types stub out external calls.
type fakeAdapter struct {
	states        map[string]JobState
	checkErr      error
	cancelResult  CancelResult
	cancelErr     error
	canceledCalls [][]string
}

func (f *fakeAdapter) WriteScript(_ context.Context, _ string, _ []string, script string) (string, error) {
	return script, nil
}

func (f *fakeAdapter) Submit(_ context.Context, _ string, _ string, _ []string) (string, error) {
	return "job-1", nil
}

func (f *fakeAdapter) CheckJobs(_ context.Context, jobIDs []string) (map[string]JobState, error) {
	if f.checkErr != nil {
		return nil, f.checkErr
	}
	out := make(map[string]JobState, len(jobIDs))
	for _, id := range jobIDs {
		out[id] = f.states[id]
	}
	return out, nil
}

func (f *fakeAdapter) CancelJobs(_ context.Context, jobIDs []string) (CancelResult, error) {
	f.canceledCalls = append(f.canceledCalls, append([]string(nil), jobIDs...))
	return f.cancelResult, f.cancelErr
}

var testTypesConfig = job.TypesConfig{Types: []job.Type{"aa"}}

func newTestTracker(t *testing.T, adapter Adapter) *Tracker {
	t.Helper()
	root := t.TempDir()
	nm := naming.New(root, root, "testapp")
	io := facade.New(localfs.New())

	cfg := config.JobConfig{
		NNodes:       1,
		NProcs:       4,
		CoresPerTask: 4,
		BundleSize:   1,
	}
	host := HostResources{CoresPerNode: 16, GPUsPerNode: 0}

	tr, err := New("aa", testTypesConfig, cfg, 2, host, adapter, true, io, nm)
	require.NoError(t, err)
	return tr
}

func TestNewRejectsBadResourceConfig(t *testing.T) {
	root := t.TempDir()
	nm := naming.New(root, root, "testapp")
	io := facade.New(localfs.New())
	host := HostResources{CoresPerNode: 16, GPUsPerNode: 0}

	tests := []struct {
		name string
		cfg  config.JobConfig
	}{
		{"nnodes must be 1", config.JobConfig{NNodes: 2, NProcs: 4, CoresPerTask: 4}},
		{"nprocs out of range", config.JobConfig{NNodes: 1, NProcs: 0, CoresPerTask: 4}},
		{"ncores out of range", config.JobConfig{NNodes: 1, NProcs: 4, CoresPerTask: 0}},
		{"ngpus exceeds host", config.JobConfig{NNodes: 1, NProcs: 4, CoresPerTask: 4, NGPUs: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("aa", testTypesConfig, tt.cfg, 2, host, nil, false, io, nm)
			assert.Error(t, err)
		})
	}
}

func TestNewRejectsUnconfiguredJobType(t *testing.T) {
	root := t.TempDir()
	nm := naming.New(root, root, "testapp")
	io := facade.New(localfs.New())
	host := HostResources{CoresPerNode: 16, GPUsPerNode: 0}
	cfg := config.JobConfig{NNodes: 1, NProcs: 4, CoresPerTask: 4}

	_, err := New("unregistered", testTypesConfig, cfg, 2, host, nil, false, io, nm)
	assert.Error(t, err)
}

func TestEnqueueDedupesAndRejectsDuplicates(t *testing.T) {
	tr := newTestTracker(t, &fakeAdapter{})

	added := tr.Enqueue([]string{"sim1", "sim2", "sim1"}, false)
	assert.ElementsMatch(t, []string{"sim1", "sim2"}, added)
	assert.Equal(t, 2, tr.nQueued())

	// already-queued sims are rejected, not re-added.
	added = tr.Enqueue([]string{"sim1", "sim3"}, false)
	assert.ElementsMatch(t, []string{"sim3"}, added)
	assert.Equal(t, 3, tr.nQueued())
}

func TestEnqueuePrependOrdering(t *testing.T) {
	tr := newTestTracker(t, &fakeAdapter{})

	tr.Enqueue([]string{"sim1", "sim2"}, false)
	tr.Enqueue([]string{"sim0"}, true)

	tr.mu.Lock()
	queued := append([]string(nil), tr.queued...)
	tr.mu.Unlock()
	assert.Equal(t, []string{"sim0", "sim1", "sim2"}, queued)
}

func TestEnqueueRejectsAlreadyRunning(t *testing.T) {
	tr := newTestTracker(t, &fakeAdapter{})

	tr.mu.Lock()
	tr.running["job-1"] = job.New("aa", "job-1", []string{"sim1"})
	tr.mu.Unlock()

	added := tr.Enqueue([]string{"sim1", "sim2"}, false)
	assert.ElementsMatch(t, []string{"sim2"}, added)
}

func TestUpdateLeavesRunningWhenAliveAndUnknown(t *testing.T) {
	adapter := &fakeAdapter{states: map[string]JobState{"job-1": {Alive: true}}}
	tr := newTestTracker(t, adapter)

	tr.mu.Lock()
	tr.running["job-1"] = job.New("aa", "job-1", []string{"sim1"})
	tr.mu.Unlock()

	successes, failures, err := tr.Update(context.Background())
	require.NoError(t, err)
	assert.Empty(t, successes)
	assert.Empty(t, failures)
	assert.Equal(t, 1, tr.nRunning(), "job with an unknown sim and still alive must remain running")
}

func TestUpdateReclaimsOnSuccessFlag(t *testing.T) {
	adapter := &fakeAdapter{states: map[string]JobState{"job-1": {Alive: true}}}
	tr := newTestTracker(t, adapter)

	tr.mu.Lock()
	tr.running["job-1"] = job.New("aa", "job-1", []string{"sim1"})
	dir := tr.dirSim("sim1")
	tr.mu.Unlock()

	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, tr.io.SendSignal(dir, tr.flagSuccess))

	successes, failures, err := tr.Update(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"sim1"}, successes)
	assert.Empty(t, failures)
	assert.Equal(t, 0, tr.nRunning())
}

func TestUpdateCancelsWhenAllSimsFailedAndJobAlive(t *testing.T) {
	adapter := &fakeAdapter{states: map[string]JobState{"job-1": {Alive: true}}, cancelResult: CancelOK}
	tr := newTestTracker(t, adapter)

	tr.mu.Lock()
	tr.running["job-1"] = job.New("aa", "job-1", []string{"sim1"})
	dir := tr.dirSim("sim1")
	tr.mu.Unlock()

	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, tr.io.SendSignal(dir, tr.flagFailure))

	_, failures, err := tr.Update(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"sim1"}, failures)
	assert.Equal(t, 0, tr.nRunning())
	assert.Len(t, adapter.canceledCalls, 1, "an alive job with all sims failed must be canceled")
}

func TestUpdateTimedOutCountsAsFailedRegardlessOfFlags(t *testing.T) {
	adapter := &fakeAdapter{states: map[string]JobState{"job-1": {Alive: false, TimedOut: true}}}
	tr := newTestTracker(t, adapter)

	tr.mu.Lock()
	tr.running["job-1"] = job.New("aa", "job-1", []string{"sim1", "sim2"})
	tr.mu.Unlock()

	_, failures, err := tr.Update(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"sim1", "sim2"}, failures)
}

func TestUpdateLeavesRunningOnCannotClassify(t *testing.T) {
	adapter := &fakeAdapter{checkErr: ErrCannotClassify}
	tr := newTestTracker(t, adapter)

	tr.mu.Lock()
	tr.running["job-1"] = job.New("aa", "job-1", []string{"sim1"})
	tr.mu.Unlock()

	successes, failures, err := tr.Update(context.Background())
	require.NoError(t, err)
	assert.Empty(t, successes)
	assert.Empty(t, failures)
	assert.Equal(t, 1, tr.nRunning())
}

func TestCheckpointRoundTrip(t *testing.T) {
	tr := newTestTracker(t, &fakeAdapter{})
	tr.Enqueue([]string{"sim1", "sim2"}, false)

	tr.mu.Lock()
	tr.running["job-1"] = job.New("aa", "job-1", []string{"sim3"})
	tr.jobCnt = 7
	tr.mu.Unlock()

	raw := tr.Checkpoint()
	state, err := DecodeCheckpointState(raw)
	require.NoError(t, err)
	assert.Equal(t, "aa", state.Type)
	assert.Equal(t, int64(7), state.JobCnt)
	assert.ElementsMatch(t, []string{"sim1", "sim2"}, state.Queued)
	assert.Equal(t, []string{"sim3"}, state.Running["job-1"])
}

func TestDecodeCheckpointStateToleratesYAMLv2InterfaceKeyedMaps(t *testing.T) {
	raw := map[string]interface{}{
		"type":   "aa",
		"jobCnt": float64(3),
		"running": map[interface{}]interface{}{
			"job-1": []interface{}{"sim1", "sim2"},
		},
		"queued": []interface{}{"sim3"},
	}

	state, err := DecodeCheckpointState(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(3), state.JobCnt)
	assert.Equal(t, []string{"sim1", "sim2"}, state.Running["job-1"])
	assert.Equal(t, []string{"sim3"}, state.Queued)
}

func TestDecodeCheckpointStateRejectsNonStringKeyInRunningMap(t *testing.T) {
	raw := map[string]interface{}{
		"type": "aa",
		"running": map[interface{}]interface{}{
			42: []interface{}{"sim1"},
		},
	}

	_, err := DecodeCheckpointState(raw)
	assert.Error(t, err)
}

func TestRestoreRejectsIncoherentSetup(t *testing.T) {
	adapter := &fakeAdapter{states: map[string]JobState{"job-1": {Alive: false}}}
	tr := newTestTracker(t, adapter)
	tr.SetIsSetup(func(simname string) bool { return simname != "bad-sim" })

	state := CheckpointState{
		Type:    "aa",
		Running: map[string][]string{"job-1": {"bad-sim"}},
	}

	_, _, err := tr.Restore(context.Background(), state, true)
	assert.Error(t, err)
	assert.ErrorContains(t, err, "not setup")
}

func TestRestoreReattachesAliveJobsAndReclassifiesTheRest(t *testing.T) {
	adapter := &fakeAdapter{states: map[string]JobState{
		"job-alive": {Alive: true},
		"job-dead":  {Alive: false},
	}}
	tr := newTestTracker(t, adapter)

	dir := tr.dirSim("sim-done")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, tr.io.SendSignal(dir, tr.flagSuccess))

	state := CheckpointState{
		Type: "aa",
		Running: map[string][]string{
			"job-alive": {"sim-running"},
			"job-dead":  {"sim-done"},
		},
		Queued: []string{"sim-queued"},
	}

	successes, failures, err := tr.Restore(context.Background(), state, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"sim-done"}, successes)
	assert.Empty(t, failures)
	assert.Equal(t, 1, tr.nRunning())

	tr.mu.Lock()
	_, stillRunning := tr.running["job-alive"]
	queued := append([]string(nil), tr.queued...)
	tr.mu.Unlock()
	assert.True(t, stillRunning)
	assert.Contains(t, queued, "sim-queued")
}

package flux

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llnl/mummi-workflow-core/pkg/jobtracker"
)

func TestWriteScriptWritesExecutableFile(t *testing.T) {
	a := New(1, 4, 4)
	workspace := t.TempDir()

	path, err := a.WriteScript(context.Background(), workspace, []string{"sim1", "sim2"}, "#!/bin/sh\necho hi\n")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(workspace, "scripts", "sim1_sim2.sh"), path)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "echo hi")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0o100, "script should be executable")
}

func TestSubmitReturnsTrimmedJobID(t *testing.T) {
	a := New(1, 4, 4)
	a.exec = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("f1234abc\n"), nil
	}
	id, err := a.Submit(context.Background(), "/workspace", "/workspace/scripts/sim1.sh", []string{"sim1"})
	require.NoError(t, err)
	assert.Equal(t, "f1234abc", id)
}

func TestSubmitRejectsEmptyOutput(t *testing.T) {
	a := New(1, 4, 4)
	a.exec = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("  \n"), nil
	}
	_, err := a.Submit(context.Background(), "/workspace", "/workspace/scripts/sim1.sh", []string{"sim1"})
	assert.Error(t, err)
}

func TestSubmitPropagatesExecError(t *testing.T) {
	a := New(1, 4, 4)
	a.exec = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, errors.New("boom")
	}
	_, err := a.Submit(context.Background(), "/workspace", "/workspace/scripts/sim1.sh", []string{"sim1"})
	assert.Error(t, err)
}

func TestCheckJobsEmptyInputShortCircuits(t *testing.T) {
	a := New(1, 4, 4)
	a.exec = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		t.Fatal("exec should not be called for an empty id list")
		return nil, nil
	}
	states, err := a.CheckJobs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, states)
}

func TestCheckJobsClassifiesAliveAndTimedOut(t *testing.T) {
	a := New(1, 4, 4)
	a.exec = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte(
			"f1 RUN \n" +
				"f2 INACTIVE TIMEOUT\n" +
				"f3 COMPLETE \n",
		), nil
	}
	states, err := a.CheckJobs(context.Background(), []string{"f1", "f2", "f3", "f4"})
	require.NoError(t, err)

	assert.Equal(t, jobtracker.JobState{Alive: true, TimedOut: false}, states["f1"])
	assert.Equal(t, jobtracker.JobState{Alive: false, TimedOut: true}, states["f2"])
	assert.Equal(t, jobtracker.JobState{Alive: false, TimedOut: false}, states["f3"])
	// f4 was never reported on by flux: treated as gone from the queue.
	assert.Equal(t, jobtracker.JobState{Alive: false, TimedOut: false}, states["f4"])
}

func TestCheckJobsReturnsCannotClassifyOnExecFailure(t *testing.T) {
	a := New(1, 4, 4)
	a.exec = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, errors.New("flux unreachable")
	}
	_, err := a.CheckJobs(context.Background(), []string{"f1"})
	assert.ErrorIs(t, err, jobtracker.ErrCannotClassify)
}

func TestCancelJobsReturnsOKOnSuccess(t *testing.T) {
	a := New(1, 4, 4)
	var gotArgs []string
	a.exec = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = args
		return nil, nil
	}
	result, err := a.CancelJobs(context.Background(), []string{"f1", "f2"})
	require.NoError(t, err)
	assert.Equal(t, jobtracker.CancelOK, result)
	assert.Equal(t, []string{"cancel", "f1", "f2"}, gotArgs)
}

func TestCancelJobsReturnsUnknownOnExecFailure(t *testing.T) {
	a := New(1, 4, 4)
	a.exec = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, errors.New("already gone")
	}
	result, err := a.CancelJobs(context.Background(), []string{"f1"})
	require.NoError(t, err)
	assert.Equal(t, jobtracker.CancelUnknown, result)
}

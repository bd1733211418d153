// Package flux implements jobtracker.Adapter over the Flux resource
// manager's CLI, the same way the original framework drove Flux: by
// shelling out (`flux mini run`, `flux jobs`, `flux cancel`) rather
// than linking a client library. No Go binding for Flux exists in the
// dependency corpus this tree draws from, so os/exec is the
// unavoidable transport here — see DESIGN.md.
package flux

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/llnl/mummi-workflow-core/pkg/errors"
	"github.com/llnl/mummi-workflow-core/pkg/jobtracker"
	"github.com/llnl/mummi-workflow-core/pkg/logger/log"
)

// Adapter drives Flux through its CLI. NNodes/NProcs/NCores describe
// the per-bundle resource request; RunCommand is the flux executable
// ("flux" by default, with Submit adding the "mini run" subcommand)
// and overridable for testing.
type Adapter struct {
	NNodes, NProcs, NCores int
	RunCommand             string
	exec                   func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func New(nnodes, nprocs, ncores int) *Adapter {
	return &Adapter{
		NNodes:     nnodes,
		NProcs:     nprocs,
		NCores:     ncores,
		RunCommand: "flux",
		exec:       runCommand,
	}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrapf(err, "flux: %s %v: %s", name, args, stderr.String())
	}
	return out.Bytes(), nil
}

// WriteScript writes the rendered script to <workspace>/scripts/<bundle-key>.sh
// and returns its path, mirroring the original's file-per-job launch
// script convention.
func (a *Adapter) WriteScript(ctx context.Context, workspace string, bundle []string, script string) (string, error) {
	dir := filepath.Join(workspace, "scripts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "flux: mkdir scripts dir")
	}
	name := strings.Join(bundle, "_") + ".sh"
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		return "", errors.Wrap(err, "flux: write launch script")
	}
	return path, nil
}

// Submit runs `flux mini run` against the rendered script's path and
// returns the scheduler-assigned job id, the first line flux prints to
// stdout.
func (a *Adapter) Submit(ctx context.Context, workspace, scriptPath string, bundle []string) (string, error) {
	args := []string{"mini", "run",
		"-N", fmt.Sprintf("%d", a.NNodes),
		"-n", fmt.Sprintf("%d", a.NProcs),
		"-c", fmt.Sprintf("%d", a.NCores),
		"-o", "mpi=spectrum",
		"sh", scriptPath,
	}
	out, err := a.exec(ctx, a.RunCommand, args...)
	if err != nil {
		return "", err
	}
	id := strings.TrimSpace(string(out))
	if i := strings.IndexByte(id, '\n'); i >= 0 {
		id = strings.TrimSpace(id[:i])
	}
	if id == "" {
		return "", errors.NewError().WithCode(errors.InternalError).
			WithMessage("flux: submit returned no job id")
	}
	return id, nil
}

// CheckJobs issues one `flux jobs -a --no-header -o "{id} {state} {result}"`
// query covering every id and classifies alive/timeout state from each
// reported line; an id flux does not report on is treated as not alive.
func (a *Adapter) CheckJobs(ctx context.Context, jobIDs []string) (map[string]jobtracker.JobState, error) {
	if len(jobIDs) == 0 {
		return map[string]jobtracker.JobState{}, nil
	}
	args := append([]string{"jobs", "-a", "--no-header", "-o", "{id} {state} {result}"}, jobIDs...)
	out, err := a.exec(ctx, a.RunCommand, args...)
	if err != nil {
		log.Warnf("flux: jobs query failed: %v", err)
		return nil, jobtracker.ErrCannotClassify
	}

	states := make(map[string]jobtracker.JobState, len(jobIDs))
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		id, state := fields[0], fields[1]
		result := ""
		if len(fields) > 2 {
			result = fields[2]
		}
		alive := state != "INACTIVE" && state != "COMPLETE" && state != "FAILED"
		timedOut := strings.EqualFold(result, "TIMEOUT")
		states[id] = jobtracker.JobState{Alive: alive, TimedOut: timedOut}
	}

	// any id flux did not report on is gone from its queue entirely
	for _, id := range jobIDs {
		if _, ok := states[id]; !ok {
			states[id] = jobtracker.JobState{Alive: false}
		}
	}
	return states, nil
}

// CancelJobs issues `flux cancel` for each id, tolerating jobs that
// are already gone.
func (a *Adapter) CancelJobs(ctx context.Context, jobIDs []string) (jobtracker.CancelResult, error) {
	args := append([]string{"cancel"}, jobIDs...)
	if _, err := a.exec(ctx, a.RunCommand, args...); err != nil {
		log.Warnf("flux: cancel may have targeted already-dead jobs: %v", err)
		return jobtracker.CancelUnknown, nil
	}
	return jobtracker.CancelOK, nil
}

var _ jobtracker.Adapter = (*Adapter)(nil)

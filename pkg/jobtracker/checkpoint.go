package jobtracker

import (
	"github.com/llnl/mummi-workflow-core/pkg/errors"
)

// Checkpoint returns the tracker's current state as a generic map,
// ready for facade.SaveCheckpoint — the Go equivalent of the source's
// dict literal `{'type': ..., 'jobCnt': ..., 'running': ..., 'queued': ...}`.
func (t *Tracker) Checkpoint() map[string]interface{} {
	t.mu.Lock()
	defer t.mu.Unlock()

	running := make(map[string]interface{}, len(t.running))
	for id, j := range t.running {
		running[id] = append([]string(nil), j.Sims...)
	}
	return map[string]interface{}{
		"type":   string(t.jobType),
		"jobCnt": t.jobCnt,
		"running": running,
		"queued": append([]string(nil), t.queued...),
	}
}

// DecodeCheckpointState converts the generic map facade.LoadCheckpoint
// returns back into a CheckpointState, tolerating the numeric/string
// type variance YAML unmarshaling into interface{} produces.
func DecodeCheckpointState(raw map[string]interface{}) (CheckpointState, error) {
	var state CheckpointState

	typ, _ := raw["type"].(string)
	state.Type = typ

	switch v := raw["jobCnt"].(type) {
	case int:
		state.JobCnt = int64(v)
	case int64:
		state.JobCnt = v
	case float64:
		state.JobCnt = int64(v)
	}

	if running, ok := raw["running"].(map[string]interface{}); ok {
		state.Running = make(map[string][]string, len(running))
		for id, sims := range running {
			state.Running[id] = toStringSlice(sims)
		}
	} else if running, ok := raw["running"].(map[interface{}]interface{}); ok {
		// gopkg.in/yaml.v3 into interface{} yields string keys directly,
		// but a round trip through yaml.v2 (config files) can surface
		// map[interface{}]interface{}; tolerate both.
		state.Running = make(map[string][]string, len(running))
		for id, sims := range running {
			key, ok := id.(string)
			if !ok {
				return state, errors.NewError().WithCode(errors.InvalidArgument).
					WithMessage("checkpoint: non-string key in running map")
			}
			state.Running[key] = toStringSlice(sims)
		}
	}

	state.Queued = toStringSlice(raw["queued"])
	return state, nil
}

func toStringSlice(v interface{}) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []interface{}:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Package history implements the append-only CSV audit journal every
// JobTracker writes to: one row per simulation touched by a queue or
// job-lifecycle event, grounded on the source's write_history method.
package history

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
)

const header = "tstamp, job_type, event, id, nrunning, nqueued, comments\n"

// Event names the fixed set of journaled transitions.
type Event string

const (
	EventAppended   Event = "appended_to_queue"
	EventPrepended  Event = "prepended_to_queue"
	EventRejected   Event = "rejected"
	EventStarted    Event = "started"
	EventSuccess    Event = "found_success"
	EventFailed     Event = "found_failed"
	EventRestore    Event = "restore"
	EventRestored   Event = "restored"
)

// Journal is a single append-only CSV file shared by one JobTracker
// instance. Writes are serialized with a mutex since the tracker's
// control loop may be invoked from a cron tick while a caller reads
// Status() concurrently.
type Journal struct {
	mu   sync.Mutex
	path string
}

func Open(path string) *Journal {
	return &Journal{path: path}
}

// Write appends one row per entry in data, stamping every row with
// the same timestamp and the tracker's current running/queued counts.
// A nil or empty data slice is a no-op — the source never writes an
// empty event.
func (j *Journal) Write(jobType string, event Event, data []string, nrunning, nqueued int, comment string) error {
	if len(data) == 0 {
		return nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return errors.Wrap(err, "history: mkdir journal dir")
	}

	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrap(err, "history: open journal")
	}
	defer f.Close()

	if st, err := f.Stat(); err == nil && st.Size() == 0 {
		if _, err := f.WriteString(header); err != nil {
			return errors.Wrap(err, "history: write header")
		}
	}

	ts := time.Now().Format("2006-01-02 15:04:05")
	for _, d := range data {
		row := fmt.Sprintf("%s, %s, %s, %s, %d, %d, %s\n", ts, jobType, event, d, nrunning, nqueued, comment)
		if _, err := f.WriteString(row); err != nil {
			return errors.Wrap(err, "history: write row")
		}
	}
	return nil
}

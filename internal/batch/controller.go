package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmarc580625/medialocate/internal/logging"
	"github.com/jmarc580625/medialocate/internal/metrics"
	"github.com/jmarc580625/medialocate/internal/store"
)

// StatusStoreName is the backing file holding status records inside a
// controller's working directory.
const StatusStoreName = "pmstatus.json"

// Controller drives incremental batch processing: for each candidate file it
// loads or creates a status record, decides whether the bound action must
// run, interprets the action's result code and tallies the outcome.
//
// A Controller processes one candidate at a time, synchronously. Close must
// run on every exit path (defer it right after construction) so that the
// store flushes and the saved counter is set.
type Controller struct {
	workDir  string
	force    bool
	store    *store.Store
	action   Action
	counters counters
}

// NewController opens a controller bound to workDir, creating the directory
// if absent. A nil action selects NoopAction. With force set, files already
// done are reprocessed regardless of staleness.
func NewController(workDir string, action Action, force bool) (*Controller, error) {
	absDir, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("invalid working directory %q: %w", workDir, err)
	}
	if err := os.MkdirAll(absDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create working directory %s: %w", absDir, err)
	}

	statusStore, err := store.New(absDir, StatusStoreName)
	if err != nil {
		return nil, err
	}
	if err := statusStore.Open(); err != nil {
		return nil, err
	}

	if action == nil {
		logging.Info("using default action")
		action = NoopAction{}
	}

	c := &Controller{
		workDir: absDir,
		force:   force,
		store:   statusStore,
		action:  action,
	}
	recovered, err := statusStore.Len()
	if err != nil {
		return nil, err
	}
	c.counters[Recovered] = recovered
	metrics.StoreRecords.WithLabelValues(StatusStoreName).Set(float64(recovered))
	return c, nil
}

// Close records the saved counter and closes the store, flushing it if
// dirty.
func (c *Controller) Close() error {
	if saved, err := c.store.Len(); err == nil {
		c.counters[Saved] = saved
		metrics.StoreRecords.WithLabelValues(StatusStoreName).Set(float64(saved))
	}
	return c.store.Close()
}

// Counters returns a read-only snapshot of the controller's tallies.
func (c *Controller) Counters() map[string]int {
	return c.counters.snapshot()
}

// WorkDir returns the controller's absolute working directory.
func (c *Controller) WorkDir() string {
	return c.workDir
}

// Process evaluates one candidate file. Depending on the file's recorded
// state it runs the action, maps the result code to a new state and writes
// the record through. An error returned by the action propagates unchanged;
// the record keeps its pre-call state.
func (c *Controller) Process(path string) error {
	c.counters[Received]++
	metrics.BatchFilesReceived.Inc()

	key := Hash(path)
	status, err := Load(c.store, key)
	if err != nil {
		return err
	}

	proceed := false
	if status == nil {
		status = NewStatus(c.store, key, StateOngoing, path)
		c.counters[Recorded]++
		proceed = true
	} else {
		switch status.State() {
		case StateDone:
			proceed = c.force
			if !proceed {
				stale, err := c.isStale(path, status)
				if err != nil {
					return err
				}
				proceed = stale
			}
		case StateError:
			c.counters[Repaired]++
			proceed = true
		case StateOngoing:
			// Interrupted work is resumed unconditionally.
			proceed = true
		case StateIgnore:
			proceed = false
		}
	}

	if !proceed {
		return nil
	}

	c.counters[Processed]++
	start := time.Now()
	code, err := c.action.Invoke(path, status.Key())
	metrics.BatchActionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return err
	}

	switch {
	case code > MaxIgnoreResult:
		status.SetState(StateError)
		c.counters[Failed]++
		metrics.BatchActionsTotal.WithLabelValues("failed").Inc()
		logging.Debug("action failed (%d): %s", code, path)
	case code == ResultSuccess:
		status.SetState(StateDone)
		c.counters[Succeeded]++
		metrics.BatchActionsTotal.WithLabelValues("succeeded").Inc()
	default:
		status.SetState(StateIgnore)
		c.counters[Ignored]++
		metrics.BatchActionsTotal.WithLabelValues("ignored").Inc()
	}

	return status.Update()
}

// isStale reports whether the file on disk is newer than its recorded
// status time.
func (c *Controller) isStale(path string, status *Status) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	mtime := float64(info.ModTime().UnixNano()) / float64(time.Second)
	return mtime > status.Time(), nil
}

// Clean removes status records whose file no longer exists on disk. No
// action is invoked; each removal increments the deleted counter.
func (c *Controller) Clean() error {
	statuses, err := All(c.store)
	if err != nil {
		return err
	}
	for status := range statuses {
		if fileExists(status.Filename()) {
			continue
		}
		if err := status.Delete(); err != nil {
			return err
		}
		c.counters[Deleted]++
		metrics.BatchOrphansDeleted.Inc()
		logging.Debug("orphan status removed: %s (%s)", status.Key(), status.Filename())
	}
	return nil
}

// Drop clears the entire store without per-record bookkeeping.
func (c *Controller) Drop() error {
	return c.store.Clear()
}

func fileExists(posixPath string) bool {
	info, err := os.Stat(filepath.FromSlash(posixPath))
	return err == nil && info.Mode().IsRegular()
}

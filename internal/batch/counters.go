package batch

// Counter identifies one of the controller's bookkeeping counters.
type Counter int

const (
	// Recovered counts records present in the store at open time.
	Recovered Counter = iota
	// Received counts candidates presented to Process.
	Received
	// Recorded counts brand-new records created.
	Recorded
	// Repaired counts records found in error state and retried.
	Repaired
	// Processed counts actual action invocations.
	Processed
	// Succeeded counts actions that returned success.
	Succeeded
	// Ignored counts actions that asked to be skipped.
	Ignored
	// Failed counts actions that reported hard failure.
	Failed
	// Deleted counts records removed by orphan cleanup.
	Deleted
	// Saved counts records present in the store at close time.
	Saved

	numCounters
)

var counterNames = [numCounters]string{
	Recovered: "recovered",
	Received:  "received",
	Recorded:  "recorded",
	Repaired:  "repaired",
	Processed: "processed",
	Succeeded: "succeeded",
	Ignored:   "ignored",
	Failed:    "failed",
	Deleted:   "deleted",
	Saved:     "saved",
}

// String returns the counter's reporting name.
func (c Counter) String() string {
	if c < 0 || c >= numCounters {
		return "unknown"
	}
	return counterNames[c]
}

// counters is a fixed-size tally indexed by Counter kind.
type counters [numCounters]int

// snapshot renders the tally as a flat name->value map for reporting.
func (c *counters) snapshot() map[string]int {
	out := make(map[string]int, numCounters)
	for i := Counter(0); i < numCounters; i++ {
		out[counterNames[i]] = c[i]
	}
	return out
}

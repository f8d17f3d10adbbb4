// Package batch implements the incremental batch-processing engine shared by
// the medialocate command-line tools.
//
// A Controller is bound to a working directory holding a persistent status
// store. For each candidate file it loads or creates a Status record keyed by
// the hash of the file's normalized path, decides from the record's state and
// the file's modification time whether the configured Action must run,
// interprets the action's integer result code (0 success, 1..9 ignore, >9
// failure) and tallies the outcome in its counters.
//
// Files already done are skipped until they change on disk; files that
// previously errored are retried; files whose processing was interrupted are
// resumed; ignored files are never retried. A force flag bypasses the
// staleness check for done files.
package batch

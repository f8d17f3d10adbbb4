package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmarc580625/medialocate/internal/batch"
	"github.com/jmarc580625/medialocate/internal/finder"
	"github.com/jmarc580625/medialocate/internal/logging"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// ProcessFlags holds the process-files command options.
type ProcessFlags struct {
	Purge bool
	Clear bool
	Force bool
}

func newRootCommand() *cobra.Command {
	flags := &ProcessFlags{}

	cmd := &cobra.Command{
		Use:   "process-files memory_directory [command [args...]]",
		Short: "Batch-process files with persistent status tracking",
		Long: `Walk the tree from the current directory and run a command on each
file, recording per-file processing status in memory_directory so that
future runs skip files already handled.

The command receives two extra arguments: the file path and its status
key. Its exit code decides the recorded state: 0 done, 1-9 ignore,
anything above 9 error. Without a command, files are echoed.

Examples:
  process-files .mymemory                # echo every new file
  process-files .mymemory gzip -k        # compress new files once
  process-files --purge .mymemory        # drop status of deleted files
  process-files --clear .mymemory        # forget all status`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return processFiles(args[0], args[1:], flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.Purge, "purge", "p", false, "remove status records whose file no longer exists, process nothing")
	cmd.Flags().BoolVarP(&flags.Clear, "clear", "c", false, "clear all status records, process nothing")
	cmd.Flags().BoolVarP(&flags.Force, "force", "f", false, "process files even when their status is up to date")

	return cmd
}

func processFiles(memoryDir string, command []string, flags *ProcessFlags) error {
	var action batch.Action
	if len(command) > 0 {
		action = commandAction(command)
	}

	ctrl, err := batch.NewController(memoryDir, action, flags.Force)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	switch {
	case flags.Clear:
		if err := ctrl.Drop(); err != nil {
			return err
		}
		logging.Info("all status cleared in %s", memoryDir)

	case flags.Purge:
		if err := ctrl.Clean(); err != nil {
			return err
		}
		logging.Info("controller: %s", formatCounters(ctrl.Counters()))

	default:
		fnd, err := finder.New(".", finder.Config{
			Prune:    []string{filepath.Base(memoryDir)},
			MaxDepth: finder.Unbounded,
		})
		if err != nil {
			return err
		}
		for path := range fnd.Find() {
			if err := ctrl.Process(path); err != nil {
				logging.Error("processing %s: %v", path, err)
			}
		}
		logging.Info("finder: %s", formatCounters(fnd.GetCounters().Map()))
		logging.Info("controller: %s", formatCounters(ctrl.Counters()))
	}
	return nil
}

// commandAction runs an external command on each file, passing the file
// path and status key as trailing arguments. The command's exit code is
// the action result.
func commandAction(command []string) batch.Action {
	return batch.ActionFunc(func(path, key string) (int, error) {
		args := append(append([]string{}, command[1:]...), path, key)
		cmd := exec.Command(command[0], args...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		err := cmd.Run()
		if err == nil {
			return batch.ResultSuccess, nil
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode(), nil
		}
		return 0, fmt.Errorf("running %s: %w", command[0], err)
	})
}

func formatCounters(counters map[string]int) string {
	keys := make([]string, 0, len(counters))
	for k := range counters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %d", k, counters[k])
	}
	return strings.Join(parts, ", ")
}

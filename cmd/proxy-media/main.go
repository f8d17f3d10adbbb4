package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jmarc580625/medialocate/internal/logging"
	"github.com/jmarc580625/medialocate/internal/proxying"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// ProxyFlags holds the proxy-media command options.
type ProxyFlags struct {
	Threshold float64
	Force     bool
	Target    string
}

func newRootCommand() *cobra.Command {
	flags := &ProxyFlags{}

	cmd := &cobra.Command{
		Use:   "proxy-media directories...",
		Short: "Link media trees by the proximity of their location groups",
		Long: `Search the location groups of other processed directory trees for
places near the target tree's own groups, and record the matches in the
target's proxy store. Directories accept glob patterns.

A search against a tree is skipped when its group data has not changed
since the last run, unless --force is given.

Examples:
  proxy-media ~/photos/*             # proxy the current directory against each album
  proxy-media -t ~/photos/paris ~/photos/*
  proxy-media -d 5 ~/archive/2024    # wider 5 km proximity`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return proxyMedia(args, flags)
		},
	}

	cmd.Flags().Float64VarP(&flags.Threshold, "distance", "d", 1, "distance threshold in kilometers below which groups are considered nearby")
	cmd.Flags().BoolVarP(&flags.Force, "force", "f", false, "search even when group data is unchanged since the last run")
	cmd.Flags().StringVarP(&flags.Target, "target", "t", ".", "tree whose proxy store receives the results")

	return cmd
}

func proxyMedia(patterns []string, flags *ProxyFlags) error {
	dirs := expandDirs(patterns)
	if len(dirs) == 0 {
		logging.Info("no directory found")
		return nil
	}

	ctrl := proxying.NewController(flags.Target)
	if err := ctrl.Open(); err != nil {
		return err
	}

	for _, dir := range dirs {
		if _, err := ctrl.FindProxies(dir, flags.Threshold, flags.Force); err != nil {
			logging.Error("proxying %s: %v", dir, err)
		}
	}

	written, err := ctrl.Commit()
	if err != nil {
		return err
	}
	if written {
		logging.Info("proxy store updated in %s", flags.Target)
	}
	return nil
}

// expandDirs resolves glob patterns to a sorted, deduplicated list of
// existing directories.
func expandDirs(patterns []string) []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil || len(matches) == 0 {
			logging.Warn("no match for %s", pattern)
			continue
		}
		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil || !info.IsDir() {
				continue
			}
			if !seen[match] {
				seen[match] = true
				dirs = append(dirs, match)
			}
		}
	}
	sort.Strings(dirs)
	return dirs
}

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jmarc580625/medialocate/internal/grouping"
	"github.com/jmarc580625/medialocate/internal/locator"
	"github.com/jmarc580625/medialocate/internal/logging"
	"github.com/jmarc580625/medialocate/internal/store"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GroupFlags holds the group-media command options.
type GroupFlags struct {
	Threshold float64
	Force     bool
}

func newRootCommand() *cobra.Command {
	flags := &GroupFlags{}

	cmd := &cobra.Command{
		Use:   "group-media [directories...]",
		Short: "Group located media files by GPS proximity",
		Long: `Read the media location data produced by locate-media and cluster the
media into groups of nearby capture places. Two media belong to the
same group when their locations are closer than the distance
threshold; each group is centered on the barycenter of its members.

Directories already grouped since their last location run are skipped
unless --force is given.

Examples:
  group-media                    # group the current directory
  group-media -d 0.5 ~/photos    # tighter 500 m clusters`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dirs := args
			if len(dirs) == 0 {
				dirs = []string{"."}
			}
			for _, dir := range dirs {
				groupMedia(dir, flags)
			}
			return nil
		},
	}

	cmd.Flags().Float64VarP(&flags.Threshold, "distance", "d", 1, "distance threshold in kilometers below which media are grouped")
	cmd.Flags().BoolVarP(&flags.Force, "force", "f", false, "regroup even when location data is unchanged")

	return cmd
}

// groupMedia clusters one directory's location data. Directories without
// usable data are reported and skipped rather than failing the run.
func groupMedia(dir string, flags *GroupFlags) {
	workDir := filepath.Join(dir, locator.WorkDirName)
	inputPath := filepath.Join(workDir, locator.StoreName)
	outputPath := filepath.Join(workDir, grouping.StoreName)

	if info, err := os.Stat(workDir); err != nil || !info.IsDir() {
		logging.Info("%s: no location data available, ignored", dir)
		return
	}
	if _, err := os.Stat(inputPath); err != nil {
		logging.Info("%s: no location data available, ignored", dir)
		return
	}
	if !flags.Force && grouping.Fresh(inputPath, outputPath) {
		logging.Info("%s: up-to-date, ignored", dir)
		return
	}

	locations, err := readLocations(workDir)
	if err != nil {
		logging.Error("%s: %v", dir, err)
		return
	}

	groups := grouping.New(flags.Threshold)
	groups.AddLocations(locations)
	if err := groups.Save(outputPath); err != nil {
		logging.Error("%s: %v", dir, err)
		return
	}
	logging.Info("%s: grouped %d media in %d groups", dir, len(locations), len(groups.Groups))
}

func readLocations(workDir string) (map[string]store.Attributes, error) {
	s, err := store.New(workDir, locator.StoreName)
	if err != nil {
		return nil, err
	}
	if err := s.Open(); err != nil {
		return nil, err
	}
	defer s.Close()
	return s.Items()
}

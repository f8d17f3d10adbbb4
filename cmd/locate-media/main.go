package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmarc580625/medialocate/internal/batch"
	"github.com/jmarc580625/medialocate/internal/finder"
	"github.com/jmarc580625/medialocate/internal/locator"
	"github.com/jmarc580625/medialocate/internal/logging"
	"github.com/jmarc580625/medialocate/internal/mediatypes"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// LocateFlags holds the locate-media command options.
type LocateFlags struct {
	Force       bool
	CurrentOnly bool
	Regenerate  bool
	Launch      bool
	Output      string
}

func newRootCommand() *cobra.Command {
	flags := &LocateFlags{}

	cmd := &cobra.Command{
		Use:   "locate-media [directories...]",
		Short: "Extract GPS locations from media files",
		Long: `Walk the target directories, extract GPS coordinates from every media
file found, generate thumbnails, and produce an HTML page showing the
media and the places where they were captured.

Processing is incremental: files already located are skipped unless
they changed or --force is given.

Examples:
  locate-media                     # process the current directory
  locate-media ~/photos ~/videos   # process several trees
  locate-media --force             # reprocess everything
  locate-media --regenerate        # rebuild the page, process nothing`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dirs := args
			if len(dirs) == 0 {
				dirs = []string{"."}
			}
			for _, dir := range dirs {
				if err := locateMedia(dir, flags); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&flags.Force, "force", "f", false, "reprocess files even when already located")
	cmd.Flags().BoolVarP(&flags.CurrentOnly, "current-dir-only", "d", false, "restrict processing to the directory itself, no subdirectories")
	cmd.Flags().BoolVarP(&flags.Regenerate, "regenerate", "r", false, "regenerate the page unconditionally, process no files")
	cmd.Flags().BoolVarP(&flags.Launch, "launch", "l", false, "open the generated page in the default browser")
	cmd.Flags().StringVarP(&flags.Output, "output", "o", locator.PageName, "viewer page output file, relative to each directory")

	return cmd
}

// locateMedia processes one directory tree. The process working
// directory moves into the tree so that status keys, stored filenames
// and page URIs all stay relative to the tree root.
func locateMedia(dir string, flags *LocateFlags) error {
	prev, err := os.Getwd()
	if err != nil {
		return err
	}
	if err := os.Chdir(dir); err != nil {
		return fmt.Errorf("cannot enter directory %q: %w", dir, err)
	}
	defer func() {
		if err := os.Chdir(prev); err != nil {
			logging.Error("cannot restore working directory: %v", err)
		}
	}()
	logging.Info("working in directory %s", dir)

	workDir := locator.WorkDirName
	outFile := flags.Output

	if flags.Regenerate {
		return regeneratePage(workDir, outFile, flags.Launch)
	}

	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("creating working directory: %w", err)
	}

	// Unless forced, only files newer than the last location run are
	// candidates.
	var minModTime time.Time
	if !flags.Force {
		if info, err := os.Stat(filepath.Join(workDir, locator.StoreName)); err == nil {
			minModTime = info.ModTime()
		}
	}

	maxDepth := finder.Unbounded
	if flags.CurrentOnly {
		maxDepth = 0
	}
	fnd, err := finder.New(".", finder.Config{
		Extensions: mediatypes.Extensions(),
		Prune:      []string{locator.WorkDirName},
		MinModTime: minModTime,
		MaxDepth:   maxDepth,
	})
	if err != nil {
		return err
	}

	action, err := locator.New(workDir, outFile)
	if err != nil {
		return err
	}
	defer action.Close()

	ctrl, err := batch.NewController(workDir, action, flags.Force)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	for path := range fnd.Find() {
		if err := ctrl.Process(path); err != nil {
			logging.Error("processing %s: %v", path, err)
		}
	}

	page, err := action.CreatePage(false)
	if err != nil {
		return err
	}
	if page != "" {
		logging.Info("viewer page created: %s", page)
		if flags.Launch {
			launchBrowser(page)
		}
	} else {
		logging.Info("viewer page not created or updated")
	}

	logging.Info("finder: %s", formatCounters(fnd.GetCounters().Map()))
	logging.Info("controller: %s", formatCounters(ctrl.Counters()))
	return nil
}

func regeneratePage(workDir, outFile string, launch bool) error {
	action, err := locator.New(workDir, outFile)
	if err != nil {
		return err
	}
	defer action.Close()

	page, err := action.CreatePage(true)
	if err != nil {
		return err
	}
	if page == "" {
		return fmt.Errorf("no location data in %s, nothing to regenerate", workDir)
	}
	logging.Info("viewer page created: %s", page)
	if launch {
		launchBrowser(page)
	}
	return nil
}

func launchBrowser(page string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", page)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", page)
	default:
		cmd = exec.Command("xdg-open", page)
	}
	if err := cmd.Start(); err != nil {
		logging.Error("failed to launch browser: %v", err)
	}
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

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmarc580625/medialocate/internal/web"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// ServerFlags holds the medialocate-server command options.
type ServerFlags struct {
	Port int
	Root string
}

func newRootCommand() *cobra.Command {
	flags := &ServerFlags{}

	cmd := &cobra.Command{
		Use:   "medialocate-server",
		Short: "Serve a processed media tree over HTTP",
		Long: `Serve the viewer page, location and group data, media files and
thumbnails of a directory tree processed by locate-media.

The server is read-only. Prometheus metrics are exposed on /metrics.

Examples:
  medialocate-server                     # serve the current directory on :8080
  medialocate-server -p 9000 -r ~/photos`,
		RunE: func(cmd *cobra.Command, args []string) error {
			server, err := web.NewServer(flags.Root)
			if err != nil {
				return err
			}
			return server.ListenAndServe(flags.Port)
		},
	}

	cmd.Flags().IntVarP(&flags.Port, "port", "p", web.DefaultPort, "port to listen on")
	cmd.Flags().StringVarP(&flags.Root, "root", "r", ".", "processed media directory to serve")

	return cmd
}

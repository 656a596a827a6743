// Uigen is the workspace header bar of the uigen design tool.
//
// Running uigen without a subcommand opens the header bar in the terminal,
// bound to the configured user and the project given by --project. The
// serve subcommand starts a local directory and auth server the header can
// talk to.
//
// Usage:
//
//	# Start the dev server, then open the header bar
//	uigen serve
//	uigen --project 3f0c...
//
//	# Configure via environment
//	UIGEN_DIRECTORY_URL=http://localhost:3000 UIGEN_SESSION_USER_ID=u-1 uigen
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

var (
	// configPath overrides ~/.config/uigen/config.yaml
	configPath string
	// projectID is the active project; empty keeps the configured one
	projectID string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "uigen",
		Short: "Workspace header bar for uigen projects",
		Long: `uigen opens the workspace header bar: switch projects, create a new
design, clear or download the generated files, and sign in or out.

Press ctrl+k inside the header bar for the command palette.

Examples:
  # Open the header bar for a project
  uigen --project 3f0c6f1e-8a4b-4d7e-9d0a-1b2c3d4e5f60

  # Use a config file from /etc
  uigen --config /etc/uigen/config.yaml`,
		Version:      version,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE:         runTUI,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/uigen/config.yaml)")
	root.PersistentFlags().StringVar(&projectID, "project", "", "active project id")

	root.AddCommand(newServeCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newProjectsCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "uigen by Fyrsmith Labs\n")
			fmt.Fprintf(out, "Version:    %s\n", version)
			fmt.Fprintf(out, "Commit:     %s\n", gitCommit)
			fmt.Fprintf(out, "Build Date: %s\n", buildDate)
		},
	}
}

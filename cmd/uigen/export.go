package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/uigen/internal/archive"
)

func newExportCmd() *cobra.Command {
	var outDir, workspace string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the workspace files as " + archive.FileName,
		Long: `Load the workspace directory into a file store and write it as a zip
archive named ` + archive.FileName + `. Entry names are the file paths relative
to the workspace. An empty workspace writes nothing.

Examples:
  # Export the configured workspace to the configured export dir
  uigen export

  # Export ./site into /tmp
  uigen export --workspace ./site --out /tmp`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			if workspace == "" && a.cfg.Workspace.Dir == "" {
				return fmt.Errorf("no workspace directory: set workspace.dir or pass --workspace")
			}
			if outDir != "" {
				a.cfg.Export.Dir = outDir
			}

			ctx := cmd.Context()
			if err := a.loadWorkspace(ctx, workspace); err != nil {
				return err
			}

			res, err := a.exporter().Export(ctx, a.store.Snapshot())
			if err != nil {
				return err
			}
			if !res.Saved {
				cmd.Println("Nothing to export")
				return nil
			}
			cmd.Printf("Saved %s (%d files, %d bytes)\n", res.Location, res.Entries, res.Bytes)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (overrides export.dir)")
	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "workspace directory (overrides workspace.dir)")
	return cmd
}

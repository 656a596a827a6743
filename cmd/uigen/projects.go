package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/uigen/internal/project"
	"github.com/fyrsmithlabs/uigen/internal/session"
	"github.com/fyrsmithlabs/uigen/internal/switcher"
	"github.com/fyrsmithlabs/uigen/internal/tui"
)

func newProjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List and create projects",
	}
	cmd.AddCommand(newProjectsListCmd())
	cmd.AddCommand(newProjectsNewCmd())
	return cmd
}

func newProjectsListCmd() *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the signed-in user's projects",
		Long: `List projects from the directory, most recently updated first. The
active project is marked with *.

Examples:
  # List every project
  uigen projects list

  # Only names containing "landing", ignoring case
  uigen projects list --filter landing`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			id := a.identity()
			if id == nil {
				return session.ErrUnauthenticated
			}

			sw := switcher.New(switcher.Config{
				Directory: a.directory(),
				UserID:    id.ID,
				ProjectID: a.cfg.Session.ProjectID,
				Logger:    a.logger,
				Metrics:   a.metrics,
			})
			if err := sw.Refresh(cmd.Context()); err != nil {
				return err
			}
			sw.SetQuery(filter)

			projects := sw.Filtered()
			if len(projects) == 0 {
				cmd.Println(tui.PickerEmpty)
				return nil
			}

			now := time.Now()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "\tID\tNAME\tUPDATED")
			for _, p := range projects {
				mark := ""
				if p.ID == sw.ActiveID() {
					mark = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", mark, p.ID, p.Name, tui.FormatAge(p.UpdatedAt, now))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "", "case-insensitive name filter")
	return cmd
}

func newProjectsNewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Create a new design project",
		Long: `Create a project named "Design #<n>" with an empty message history and
print its location.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			nav := project.NavigatorFunc(func(location string) {
				cmd.Println(location)
			})
			ctrl, err := a.controller(a.identity(), a.cfg.Session.ProjectID, nav, nil)
			if err != nil {
				return err
			}

			p, err := ctrl.NewDesign(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("Created %s (%s)\n", p.Name, p.ID)
			return nil
		},
	}
}

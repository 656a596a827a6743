package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/uigen/internal/session"
	"github.com/fyrsmithlabs/uigen/internal/tui"
)

func runTUI(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	if err := a.loadWorkspace(ctx, ""); err != nil {
		return err
	}

	model, err := tui.New(tui.Options{
		Identity:  a.identity(),
		ProjectID: a.cfg.Session.ProjectID,
		Build: func(b tui.Binding) (*session.Controller, error) {
			return a.controller(b.Identity, b.ProjectID, b.Navigator, b.Dispatcher)
		},
		Auth:    a.auth,
		Logger:  a.logger,
		Context: ctx,
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("header bar: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	uhttp "github.com/fyrsmithlabs/uigen/internal/http"
	"github.com/fyrsmithlabs/uigen/internal/project"
)

type serveOptions struct {
	host         string
	port         int
	projectLimit int
	seedName     string
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the local directory and auth server",
		Long: `Start an HTTP server that implements the project directory and session
auth API over in-memory storage.

When session.user_id and auth.token are configured, that user is registered
with the configured token so the header bar can connect without signing in.
A configured session.project_id is created for the user as well.

Examples:
  # Serve on the configured address (default localhost:3000)
  uigen serve

  # Serve on another port with a project quota
  uigen serve --port 8080 --project-limit 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.host, "host", "", "listen host (overrides server.host)")
	cmd.Flags().IntVar(&opts.port, "port", 0, "listen port (overrides server.port)")
	cmd.Flags().IntVar(&opts.projectLimit, "project-limit", 0, "maximum projects per user, 0 for unlimited")
	cmd.Flags().StringVar(&opts.seedName, "seed-name", "My Design", "name of the seeded session project")
	return cmd
}

func runServe(ctx context.Context, opts serveOptions) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.close()

	cfg := a.cfg.Server
	if opts.host != "" {
		cfg.Host = opts.host
	}
	if opts.port != 0 {
		cfg.Port = opts.port
	}

	srv, err := uhttp.NewServer(a.logger, a.metrics, &uhttp.Config{
		Host:         cfg.Host,
		Port:         cfg.Port,
		RateLimit:    cfg.RateLimit,
		ProjectLimit: opts.projectLimit,
		Gatherer:     prometheus.DefaultGatherer,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	seed(ctx, a, srv, opts.seedName)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.logger.Info(ctx, "starting uigen server",
		zap.String("addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
		zap.Float64("rate_limit", cfg.RateLimit),
		zap.Duration("shutdown_timeout", cfg.ShutdownTimeout))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	a.logger.Info(context.Background(), "server shutdown complete")
	return nil
}

// seed registers the configured session so a preconfigured header bar can
// talk to a fresh server.
func seed(ctx context.Context, a *app, srv *uhttp.Server, name string) {
	s := a.cfg.Session
	token := a.cfg.Auth.Token.Value()
	if s.UserID == "" || token == "" {
		return
	}
	srv.Seed(uhttp.User{ID: s.UserID, Email: s.Email}, token)
	if s.ProjectID != "" {
		now := time.Now().UTC()
		srv.Directory(s.UserID).Put(project.Project{ID: s.ProjectID, Name: name, CreatedAt: now, UpdatedAt: now})
	}
	a.logger.Info(ctx, "seeded session user", zap.String("user.id", s.UserID), zap.String("project.id", s.ProjectID))
}

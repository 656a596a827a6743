package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/uigen/internal/archive"
	"github.com/fyrsmithlabs/uigen/internal/auth"
	"github.com/fyrsmithlabs/uigen/internal/command"
	"github.com/fyrsmithlabs/uigen/internal/config"
	"github.com/fyrsmithlabs/uigen/internal/directory"
	"github.com/fyrsmithlabs/uigen/internal/filestore"
	uhttp "github.com/fyrsmithlabs/uigen/internal/http"
	"github.com/fyrsmithlabs/uigen/internal/logging"
	"github.com/fyrsmithlabs/uigen/internal/metrics"
	"github.com/fyrsmithlabs/uigen/internal/project"
	"github.com/fyrsmithlabs/uigen/internal/session"
)

// app holds the dependencies shared by every command.
type app struct {
	cfg     *config.Config
	logger  *logging.Logger
	metrics *metrics.Metrics
	auth    *auth.Client
	store   *filestore.MemoryStore
}

// newApp loads configuration and builds the logger, the auth client and an
// empty file store. stderr adds a stderr log sink for headless commands.
func newApp(stderr bool) (*app, error) {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if projectID != "" {
		cfg.Session.ProjectID = projectID
	}

	logCfg, err := logging.FromSettings(cfg.Logging)
	if err != nil {
		return nil, err
	}
	logCfg.Output.Stderr = stderr
	logger, err := logging.NewLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.Default(),
		store:   filestore.NewMemoryStore(),
	}
	a.auth = auth.New(a.clientConfig(cfg.AuthURL(), cfg.Auth.Token.Value()), logger)
	logger.Debug(context.Background(), "auth client configured",
		zap.String("url", cfg.AuthURL()), logging.Secret("token", cfg.Auth.Token))

	return a, nil
}

// loadWorkspace seeds the file store from dir, or from the configured
// workspace when dir is empty. Nothing is loaded when neither is set.
func (a *app) loadWorkspace(ctx context.Context, dir string) error {
	if dir == "" {
		dir = a.cfg.Workspace.Dir
	}
	if dir == "" {
		return nil
	}
	n, err := filestore.LoadDir(a.store, dir)
	if err != nil {
		return fmt.Errorf("failed to load workspace %s: %w", dir, err)
	}
	a.logger.Info(ctx, "workspace loaded", zap.String("dir", dir), zap.Int("files", n))
	return nil
}

func (a *app) close() {
	_ = a.logger.Sync()
	_ = a.logger.Close()
}

func (a *app) clientConfig(baseURL, token string) uhttp.ClientConfig {
	return uhttp.ClientConfig{
		BaseURL:   baseURL,
		Token:     token,
		Timeout:   a.cfg.Directory.Timeout,
		Retries:   a.cfg.Directory.Retries,
		UserAgent: "uigen/" + version,
	}
}

// directory returns a directory client authorized with the current session
// token.
func (a *app) directory() *directory.Client {
	return directory.New(a.clientConfig(a.cfg.Directory.URL, a.auth.Token()), a.logger)
}

// identity is the configured user, nil when none is configured.
func (a *app) identity() *auth.Identity {
	if a.cfg.Session.UserID == "" {
		return nil
	}
	return &auth.Identity{ID: a.cfg.Session.UserID, Email: a.cfg.Session.Email}
}

// controller builds a session controller. The directory client is created
// per controller so a fresh sign-in token is picked up.
func (a *app) controller(identity *auth.Identity, projectID string, nav project.Navigator, disp *command.Dispatcher) (*session.Controller, error) {
	return session.New(session.Deps{
		Identity:   identity,
		ProjectID:  projectID,
		Directory:  a.directory(),
		Auth:       a.auth,
		Store:      a.store,
		Exporter:   a.exporter(),
		Navigator:  nav,
		Dispatcher: disp,
		Logger:     a.logger,
		Metrics:    a.metrics,
	})
}

func (a *app) exporter() *archive.Exporter {
	return archive.NewExporter(archive.NewDirSink(a.cfg.Export.Dir),
		archive.WithLogger(a.logger),
		archive.WithMetrics(a.metrics))
}

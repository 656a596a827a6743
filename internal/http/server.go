// Package http provides the uigen HTTP API: the echo dev server that backs
// the project directory and session auth, the wire types, and the resty
// client factory used by the directory and auth clients.
package http

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/uigen/internal/logging"
	"github.com/fyrsmithlabs/uigen/internal/metrics"
	"github.com/fyrsmithlabs/uigen/internal/project"
)

// Server serves the directory and auth API over in-memory storage.
type Server struct {
	echo    *echo.Echo
	logger  *logging.Logger
	metrics *metrics.Metrics
	config  *Config

	mu       sync.RWMutex
	accounts map[string]*account // by lowercased email
	sessions map[string]string   // token -> user id
	dirs     map[string]*project.MemoryDirectory
}

type account struct {
	user User
	hash []byte
}

// Config configures the dev server listener and its per-user limits.
type Config struct {
	Host string
	Port int
	// RateLimit is requests per second per client IP. Zero disables it.
	RateLimit float64
	// ProjectLimit caps projects per user. Zero means unlimited.
	ProjectLimit int
	BcryptCost   int
	// Gatherer backs /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

// NewServer wires routes and middleware. logger is required.
func NewServer(logger *logging.Logger, m *metrics.Metrics, cfg *Config) (*Server, error) {
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if cfg == nil {
		cfg = &Config{Host: "localhost", Port: 3000}
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler
	e.StdLogger = zap.NewStdLog(logger.Named("echo").Underlying())

	s := &Server{
		echo:     e,
		logger:   logger,
		metrics:  m,
		config:   cfg,
		accounts: make(map[string]*account),
		sessions: make(map[string]string),
		dirs:     make(map[string]*project.MemoryDirectory),
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(s.bindLogger)
	e.Use(s.requestLogger)
	e.Use(metricsMiddleware(m))
	if cfg.RateLimit > 0 {
		store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(cfg.RateLimit),
			Burst:     burst(cfg.RateLimit),
			ExpiresIn: 3 * time.Minute,
		})
		e.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Skipper: func(c echo.Context) bool { return c.Path() == RouteHealth },
			Store:   store,
			DenyHandler: func(c echo.Context, _ string, _ error) error {
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			},
		}))
	}

	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET(RouteHealth, s.handleHealth)
	s.echo.GET(RouteMetrics, echo.WrapHandler(promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{})))

	s.echo.POST(RouteSignIn, s.handleSignIn)
	s.echo.POST(RouteSignUp, s.handleSignUp)

	s.echo.POST(RouteSignOut, s.handleSignOut, s.requireSession)
	s.echo.GET(RouteProjects, s.handleListProjects, s.requireSession)
	s.echo.POST(RouteProjects, s.handleCreateProject, s.requireSession)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Seed registers a user with a fixed session token, so a preconfigured
// client can talk to a fresh server.
func (s *Server) Seed(user User, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[strings.ToLower(user.Email)] = &account{user: user}
	s.sessions[token] = user.ID
	if _, ok := s.dirs[user.ID]; !ok {
		s.dirs[user.ID] = s.newDirectory()
	}
}

// Directory returns the project directory of a user, creating it if needed.
func (s *Server) Directory(userID string) *project.MemoryDirectory {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.dirs[userID]
	if !ok {
		d = s.newDirectory()
		s.dirs[userID] = d
	}
	return d
}

func (s *Server) newDirectory() *project.MemoryDirectory {
	return project.NewMemoryDirectory(project.WithLimit(s.config.ProjectLimit))
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleSignUp(c echo.Context) error {
	creds, err := bindCredentials(c)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), s.config.BcryptCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "password not accepted")
	}

	key := strings.ToLower(creds.Email)
	s.mu.Lock()
	if _, exists := s.accounts[key]; exists {
		s.mu.Unlock()
		return echo.NewHTTPError(http.StatusConflict, "email already registered")
	}
	acct := &account{user: User{ID: uuid.New().String(), Email: creds.Email}, hash: hash}
	s.accounts[key] = acct
	token := s.issueLocked(acct.user.ID)
	s.mu.Unlock()

	ctx := logging.WithUserID(c.Request().Context(), acct.user.ID)
	logging.FromContext(ctx).Info(ctx, "account created")
	return c.JSON(http.StatusCreated, SessionResponse{User: acct.user, Token: token})
}

func (s *Server) handleSignIn(c echo.Context) error {
	creds, err := bindCredentials(c)
	if err != nil {
		return err
	}

	s.mu.RLock()
	acct, ok := s.accounts[strings.ToLower(creds.Email)]
	s.mu.RUnlock()
	if !ok || acct.hash == nil || bcrypt.CompareHashAndPassword(acct.hash, []byte(creds.Password)) != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	}

	s.mu.Lock()
	token := s.issueLocked(acct.user.ID)
	s.mu.Unlock()

	ctx := logging.WithUserID(c.Request().Context(), acct.user.ID)
	logging.FromContext(ctx).Info(ctx, "signed in")
	return c.JSON(http.StatusOK, SessionResponse{User: acct.user, Token: token})
}

func (s *Server) handleSignOut(c echo.Context) error {
	s.mu.Lock()
	delete(s.sessions, c.Get(ctxToken).(string))
	s.mu.Unlock()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleListProjects(c echo.Context) error {
	projects, err := s.Directory(userID(c)).List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(http.StatusOK, ProjectsResponse{Projects: projects})
}

func (s *Server) handleCreateProject(c echo.Context) error {
	var spec project.CreateSpec
	if err := c.Bind(&spec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	p, err := s.Directory(userID(c)).Create(ctx, spec)
	if errors.Is(err, project.ErrCreateRejected) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	if err != nil {
		return err
	}

	ctx = logging.WithProjectID(ctx, p.ID)
	logging.FromContext(ctx).Info(ctx, "project created", zap.String("name", p.Name))
	return c.JSON(http.StatusCreated, ProjectResponse{Project: *p})
}

const ctxToken = "uigen.token"

func (s *Server) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
		if !ok || token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
		}
		s.mu.RLock()
		id, ok := s.sessions[token]
		s.mu.RUnlock()
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
		}
		c.Set(ctxToken, token)
		c.SetRequest(c.Request().WithContext(logging.WithUserID(c.Request().Context(), id)))
		return next(c)
	}
}

func (s *Server) issueLocked(id string) string {
	token := uuid.New().String()
	s.sessions[token] = id
	return token
}

// bindLogger puts the request id and the server logger on the request
// context, so handlers and the directory log with correlation fields.
func (s *Server) bindLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := logging.WithRequestID(c.Request().Context(), c.Response().Header().Get(echo.HeaderXRequestID))
		c.SetRequest(c.Request().WithContext(logging.WithLogger(ctx, s.logger)))
		return next(c)
	}
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		ctx := c.Request().Context()
		logging.FromContext(ctx).Info(ctx, "http request",
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Int("status", c.Response().Status),
			zap.Duration("duration", time.Since(start)),
		)
		return nil
	}
}

func userID(c echo.Context) string {
	return logging.UserIDFromContext(c.Request().Context())
}

// burst lets a client spend one second of its rate at once, and at least
// one request.
func burst(perSecond float64) int {
	return max(1, int(math.Ceil(perSecond)))
}

func bindCredentials(c echo.Context) (Credentials, error) {
	var creds Credentials
	if err := c.Bind(&creds); err != nil {
		return creds, echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if !strings.Contains(creds.Email, "@") || creds.Password == "" {
		return creds, echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}
	return creds, nil
}

// errorHandler renders every error as an ErrorResponse.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = fmt.Sprint(he.Message)
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, ErrorResponse{Message: msg})
}

// Start starts the HTTP server. Returns nil after a graceful Shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}

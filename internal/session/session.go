// Package session is the header's orchestrator. A Controller binds one
// (identity, active project) pair to the switcher, the command router, the
// file store and the exporter, and exposes the toolbar actions.
//
// A controller is either unauthenticated, where only BeginSignIn and
// BeginSignUp are reachable, or authenticated. Identity never changes for a
// controller; signing in builds a new one.
//
// Dialog visibility is a single Modal value, so at most one surface is open
// at any time.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/uigen/internal/archive"
	"github.com/fyrsmithlabs/uigen/internal/auth"
	"github.com/fyrsmithlabs/uigen/internal/command"
	"github.com/fyrsmithlabs/uigen/internal/filestore"
	"github.com/fyrsmithlabs/uigen/internal/logging"
	"github.com/fyrsmithlabs/uigen/internal/metrics"
	"github.com/fyrsmithlabs/uigen/internal/project"
	"github.com/fyrsmithlabs/uigen/internal/switcher"
)

var (
	ErrUnauthenticated      = errors.New("action requires a signed-in user")
	ErrAlreadyAuthenticated = errors.New("already signed in")
	ErrNoPendingClear       = errors.New("no clear awaiting confirmation")
	ErrMissingDependency    = errors.New("missing dependency")
)

// NamePrefix and NameSpace define generated design names: NamePrefix
// followed by an integer in [0, NameSpace).
const (
	NamePrefix = "Design #"
	NameSpace  = 100000
)

// Mode is the controller's authentication mode.
type Mode int

const (
	Unauthenticated Mode = iota
	Authenticated
)

func (m Mode) String() string {
	if m == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Modal is the one dialog surface currently open.
type Modal int

const (
	ModalNone Modal = iota
	ModalAuth
	ModalPicker
	ModalPalette
	ModalConfirmClear
)

func (m Modal) String() string {
	switch m {
	case ModalAuth:
		return "auth"
	case ModalPicker:
		return "picker"
	case ModalPalette:
		return "palette"
	case ModalConfirmClear:
		return "confirm-clear"
	}
	return "none"
}

// Exporter turns a snapshot into a saved archive.
type Exporter interface {
	Export(ctx context.Context, snap filestore.Snapshot) (archive.Result, error)
}

// Deps are the collaborators of a Controller. Identity nil means
// unauthenticated; the remaining fields except Logger, Metrics and Intn
// are required when authenticated.
type Deps struct {
	Identity   *auth.Identity
	ProjectID  string
	Directory  project.Directory
	Auth       auth.Ender
	Store      filestore.Store
	Exporter   Exporter
	Navigator  project.Navigator
	Dispatcher *command.Dispatcher
	Logger     *logging.Logger
	Metrics    *metrics.Metrics
	// Intn returns a random integer in [0, n). Defaults to math/rand/v2.
	Intn func(n int) int
}

// Controller is the header action surface.
type Controller struct {
	deps     Deps
	mode     Mode
	logger   *logging.Logger
	switcher *switcher.Switcher
	router   *command.Router

	mu         sync.Mutex
	modal      Modal
	authMode   auth.Mode
	lastExport archive.Result
}

// New creates a controller. Authenticated controllers require every
// collaborator.
func New(deps Deps) (*Controller, error) {
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	if deps.Intn == nil {
		deps.Intn = rand.IntN
	}
	if deps.Dispatcher == nil {
		deps.Dispatcher = command.NewDispatcher()
	}

	c := &Controller{deps: deps, authMode: auth.ModeSignIn}

	var userID string
	if deps.Identity != nil {
		if err := deps.validate(); err != nil {
			return nil, err
		}
		c.mode = Authenticated
		userID = deps.Identity.ID
	}

	c.logger = deps.Logger.Named("session")
	c.switcher = switcher.New(switcher.Config{
		Directory: deps.Directory,
		Navigator: deps.Navigator,
		UserID:    userID,
		ProjectID: deps.ProjectID,
		Logger:    deps.Logger,
		Metrics:   deps.Metrics,
	})
	c.router = command.NewRouter(c, c)
	return c, nil
}

func (d Deps) validate() error {
	missing := func(name string) error { return fmt.Errorf("%w: %s", ErrMissingDependency, name) }
	switch {
	case d.Identity.ID == "":
		return missing("identity id")
	case d.Directory == nil:
		return missing("directory")
	case d.Auth == nil:
		return missing("auth")
	case d.Store == nil:
		return missing("file store")
	case d.Exporter == nil:
		return missing("exporter")
	case d.Navigator == nil:
		return missing("navigator")
	}
	return nil
}

// Context returns ctx annotated with the controller's user and project.
func (c *Controller) Context(ctx context.Context) context.Context {
	if c.deps.Identity != nil {
		ctx = logging.WithUserID(ctx, c.deps.Identity.ID)
	}
	return logging.WithProjectID(ctx, c.deps.ProjectID)
}

// Mount installs the accelerator and issues the initial directory fetch,
// which is nil when the picker is hidden.
func (c *Controller) Mount() *switcher.Fetch {
	c.router.Install(c.deps.Dispatcher)
	return c.switcher.Mount()
}

// Teardown removes the accelerator.
func (c *Controller) Teardown() {
	c.router.Uninstall()
}

func (c *Controller) Mode() Mode                      { return c.mode }
func (c *Controller) Identity() *auth.Identity        { return c.deps.Identity }
func (c *Controller) ProjectID() string               { return c.deps.ProjectID }
func (c *Controller) Switcher() *switcher.Switcher    { return c.switcher }
func (c *Controller) Router() *command.Router         { return c.router }
func (c *Controller) Dispatcher() *command.Dispatcher { return c.deps.Dispatcher }

// Modal returns the open dialog surface.
func (c *Controller) Modal() Modal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modal
}

// AuthMode returns the form the auth surface shows.
func (c *Controller) AuthMode() auth.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authMode
}

// setModalLocked switches the open surface, closing the picker when it
// loses focus.
func (c *Controller) setModalLocked(m Modal) {
	if c.modal == ModalPicker && m != ModalPicker {
		c.switcher.Close()
	}
	c.modal = m
}

func (c *Controller) requireAuth() error {
	if c.mode != Authenticated {
		return ErrUnauthenticated
	}
	return nil
}

// BeginSignIn opens the auth surface in sign-in mode.
func (c *Controller) BeginSignIn() error { return c.beginAuth(auth.ModeSignIn) }

// BeginSignUp opens the auth surface in sign-up mode.
func (c *Controller) BeginSignUp() error { return c.beginAuth(auth.ModeSignUp) }

func (c *Controller) beginAuth(mode auth.Mode) error {
	if c.mode == Authenticated {
		return ErrAlreadyAuthenticated
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authMode = mode
	c.setModalLocked(ModalAuth)
	return nil
}

// CloseAuth dismisses the auth surface.
func (c *Controller) CloseAuth() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.modal == ModalAuth {
		c.setModalLocked(ModalNone)
	}
}

// SetAuthMode switches the open auth form between sign-in and sign-up.
func (c *Controller) SetAuthMode(mode auth.Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authMode = mode
}

// NewDesign creates a project with a generated name, an empty message
// history and empty data, then navigates to it. Creation errors are
// returned unchanged.
func (c *Controller) NewDesign(ctx context.Context) (*project.Project, error) {
	if err := c.requireAuth(); err != nil {
		return nil, err
	}
	ctx = c.Context(ctx)

	name := fmt.Sprintf("%s%d", NamePrefix, c.deps.Intn(NameSpace))
	p, err := c.deps.Directory.Create(ctx, project.NewCreateSpec(name))
	c.deps.Metrics.ProjectCreated(err)
	if err != nil {
		return nil, err
	}

	c.logger.Info(ctx, "design created", zap.String("name", p.Name), zap.String("new_project.id", p.ID))
	c.deps.Navigator.GoTo(p.Location())
	return p, nil
}

// RequestClear opens the confirmation. Nothing is deleted.
func (c *Controller) RequestClear() error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setModalLocked(ModalConfirmClear)
	c.deps.Metrics.ClearPhase("requested")
	return nil
}

// ConfirmClear resets the file store and closes the confirmation. It fails
// with ErrNoPendingClear unless RequestClear opened the confirmation.
func (c *Controller) ConfirmClear(ctx context.Context) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	c.mu.Lock()
	if c.modal != ModalConfirmClear {
		c.mu.Unlock()
		return ErrNoPendingClear
	}
	c.deps.Store.Reset()
	c.setModalLocked(ModalNone)
	c.mu.Unlock()

	c.deps.Metrics.ClearPhase("confirmed")
	c.logger.Info(c.Context(ctx), "all files cleared")
	return nil
}

// CancelClear closes the confirmation without touching the store.
func (c *Controller) CancelClear() error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.modal != ModalConfirmClear {
		return ErrNoPendingClear
	}
	c.setModalLocked(ModalNone)
	c.deps.Metrics.ClearPhase("cancelled")
	return nil
}

// Download exports a fresh snapshot of the file store. The result is
// available from LastExport.
func (c *Controller) Download(ctx context.Context) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	res, err := c.deps.Exporter.Export(c.Context(ctx), c.deps.Store.Snapshot())
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.lastExport = res
	c.mu.Unlock()
	return nil
}

// LastExport returns the result of the most recent successful Download.
func (c *Controller) LastExport() archive.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastExport
}

// EndSession signs out and waits for the auth service. It does not
// navigate; errors are returned unchanged.
func (c *Controller) EndSession(ctx context.Context) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	ctx = c.Context(ctx)
	if err := c.deps.Auth.EndSession(ctx); err != nil {
		c.logger.Warn(ctx, "sign out failed", zap.Error(err))
		return err
	}
	return nil
}

// OpenPicker shows the project picker and returns the refetch it issued.
func (c *Controller) OpenPicker() (*switcher.Fetch, error) {
	if err := c.requireAuth(); err != nil {
		return nil, err
	}
	if c.switcher.State() != switcher.Idle {
		return nil, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setModalLocked(ModalPicker)
	return c.switcher.Open(), nil
}

// ClosePicker hides the project picker.
func (c *Controller) ClosePicker() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.modal == ModalPicker {
		c.setModalLocked(ModalNone)
	}
}

// SelectProject picks a project from the list and navigates to it.
func (c *Controller) SelectProject(id string) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	if err := c.switcher.Select(id); err != nil {
		return err
	}
	c.ClosePicker()
	return nil
}

// OpenPalette shows the command palette. It does nothing when
// unauthenticated, since no command is reachable.
func (c *Controller) OpenPalette() {
	if c.mode != Authenticated {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.modal != ModalPalette {
		c.setModalLocked(ModalPalette)
		c.deps.Metrics.PaletteOpened()
	}
}

// ClosePalette hides the command palette.
func (c *Controller) ClosePalette() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.modal == ModalPalette {
		c.setModalLocked(ModalNone)
	}
}

// RunCommand runs a palette command.
func (c *Controller) RunCommand(ctx context.Context, id command.ID) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	return c.router.InvokeFromPalette(ctx, id)
}

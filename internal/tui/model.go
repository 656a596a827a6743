// Package tui renders the workspace header bar in the terminal. The Model
// is the environment around a session.Controller: it owns the key
// dispatcher, performs navigation by rebinding the controller to a new
// project, and runs every blocking collaborator call as a tea.Cmd.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/uigen/internal/auth"
	"github.com/fyrsmithlabs/uigen/internal/command"
	"github.com/fyrsmithlabs/uigen/internal/logging"
	"github.com/fyrsmithlabs/uigen/internal/project"
	"github.com/fyrsmithlabs/uigen/internal/session"
	"github.com/fyrsmithlabs/uigen/internal/switcher"
)

// Picker copy.
const (
	PickerPlaceholder = "Search projects..."
	PickerEmpty       = "No projects found."
)

// Confirmation copy.
const (
	ConfirmTitle  = "Clear All Files?"
	ConfirmBody   = "This will delete all generated files from the current project. This action cannot be undone."
	ConfirmCancel = "Cancel"
	ConfirmDelete = "Delete All"
)

// Binding is what a controller is built from. The dispatcher and navigator
// belong to the Model and outlive any one controller.
type Binding struct {
	Identity   *auth.Identity
	ProjectID  string
	Navigator  project.Navigator
	Dispatcher *command.Dispatcher
}

// Builder creates a controller for a binding.
type Builder func(b Binding) (*session.Controller, error)

// Authenticator runs the auth surface's form.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (auth.Identity, error)
	SignUp(ctx context.Context, email, password string) (auth.Identity, error)
}

// Options configure a Model.
type Options struct {
	Identity  *auth.Identity
	ProjectID string
	Build     Builder
	Auth      Authenticator
	Logger    *logging.Logger
	// Context bounds every collaborator call. Defaults to Background.
	Context context.Context
}

// navigator records the last requested location. The Model consumes it
// after each update.
type navigator struct {
	mu      sync.Mutex
	pending string
	ok      bool
}

func (n *navigator) GoTo(location string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pending, n.ok = location, true
}

func (n *navigator) take() (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	loc, ok := n.pending, n.ok
	n.pending, n.ok = "", false
	return loc, ok
}

type confirmFocus int

const (
	focusCancel confirmFocus = iota
	focusDelete
)

// Model is the bubbletea model for the header bar.
type Model struct {
	ctx    context.Context
	build  Builder
	authn  Authenticator
	logger *logging.Logger
	nav    *navigator
	disp   *command.Dispatcher
	ctrl   *session.Controller

	keys keyMap
	help help.Model

	query    textinput.Model
	palette  textinput.Model
	email    textinput.Model
	password textinput.Model

	shown         session.Modal
	pickerCursor  int
	paletteCursor int
	confirm       confirmFocus
	passwordFocus bool
	authPending   bool

	status   string
	err      error
	width    int
	quitting bool
}

// Message types
type fetchMsg struct {
	ctrl   *session.Controller
	result switcher.Result
}

type designMsg struct {
	ctrl    *session.Controller
	project *project.Project
	err     error
}

type downloadMsg struct {
	ctrl *session.Controller
	err  error
}

type signOutMsg struct {
	ctrl *session.Controller
	err  error
}

type authMsg struct {
	mode     auth.Mode
	identity auth.Identity
	err      error
}

// New builds the initial controller and the model around it.
func New(opts Options) (Model, error) {
	if opts.Build == nil {
		return Model{}, errors.New("tui: builder is required")
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}

	query := textinput.New()
	query.Placeholder = PickerPlaceholder
	query.Prompt = "⌕ "

	palette := textinput.New()
	palette.Placeholder = command.Placeholder
	palette.Prompt = "› "

	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = "Email    "

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = "Password "
	password.EchoMode = textinput.EchoPassword

	m := Model{
		ctx:      opts.Context,
		build:    opts.Build,
		authn:    opts.Auth,
		logger:   opts.Logger.Named("tui"),
		nav:      &navigator{},
		disp:     command.NewDispatcher(),
		keys:     newKeyMap(),
		help:     help.New(),
		query:    query,
		palette:  palette,
		email:    email,
		password: password,
	}
	if err := m.bind(opts.Identity, opts.ProjectID); err != nil {
		return Model{}, err
	}
	return m, nil
}

// bind replaces the controller. The previous one is torn down first so only
// one accelerator is ever installed.
func (m *Model) bind(identity *auth.Identity, projectID string) error {
	ctrl, err := m.build(Binding{
		Identity:   identity,
		ProjectID:  projectID,
		Navigator:  m.nav,
		Dispatcher: m.disp,
	})
	if err != nil {
		return fmt.Errorf("build session: %w", err)
	}
	if m.ctrl != nil {
		m.ctrl.Teardown()
	}
	m.ctrl = ctrl
	m.shown = session.ModalNone
	m.pickerCursor, m.paletteCursor = 0, 0
	m.keys.setAuthenticated(ctrl.Mode() == session.Authenticated)
	return nil
}

// Controller returns the bound controller.
func (m Model) Controller() *session.Controller { return m.ctrl }

// Status returns the status line text and the last unrecovered error.
func (m Model) Status() (string, error) { return m.status, m.err }

// Init mounts the controller.
func (m Model) Init() tea.Cmd {
	return m.fetch(m.ctrl.Mount())
}

func (m Model) fetch(f *switcher.Fetch) tea.Cmd {
	if f == nil {
		return nil
	}
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return fetchMsg{ctrl: ctrl, result: f.Do(ctx)}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.update(msg)
	return m, tea.Batch(cmd, m.sync())
}

func (m *Model) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case fetchMsg:
		if msg.ctrl == m.ctrl {
			m.ctrl.Switcher().Settle(m.ctx, msg.result)
			m.pickerCursor = clamp(m.pickerCursor, len(m.ctrl.Switcher().Filtered()))
		}
		return nil

	case designMsg:
		if msg.ctrl != m.ctrl {
			return nil
		}
		if msg.err != nil {
			m.fail("New Design", msg.err)
			return nil
		}
		m.succeed(fmt.Sprintf("Created %s", msg.project.Name))
		return nil

	case downloadMsg:
		if msg.ctrl != m.ctrl {
			return nil
		}
		if msg.err != nil {
			m.fail("Download ZIP", msg.err)
			return nil
		}
		res := m.ctrl.LastExport()
		if !res.Saved {
			m.succeed("Nothing to export")
			return nil
		}
		m.succeed(fmt.Sprintf("Saved %s (%d files, %s)", res.Location, res.Entries, FormatSize(res.Bytes)))
		return nil

	case signOutMsg:
		if msg.ctrl != m.ctrl {
			return nil
		}
		if msg.err != nil {
			m.fail("Sign out", msg.err)
			return nil
		}
		if err := m.bind(nil, m.ctrl.ProjectID()); err != nil {
			m.fail("Sign out", err)
			return nil
		}
		m.succeed("Signed out")
		return m.fetch(m.ctrl.Mount())

	case authMsg:
		m.authPending = false
		if msg.err != nil {
			m.fail(authTitle(msg.mode), msg.err)
			return nil
		}
		identity := msg.identity
		if err := m.bind(&identity, m.ctrl.ProjectID()); err != nil {
			m.fail(authTitle(msg.mode), err)
			return nil
		}
		m.email.SetValue("")
		m.password.SetValue("")
		m.succeed("Signed in as " + identity.Email)
		return m.fetch(m.ctrl.Mount())
	}

	return nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.ForceQuit) {
		m.quitting = true
		return tea.Quit
	}

	// The dispatcher sees every key first; a prevented key gets no further
	// handling.
	if m.disp.Dispatch(keyEvent(msg)) {
		return nil
	}

	switch m.ctrl.Modal() {
	case session.ModalPicker:
		return m.handlePickerKey(msg)
	case session.ModalPalette:
		return m.handlePaletteKey(msg)
	case session.ModalConfirmClear:
		return m.handleConfirmKey(msg)
	case session.ModalAuth:
		return m.handleAuthKey(msg)
	}
	return m.handleToolbarKey(msg)
}

func (m *Model) handleToolbarKey(msg tea.KeyMsg) tea.Cmd {
	ctrl := m.ctrl
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.SignIn):
		m.report(ctrl.BeginSignIn())
	case key.Matches(msg, m.keys.SignUp):
		m.report(ctrl.BeginSignUp())
	case key.Matches(msg, m.keys.NewDesign):
		m.status = "Creating design..."
		return m.newDesign()
	case key.Matches(msg, m.keys.ClearAll):
		m.report(ctrl.RequestClear())
	case key.Matches(msg, m.keys.Download):
		return m.download()
	case key.Matches(msg, m.keys.SignOut):
		m.status = "Signing out..."
		return m.signOut()
	case key.Matches(msg, m.keys.Projects):
		f, err := ctrl.OpenPicker()
		m.report(err)
		return m.fetch(f)
	}
	return nil
}

func (m *Model) handlePickerKey(msg tea.KeyMsg) tea.Cmd {
	sw := m.ctrl.Switcher()
	switch {
	case key.Matches(msg, m.keys.Back):
		m.ctrl.ClosePicker()
		return nil
	case key.Matches(msg, m.keys.Up):
		m.pickerCursor = clamp(m.pickerCursor-1, len(sw.Filtered()))
		return nil
	case key.Matches(msg, m.keys.Down):
		m.pickerCursor = clamp(m.pickerCursor+1, len(sw.Filtered()))
		return nil
	case key.Matches(msg, m.keys.Enter):
		filtered := sw.Filtered()
		if len(filtered) == 0 {
			return nil
		}
		m.report(m.ctrl.SelectProject(filtered[clamp(m.pickerCursor, len(filtered))].ID))
		return nil
	}

	var cmd tea.Cmd
	m.query, cmd = m.query.Update(msg)
	if m.query.Value() != sw.Query() {
		sw.SetQuery(m.query.Value())
		m.pickerCursor = 0
	}
	return cmd
}

func (m *Model) handlePaletteKey(msg tea.KeyMsg) tea.Cmd {
	items := command.Search(m.palette.Value())
	switch {
	case key.Matches(msg, m.keys.Back):
		m.ctrl.ClosePalette()
		return nil
	case key.Matches(msg, m.keys.Up):
		m.paletteCursor = clamp(m.paletteCursor-1, len(items))
		return nil
	case key.Matches(msg, m.keys.Down):
		m.paletteCursor = clamp(m.paletteCursor+1, len(items))
		return nil
	case key.Matches(msg, m.keys.Enter):
		if len(items) == 0 {
			return nil
		}
		return m.runCommand(items[clamp(m.paletteCursor, len(items))].ID)
	}

	var cmd tea.Cmd
	before := m.palette.Value()
	m.palette, cmd = m.palette.Update(msg)
	if m.palette.Value() != before {
		m.paletteCursor = 0
	}
	return cmd
}

// runCommand closes the palette before the command runs. Download is the
// only command with blocking work, so it goes through a tea.Cmd.
func (m *Model) runCommand(id command.ID) tea.Cmd {
	if id == command.Download {
		m.ctrl.ClosePalette()
		return m.download()
	}
	m.report(m.ctrl.RunCommand(m.ctx, id))
	return nil
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.report(m.ctrl.CancelClear())
	case key.Matches(msg, m.keys.Switch):
		if m.confirm == focusCancel {
			m.confirm = focusDelete
		} else {
			m.confirm = focusCancel
		}
	case key.Matches(msg, m.keys.Enter):
		if m.confirm != focusDelete {
			m.report(m.ctrl.CancelClear())
			return nil
		}
		if err := m.ctrl.ConfirmClear(m.ctx); err != nil {
			m.fail("Clear All", err)
			return nil
		}
		m.succeed("All files cleared")
	}
	return nil
}

func (m *Model) handleAuthKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.ctrl.CloseAuth()
		return nil
	case key.Matches(msg, m.keys.AltMode):
		if m.ctrl.AuthMode() == auth.ModeSignIn {
			m.ctrl.SetAuthMode(auth.ModeSignUp)
		} else {
			m.ctrl.SetAuthMode(auth.ModeSignIn)
		}
		return nil
	case msg.Type == tea.KeyTab || msg.Type == tea.KeyShiftTab:
		return m.focusAuthField(!m.passwordFocus)
	case key.Matches(msg, m.keys.Enter):
		if !m.passwordFocus {
			return m.focusAuthField(true)
		}
		return m.submitAuth()
	}

	var cmd tea.Cmd
	if m.passwordFocus {
		m.password, cmd = m.password.Update(msg)
	} else {
		m.email, cmd = m.email.Update(msg)
	}
	return cmd
}

func (m *Model) focusAuthField(password bool) tea.Cmd {
	m.passwordFocus = password
	if password {
		m.email.Blur()
		return m.password.Focus()
	}
	m.password.Blur()
	return m.email.Focus()
}

func (m *Model) submitAuth() tea.Cmd {
	if m.authPending {
		return nil
	}
	mode := m.ctrl.AuthMode()
	if m.authn == nil {
		m.fail(authTitle(mode), errors.New("no auth service configured"))
		return nil
	}
	email, password := strings.TrimSpace(m.email.Value()), m.password.Value()
	if email == "" || password == "" {
		m.fail(authTitle(mode), errors.New("email and password are required"))
		return nil
	}

	m.authPending = true
	m.status = authTitle(mode) + "..."
	authn, ctx := m.authn, m.ctx
	return func() tea.Msg {
		var (
			id  auth.Identity
			err error
		)
		if mode == auth.ModeSignUp {
			id, err = authn.SignUp(ctx, email, password)
		} else {
			id, err = authn.SignIn(ctx, email, password)
		}
		return authMsg{mode: mode, identity: id, err: err}
	}
}

func (m Model) newDesign() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		p, err := ctrl.NewDesign(ctx)
		return designMsg{ctrl: ctrl, project: p, err: err}
	}
}

func (m Model) download() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return downloadMsg{ctrl: ctrl, err: ctrl.Download(ctx)}
	}
}

func (m Model) signOut() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return signOutMsg{ctrl: ctrl, err: ctrl.EndSession(ctx)}
	}
}

// sync reacts to state the controller changed during an update: a
// navigation rebinds to the new project, and a newly opened surface gets
// input focus.
func (m *Model) sync() tea.Cmd {
	var cmds []tea.Cmd

	if loc, ok := m.nav.take(); ok {
		projectID := strings.TrimPrefix(loc, "/")
		if err := m.bind(m.ctrl.Identity(), projectID); err != nil {
			m.fail("Open project", err)
		} else {
			m.logger.Info(m.ctrl.Context(m.ctx), "navigated", zap.String("location", loc))
			cmds = append(cmds, m.fetch(m.ctrl.Mount()))
		}
	}

	modal := m.ctrl.Modal()
	if modal == m.shown {
		return tea.Batch(cmds...)
	}
	m.shown = modal
	m.query.Blur()
	m.palette.Blur()
	m.email.Blur()
	m.password.Blur()

	switch modal {
	case session.ModalPicker:
		m.query.SetValue(m.ctrl.Switcher().Query())
		m.pickerCursor = 0
		cmds = append(cmds, m.query.Focus())
	case session.ModalPalette:
		m.palette.SetValue("")
		m.paletteCursor = 0
		cmds = append(cmds, m.palette.Focus())
	case session.ModalConfirmClear:
		m.confirm = focusCancel
	case session.ModalAuth:
		cmds = append(cmds, m.focusAuthField(false))
	}
	return tea.Batch(cmds...)
}

func (m *Model) report(err error) {
	if err != nil {
		m.fail("", err)
	}
}

// fail is the error boundary: unrecovered errors land in the status line.
func (m *Model) fail(action string, err error) {
	m.err = err
	if action == "" {
		m.status = err.Error()
	} else {
		m.status = action + " failed: " + err.Error()
	}
	m.logger.Warn(m.ctrl.Context(m.ctx), "action failed", zap.String("action", action), zap.Error(err))
}

func (m *Model) succeed(status string) {
	m.err = nil
	m.status = status
}

func authTitle(mode auth.Mode) string {
	if mode == auth.ModeSignUp {
		return "Sign Up"
	}
	return "Sign In"
}

func clamp(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

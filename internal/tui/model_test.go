package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/uigen/internal/archive"
	"github.com/fyrsmithlabs/uigen/internal/auth"
	"github.com/fyrsmithlabs/uigen/internal/command"
	"github.com/fyrsmithlabs/uigen/internal/filestore"
	"github.com/fyrsmithlabs/uigen/internal/project"
	"github.com/fyrsmithlabs/uigen/internal/session"
	"github.com/fyrsmithlabs/uigen/internal/switcher"
)

type fakeEnder struct{ err error }

func (e *fakeEnder) EndSession(ctx context.Context) error { return e.err }

type fakeAuthn struct {
	identity auth.Identity
	err      error
	modes    []auth.Mode
}

func (a *fakeAuthn) SignIn(ctx context.Context, email, password string) (auth.Identity, error) {
	a.modes = append(a.modes, auth.ModeSignIn)
	return a.identity, a.err
}

func (a *fakeAuthn) SignUp(ctx context.Context, email, password string) (auth.Identity, error) {
	a.modes = append(a.modes, auth.ModeSignUp)
	return a.identity, a.err
}

type env struct {
	dir    *project.MemoryDirectory
	store  *filestore.MemoryStore
	ender  *fakeEnder
	authn  *fakeAuthn
	outDir string
	builds []Binding
}

func newEnv(t *testing.T) *env {
	t.Helper()
	now := time.Now()
	dir := project.NewMemoryDirectory()
	dir.Put(project.Project{ID: "a", Name: "Alpha", CreatedAt: now, UpdatedAt: now})
	dir.Put(project.Project{ID: "b", Name: "Beta", CreatedAt: now.Add(-2 * time.Hour), UpdatedAt: now.Add(-time.Hour)})

	store := filestore.NewMemoryStore()
	require.NoError(t, store.Write("/App.jsx", "export default function App() {}"))

	return &env{
		dir:    dir,
		store:  store,
		ender:  &fakeEnder{},
		authn:  &fakeAuthn{identity: auth.Identity{ID: "u-1", Email: "dev@example.com"}},
		outDir: t.TempDir(),
	}
}

func (e *env) build(b Binding) (*session.Controller, error) {
	e.builds = append(e.builds, b)
	return session.New(session.Deps{
		Identity:   b.Identity,
		ProjectID:  b.ProjectID,
		Directory:  e.dir,
		Auth:       e.ender,
		Store:      e.store,
		Exporter:   archive.NewExporter(archive.NewDirSink(e.outDir)),
		Navigator:  b.Navigator,
		Dispatcher: b.Dispatcher,
		Intn:       func(int) int { return 7 },
	})
}

func (e *env) model(t *testing.T, identity *auth.Identity, projectID string) Model {
	t.Helper()
	m, err := New(Options{Identity: identity, ProjectID: projectID, Build: e.build, Auth: e.authn})
	require.NoError(t, err)
	return apply(m, m.Init())
}

// run executes cmd and returns the messages it produced. Commands that do
// not return promptly, such as cursor blinks, are skipped.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		if batch, ok := msg.(tea.BatchMsg); ok {
			var out []tea.Msg
			for _, c := range batch {
				out = append(out, run(c)...)
			}
			return out
		}
		return []tea.Msg{msg}
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// apply feeds the model's own async results back into it until none remain.
func apply(m Model, cmd tea.Cmd) Model {
	for _, msg := range run(cmd) {
		switch msg.(type) {
		case fetchMsg, designMsg, downloadMsg, signOutMsg, authMsg:
			m = send(m, msg)
		}
	}
	return m
}

func send(m Model, msg tea.Msg) Model {
	next, cmd := m.Update(msg)
	return apply(next.(Model), cmd)
}

func press(m Model, keys ...tea.KeyMsg) Model {
	for _, k := range keys {
		m = send(m, k)
	}
	return m
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func typed(m Model, s string) Model {
	for _, r := range s {
		m = press(m, runes(string(r)))
	}
	return m
}

var (
	ctrlK = tea.KeyMsg{Type: tea.KeyCtrlK}
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	tab   = tea.KeyMsg{Type: tea.KeyTab}
	down  = tea.KeyMsg{Type: tea.KeyDown}
)

func user() *auth.Identity { return &auth.Identity{ID: "u-1", Email: "dev@example.com"} }

func TestNew_RequiresBuilder(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestUnauthenticated_Toolbar(t *testing.T) {
	e := newEnv(t)
	m := e.model(t, nil, "a")

	view := m.View()
	assert.Contains(t, view, "Sign In")
	assert.Contains(t, view, "Sign Up")
	assert.NotContains(t, view, "New Design")

	m = press(m, runes("n"), runes("c"), runes("d"))
	assert.Equal(t, session.ModalNone, m.Controller().Modal())
	assert.Equal(t, 1, e.store.Len())

	m = press(m, runes("i"))
	assert.Equal(t, session.ModalAuth, m.Controller().Modal())
	assert.Equal(t, auth.ModeSignIn, m.Controller().AuthMode())
	assert.Contains(t, m.View(), "Sign In")

	m = press(m, esc, runes("u"))
	assert.Equal(t, session.ModalAuth, m.Controller().Modal())
	assert.Equal(t, auth.ModeSignUp, m.Controller().AuthMode())
}

func TestUnauthenticated_AcceleratorSwallowed(t *testing.T) {
	e := newEnv(t)
	m := e.model(t, nil, "a")

	m = press(m, ctrlK)
	assert.Equal(t, session.ModalNone, m.Controller().Modal())
}

func TestMount_ShowsActiveProject(t *testing.T) {
	e := newEnv(t)
	m := e.model(t, user(), "a")

	assert.Equal(t, switcher.Idle, m.Controller().Switcher().State())
	view := m.View()
	assert.Contains(t, view, "Alpha")
	assert.Contains(t, view, "New Design")
	assert.Contains(t, view, "Download ZIP")
	assert.Contains(t, view, "dev@example.com")
}

func TestMount_UnknownProjectShowsPlaceholder(t *testing.T) {
	e := newEnv(t)
	m := e.model(t, user(), "missing")
	assert.Contains(t, m.View(), switcher.Placeholder)
}

func TestPicker_FilterAndSelect(t *testing.T) {
	e := newEnv(t)
	m := e.model(t, user(), "a")

	m = press(m, runes("p"))
	require.Equal(t, session.ModalPicker, m.Controller().Modal())
	assert.Equal(t, 2, m.Controller().Switcher().FetchCount())

	m = typed(m, "BE")
	assert.Equal(t, "BE", m.Controller().Switcher().Query())
	filtered := m.Controller().Switcher().Filtered()
	require.Len(t, filtered, 1)
	assert.Equal(t, "Beta", filtered[0].Name)

	m = press(m, enter)

	require.Len(t, e.builds, 2)
	assert.Equal(t, "b", e.builds[1].ProjectID)
	assert.Equal(t, "b", m.Controller().ProjectID())
	assert.Equal(t, session.ModalNone, m.Controller().Modal())
	assert.Equal(t, "Beta", m.Controller().Switcher().Label())
	assert.Equal(t, 1, e.builds[1].Dispatcher.Len())
}

func TestPicker_EmptyState(t *testing.T) {
	e := newEnv(t)
	m := e.model(t, user(), "a")

	m = press(m, runes("p"))
	m = typed(m, "z")
	assert.Contains(t, m.View(), PickerEmpty)

	m = press(m, enter)
	assert.Equal(t, session.ModalPicker, m.Controller().Modal())

	m = press(m, esc)
	assert.Equal(t, session.ModalNone, m.Controller().Modal())
}

func TestPalette_OpensOnAccelerator(t *testing.T) {
	e := newEnv(t)
	m := e.model(t, user(), "a")

	m = press(m, ctrlK)
	require.Equal(t, session.ModalPalette, m.Controller().Modal())
	view := m.View()
	assert.Contains(t, view, command.Heading)
	assert.Contains(t, view, "Clear All Files")
	assert.Contains(t, view, "Download as ZIP")

	m = press(m, ctrlK)
	assert.Equal(t, session.ModalPalette, m.Controller().Modal())

	m = typed(m, "zzz")
	assert.Contains(t, m.View(), command.EmptyState)

	m = press(m, esc)
	assert.Equal(t, session.ModalNone, m.Controller().Modal())
}

func TestPalette_AcceleratorWinsOverFocusedInput(t *testing.T) {
	e := newEnv(t)
	m := e.model(t, user(), "a")

	m = press(m, runes("p"))
	require.Equal(t, session.ModalPicker, m.Controller().Modal())
	m = typed(m, "Al")
	// With the cursor at the start, the input's own ctrl+k would delete
	// the whole query.
	m = press(m, tea.KeyMsg{Type: tea.KeyHome}, ctrlK)

	assert.Equal(t, session.ModalPalette, m.Controller().Modal())
	assert.Equal(t, "Al", m.query.Value())
	assert.Equal(t, "Al", m.Controller().Switcher().Query())
	assert.Empty(t, m.palette.Value())

	m = typed(m, "do")
	m = press(m, tea.KeyMsg{Type: tea.KeyHome}, ctrlK)
	assert.Equal(t, session.ModalPalette, m.Controller().Modal())
	assert.Equal(t, "do", m.palette.Value())
}

func TestPalette_ClearAllOpensConfirmation(t *testing.T) {
	e := newEnv(t)
	m := e.model(t, user(), "a")

	m = press(m, ctrlK, enter)
	assert.Equal(t, session.ModalConfirmClear, m.Controller().Modal())
	assert.Equal(t, 1, e.store.Len())
	assert.Contains(t, m.View(), ConfirmTitle)
}

func TestPalette_Download(t *testing.T) {
	e := newEnv(t)
	m := e.model(t, user(), "a")

	m = press(m, ctrlK, down, enter)

	assert.Equal(t, session.ModalNone, m.Controller().Modal())
	status, err := m.Status()
	require.NoError(t, err)
	assert.Contains(t, status, archive.FileName)
	assert.FileExists(t, e.outDir+"/"+archive.FileName)
}

func TestConfirm_CancelByDefault(t *testing.T) {
	e := newEnv(t)
	m := e.model(t, user(), "a")

	m = press(m, runes("c"))
	require.Equal(t, session.ModalConfirmClear, m.Controller().Modal())
	view := m.View()
	assert.Contains(t, view, ConfirmCancel)
	assert.Contains(t, view, ConfirmDelete)

	m = press(m, enter)
	assert.Equal(t, session.ModalNone, m.Controller().Modal())
	assert.Equal(t, 1, e.store.Len())
}

func TestConfirm_DeleteAll(t *testing.T) {
	e := newEnv(t)
	m := e.model(t, user(), "a")

	m = press(m, runes("c"), tab, enter)
	assert.Equal(t, session.ModalNone, m.Controller().Modal())
	assert.Zero(t, e.store.Len())
	assert.Equal(t, 1, e.store.Resets())
}

func TestNewDesign_NavigatesToCreatedProject(t *testing.T) {
	e := newEnv(t)
	m := e.model(t, user(), "a")

	m = press(m, runes("n"))

	status, err := m.Status()
	require.NoError(t, err)
	assert.Equal(t, "Created Design #7", status)
	require.Len(t, e.builds, 2)
	assert.NotEqual(t, "a", m.Controller().ProjectID())
	assert.Equal(t, "Design #7", m.Controller().Switcher().Label())
}

func TestNewDesign_ErrorLandsInStatus(t *testing.T) {
	e := newEnv(t)
	e.dir = project.NewMemoryDirectory(project.WithLimit(1))
	m := e.model(t, user(), "a")
	_, err := e.dir.Create(context.Background(), project.NewCreateSpec("taken"))
	require.NoError(t, err)

	m = press(m, runes("n"))

	status, err := m.Status()
	assert.ErrorIs(t, err, project.ErrCreateRejected)
	assert.Contains(t, status, "New Design failed")
	assert.Contains(t, m.View(), "New Design failed")
}

func TestSignOut(t *testing.T) {
	e := newEnv(t)
	m := e.model(t, user(), "a")

	m = press(m, runes("s"))

	assert.Equal(t, session.Unauthenticated, m.Controller().Mode())
	assert.Equal(t, "a", m.Controller().ProjectID())
	assert.Contains(t, m.View(), "Sign In")
}

func TestSignOut_FailureKeepsSession(t *testing.T) {
	e := newEnv(t)
	e.ender.err = auth.ErrSignOutFailed
	m := e.model(t, user(), "a")

	m = press(m, runes("s"))

	assert.Equal(t, session.Authenticated, m.Controller().Mode())
	_, err := m.Status()
	assert.ErrorIs(t, err, auth.ErrSignOutFailed)
}

func TestAuth_SignInRebindsController(t *testing.T) {
	e := newEnv(t)
	m := e.model(t, nil, "a")

	m = press(m, runes("i"))
	m = typed(m, "dev@example.com")
	m = press(m, enter)
	m = typed(m, "hunter22")
	m = press(m, enter)

	require.Equal(t, []auth.Mode{auth.ModeSignIn}, e.authn.modes)
	assert.Equal(t, session.Authenticated, m.Controller().Mode())
	assert.Equal(t, "u-1", m.Controller().Identity().ID)
	assert.Equal(t, "Alpha", m.Controller().Switcher().Label())
	assert.Equal(t, 1, e.builds[1].Dispatcher.Len())
}

func TestAuth_SignUpFailure(t *testing.T) {
	e := newEnv(t)
	e.authn.err = auth.ErrSignUpRejected
	m := e.model(t, nil, "a")

	m = press(m, runes("u"))
	m = typed(m, "dev@example.com")
	m = press(m, tab)
	m = typed(m, "pw")
	m = press(m, enter)

	assert.Equal(t, []auth.Mode{auth.ModeSignUp}, e.authn.modes)
	assert.Equal(t, session.Unauthenticated, m.Controller().Mode())
	assert.Equal(t, session.ModalAuth, m.Controller().Modal())
	status, err := m.Status()
	assert.ErrorIs(t, err, auth.ErrSignUpRejected)
	assert.Contains(t, status, "Sign Up failed")
}

func TestAuth_RequiresFields(t *testing.T) {
	e := newEnv(t)
	m := e.model(t, nil, "a")

	m = press(m, runes("i"), tab, enter)
	assert.Empty(t, e.authn.modes)
	_, err := m.Status()
	assert.Error(t, err)
}

func TestQuit(t *testing.T) {
	e := newEnv(t)
	m := e.model(t, user(), "a")

	next, cmd := m.Update(runes("q"))
	assert.NotNil(t, cmd)
	assert.Empty(t, next.(Model).View())
}

func TestStaleFetchFromOldControllerIgnored(t *testing.T) {
	e := newEnv(t)
	m := e.model(t, user(), "a")
	old := m.Controller()

	m = press(m, runes("s"))
	require.NotSame(t, old, m.Controller())

	m = send(m, fetchMsg{ctrl: old, result: switcher.Result{Err: errors.New("late")}})
	_, err := m.Status()
	assert.NoError(t, err)
}

func TestKeyEvent(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
		want command.KeyEvent
	}{
		{name: "ctrl+k", msg: tea.KeyMsg{Type: tea.KeyCtrlK}, want: command.KeyEvent{Key: "k", Ctrl: true}},
		{name: "rune", msg: runes("k"), want: command.KeyEvent{Key: "k"}},
		{name: "alt rune", msg: tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k"), Alt: true}, want: command.KeyEvent{Key: "k", Alt: true}},
		{name: "enter", msg: enter, want: command.KeyEvent{Key: "enter"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := keyEvent(tt.msg)
			assert.Equal(t, tt.want.Key, got.Key)
			assert.Equal(t, tt.want.Ctrl, got.Ctrl)
			assert.Equal(t, tt.want.Alt, got.Alt)
			assert.Equal(t, command.IsAccelerator(&tt.want), command.IsAccelerator(got))
		})
	}
}

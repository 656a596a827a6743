// Package switcher owns the cached project list behind the project picker:
// loading state, the active project, text filtering and selection.
//
// Fetches are split into Begin (issue), Do (blocking directory call) and
// Settle (apply) so a host can run Do off its event loop. Every fetch carries
// a sequence number and only the most recently issued one may replace the
// cache.
package switcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/uigen/internal/logging"
	"github.com/fyrsmithlabs/uigen/internal/metrics"
	"github.com/fyrsmithlabs/uigen/internal/project"
)

// Placeholder is the label shown when the active project is not cached.
const Placeholder = "Select Project"

// ErrUnknownProject is returned when selecting an id not in the cache.
var ErrUnknownProject = errors.New("project not in list")

// State is the picker lifecycle state.
type State int

const (
	// Hidden: no identity or no active project; never loads, never renders.
	Hidden State = iota
	// Loading: the initial fetch has not settled yet.
	Loading
	// Idle: at least one fetch settled; the picker is rendered.
	Idle
)

func (s State) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case Loading:
		return "loading"
	case Idle:
		return "idle"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Config wires a Switcher.
type Config struct {
	Directory project.Directory
	Navigator project.Navigator
	UserID    string
	ProjectID string
	Logger    *logging.Logger
	Metrics   *metrics.Metrics
}

// Switcher is safe for concurrent use. Do may run on any goroutine.
type Switcher struct {
	dir     project.Directory
	nav     project.Navigator
	userID  string
	active  string
	logger  *logging.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	cache   []project.Project
	loading bool
	open    bool
	query   string
	issued  uint64
	fetches int
}

// New creates a switcher. It starts in Loading when both the user and the
// active project are known, Hidden otherwise.
func New(cfg Config) *Switcher {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Switcher{
		dir:     cfg.Directory,
		nav:     cfg.Navigator,
		userID:  cfg.UserID,
		active:  cfg.ProjectID,
		logger:  logger.Named("switcher"),
		metrics: cfg.Metrics,
		loading: cfg.UserID != "" && cfg.ProjectID != "",
	}
}

// Fetch is one issued directory request.
type Fetch struct {
	seq uint64
	dir project.Directory
}

// Seq returns the fetch's sequence number.
func (f *Fetch) Seq() uint64 { return f.seq }

// Result is the outcome of a Fetch.
type Result struct {
	Seq      uint64
	Projects []project.Project
	Err      error
}

// Do performs the blocking directory call.
func (f *Fetch) Do(ctx context.Context) Result {
	projects, err := f.dir.List(ctx)
	return Result{Seq: f.seq, Projects: projects, Err: err}
}

// Mount issues the initial fetch. Returns nil when the switcher is Hidden.
func (s *Switcher) Mount() *Fetch {
	if s.userID == "" || s.active == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.beginLocked()
}

// Open shows the picker and issues a refetch. Opening needs only an
// identity; without one the picker stays closed and nil is returned.
func (s *Switcher) Open() *Fetch {
	if s.userID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = true
	return s.beginLocked()
}

func (s *Switcher) beginLocked() *Fetch {
	s.issued++
	s.fetches++
	return &Fetch{seq: s.issued, dir: s.dir}
}

// Settle applies a fetch result and reports whether it replaced the cache.
// Any settle clears Loading. Only the latest issued fetch may write the
// cache, and a failed fetch leaves the previous cache in place.
func (s *Switcher) Settle(ctx context.Context, r Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loading = false
	s.metrics.FetchSettled(r.Err)

	if r.Seq != s.issued {
		s.metrics.FetchDiscarded()
		s.logger.Debug(ctx, "stale directory fetch discarded",
			zap.Uint64("seq", r.Seq), zap.Uint64("latest", s.issued))
		return false
	}
	if r.Err != nil {
		s.logger.Warn(ctx, "directory fetch failed, keeping cached projects",
			zap.Error(r.Err), zap.Int("cached", len(s.cache)))
		return false
	}

	s.cache = append([]project.Project(nil), r.Projects...)
	s.logger.Debug(ctx, "project list replaced", zap.Int("count", len(s.cache)))
	return true
}

// Refresh runs a full fetch synchronously.
func (s *Switcher) Refresh(ctx context.Context) error {
	if s.userID == "" {
		return nil
	}
	s.mu.Lock()
	f := s.beginLocked()
	s.mu.Unlock()

	r := f.Do(ctx)
	s.Settle(ctx, r)
	return r.Err
}

// Close hides the picker. The query is kept.
func (s *Switcher) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
}

// Select clears the query, closes the picker and navigates to id.
func (s *Switcher) Select(id string) error {
	s.mu.Lock()
	p, ok := find(s.cache, id)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownProject, id)
	}
	s.query = ""
	s.open = false
	s.mu.Unlock()

	if s.nav != nil {
		s.nav.GoTo(p.Location())
	}
	return nil
}

// SetQuery replaces the filter text.
func (s *Switcher) SetQuery(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = q
}

func (s *Switcher) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Filtered returns the cached projects matching the current query.
func (s *Switcher) Filtered() []project.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Filter(s.cache, s.query)
}

// Projects returns a copy of the cache.
func (s *Switcher) Projects() []project.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]project.Project(nil), s.cache...)
}

// Current returns the active project if it is cached.
func (s *Switcher) Current() (project.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return find(s.cache, s.active)
}

// Label is the picker button text.
func (s *Switcher) Label() string {
	if p, ok := s.Current(); ok {
		return p.Name
	}
	return Placeholder
}

func (s *Switcher) State() State {
	if s.userID == "" || s.active == "" {
		return Hidden
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading {
		return Loading
	}
	return Idle
}

func (s *Switcher) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// FetchCount returns how many fetches have been issued.
func (s *Switcher) FetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

// ActiveID returns the active project id.
func (s *Switcher) ActiveID() string { return s.active }

// Filter returns the projects whose name contains query, ignoring case.
// An empty query returns every project. The input is not modified.
func Filter(projects []project.Project, query string) []project.Project {
	q := strings.ToLower(query)
	out := make([]project.Project, 0, len(projects))
	for _, p := range projects {
		if strings.Contains(strings.ToLower(p.Name), q) {
			out = append(out, p)
		}
	}
	return out
}

func find(projects []project.Project, id string) (project.Project, bool) {
	if id == "" {
		return project.Project{}, false
	}
	for _, p := range projects {
		if p.ID == id {
			return p, true
		}
	}
	return project.Project{}, false
}

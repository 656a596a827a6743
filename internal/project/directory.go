package project

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Directory lists and creates projects on behalf of the signed-in user.
type Directory interface {
	// List returns every project visible to the user.
	List(ctx context.Context) ([]Project, error)

	// Create creates a new project from spec.
	Create(ctx context.Context, spec CreateSpec) (*Project, error)
}

// MemoryDirectory implements Directory with in-memory storage.
type MemoryDirectory struct {
	mu       sync.RWMutex
	projects map[string]*stored
	limit    int
	now      func() time.Time
}

type stored struct {
	project  Project
	messages []Message
	data     map[string]any
}

// MemoryOption configures a MemoryDirectory.
type MemoryOption func(*MemoryDirectory)

// WithLimit caps the number of projects; creations past the cap are rejected.
func WithLimit(n int) MemoryOption {
	return func(d *MemoryDirectory) { d.limit = n }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) MemoryOption {
	return func(d *MemoryDirectory) { d.now = now }
}

// NewMemoryDirectory creates an empty in-memory directory.
func NewMemoryDirectory(opts ...MemoryOption) *MemoryDirectory {
	d := &MemoryDirectory{
		projects: make(map[string]*stored),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Create stores a new project with a generated UUID.
func (d *MemoryDirectory) Create(ctx context.Context, spec CreateSpec) (*Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if spec.Name == "" {
		return nil, fmt.Errorf("%w: %v", ErrCreateRejected, ErrEmptyProjectName)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.limit > 0 && len(d.projects) >= d.limit {
		return nil, fmt.Errorf("%w: project limit of %d reached", ErrCreateRejected, d.limit)
	}

	now := d.now()
	p := Project{
		ID:        uuid.New().String(),
		Name:      spec.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	d.projects[p.ID] = &stored{
		project:  p,
		messages: append([]Message(nil), spec.Messages...),
		data:     spec.Data,
	}

	return &p, nil
}

// Put inserts or replaces a project as-is. Used to seed fixtures.
func (d *MemoryDirectory) Put(p Project) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.projects[p.ID] = &stored{project: p, data: map[string]any{}}
}

// List returns all projects, most recently updated first.
func (d *MemoryDirectory) List(ctx context.Context) ([]Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	projects := make([]Project, 0, len(d.projects))
	for _, s := range d.projects {
		projects = append(projects, s.project)
	}
	sort.SliceStable(projects, func(i, j int) bool {
		if projects[i].UpdatedAt.Equal(projects[j].UpdatedAt) {
			return projects[i].ID < projects[j].ID
		}
		return projects[i].UpdatedAt.After(projects[j].UpdatedAt)
	})

	return projects, nil
}

// Len returns the number of stored projects.
func (d *MemoryDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.projects)
}

// Navigator moves the environment to a location such as Project.Location().
// Calls are fire-and-forget.
type Navigator interface {
	GoTo(location string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(location string)

func (f NavigatorFunc) GoTo(location string) { f(location) }

package project

import (
	"errors"
	"fmt"
	"time"
)

// Common errors.
var (
	ErrDirectoryUnavailable = errors.New("project directory unavailable")
	ErrCreateRejected       = errors.New("project creation rejected")
	ErrEmptyProjectID       = errors.New("project ID cannot be empty")
	ErrEmptyProjectName     = errors.New("project name cannot be empty")
	ErrMissingTimestamps    = errors.New("project timestamps are missing")
)

// Project is a design project as listed by the directory.
type Project struct {
	// ID is the unique project identifier.
	ID string `json:"id"`

	// Name is the human-readable project name. Not guaranteed unique.
	Name string `json:"name"`

	// CreatedAt is when the project was created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is when the project was last modified.
	UpdatedAt time.Time `json:"updatedAt"`
}

// Location returns the navigation target for the project.
func (p Project) Location() string {
	return "/" + p.ID
}

// Validate checks that the record has the required shape.
func (p *Project) Validate() error {
	if p.ID == "" {
		return ErrEmptyProjectID
	}
	if p.Name == "" {
		return fmt.Errorf("%w: project %s", ErrEmptyProjectName, p.ID)
	}
	if p.CreatedAt.IsZero() || p.UpdatedAt.IsZero() {
		return fmt.Errorf("%w: project %s", ErrMissingTimestamps, p.ID)
	}
	return nil
}

// ValidateAll validates every record of a listing and returns the first
// failure annotated with its position.
func ValidateAll(projects []Project) error {
	for i := range projects {
		if err := projects[i].Validate(); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return nil
}

// Message is one chat message attached to a new project.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CreateSpec describes a project to create.
type CreateSpec struct {
	Name     string         `json:"name"`
	Messages []Message      `json:"messages"`
	Data     map[string]any `json:"data"`
}

// NewCreateSpec returns a spec with the given name, an empty message history
// and an empty data payload.
func NewCreateSpec(name string) CreateSpec {
	return CreateSpec{
		Name:     name,
		Messages: []Message{},
		Data:     map[string]any{},
	}
}

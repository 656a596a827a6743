package project

import (
	"errors"
	"testing"
	"time"
)

func TestProject_Validate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		project Project
		wantErr error
	}{
		{
			name:    "valid project",
			project: Project{ID: "a", Name: "Alpha", CreatedAt: now, UpdatedAt: now},
		},
		{
			name:    "empty ID",
			project: Project{Name: "Alpha", CreatedAt: now, UpdatedAt: now},
			wantErr: ErrEmptyProjectID,
		},
		{
			name:    "empty name",
			project: Project{ID: "a", CreatedAt: now, UpdatedAt: now},
			wantErr: ErrEmptyProjectName,
		},
		{
			name:    "missing created at",
			project: Project{ID: "a", Name: "Alpha", UpdatedAt: now},
			wantErr: ErrMissingTimestamps,
		},
		{
			name:    "missing updated at",
			project: Project{ID: "a", Name: "Alpha", CreatedAt: now},
			wantErr: ErrMissingTimestamps,
		},
		{
			// Clock skew on the directory side is not a shape error.
			name:    "updated before created",
			project: Project{ID: "a", Name: "Alpha", CreatedAt: now, UpdatedAt: now.Add(-time.Hour)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.project.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateAll(t *testing.T) {
	now := time.Now()
	good := Project{ID: "a", Name: "Alpha", CreatedAt: now, UpdatedAt: now}

	if err := ValidateAll([]Project{good, good}); err != nil {
		t.Errorf("ValidateAll() error = %v, want nil", err)
	}

	err := ValidateAll([]Project{good, {ID: "b"}})
	if !errors.Is(err, ErrEmptyProjectName) {
		t.Fatalf("ValidateAll() error = %v, want ErrEmptyProjectName", err)
	}
	if got := err.Error(); got[:7] != "entry 1" {
		t.Errorf("ValidateAll() error = %q, want entry 1 prefix", got)
	}
}

func TestProject_Location(t *testing.T) {
	p := Project{ID: "550e8400"}
	if got := p.Location(); got != "/550e8400" {
		t.Errorf("Location() = %q, want /550e8400", got)
	}
}

func TestNewCreateSpec(t *testing.T) {
	spec := NewCreateSpec("Design #42")

	if spec.Name != "Design #42" {
		t.Errorf("spec.Name = %q, want Design #42", spec.Name)
	}
	if spec.Messages == nil || len(spec.Messages) != 0 {
		t.Errorf("spec.Messages = %v, want empty non-nil slice", spec.Messages)
	}
	if spec.Data == nil || len(spec.Data) != 0 {
		t.Errorf("spec.Data = %v, want empty non-nil map", spec.Data)
	}
}

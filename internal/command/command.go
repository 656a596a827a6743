// Package command is the closed action registry behind the command palette
// and its global accelerator.
package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ID names a registered action.
type ID string

const (
	ClearAll ID = "clear-all"
	Download ID = "download"
)

// Palette copy.
const (
	Placeholder = "Type a command or search..."
	Heading     = "Actions"
	EmptyState  = "No results found."
)

// ErrUnknownCommand is returned for ids outside the registry.
var ErrUnknownCommand = errors.New("unknown command")

// Item is one palette entry.
type Item struct {
	ID    ID
	Title string
}

var registry = []Item{
	{ID: ClearAll, Title: "Clear All Files"},
	{ID: Download, Title: "Download as ZIP"},
}

// Items returns the registry in display order.
func Items() []Item {
	return append([]Item(nil), registry...)
}

// Search returns the items whose title contains query, ignoring case.
func Search(query string) []Item {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Item, 0, len(registry))
	for _, it := range registry {
		if strings.Contains(strings.ToLower(it.Title), q) {
			out = append(out, it)
		}
	}
	return out
}

// Surface is the modal state the router drives.
type Surface interface {
	OpenPalette()
	ClosePalette()
}

// Actions are the handlers shared with the toolbar buttons.
type Actions interface {
	RequestClear() error
	Download(ctx context.Context) error
}

// Router dispatches commands and owns the accelerator registration.
type Router struct {
	surface Surface
	actions Actions

	mu     sync.Mutex
	remove func()
}

// NewRouter creates a router.
func NewRouter(surface Surface, actions Actions) *Router {
	return &Router{surface: surface, actions: actions}
}

// Invoke runs a command the way a toolbar button does.
func (r *Router) Invoke(ctx context.Context, id ID) error {
	switch id {
	case ClearAll:
		return r.actions.RequestClear()
	case Download:
		return r.actions.Download(ctx)
	}
	return fmt.Errorf("%w: %q", ErrUnknownCommand, id)
}

// InvokeFromPalette closes the palette, then runs the command. The palette
// is closed before the confirmation opens or the export starts.
func (r *Router) InvokeFromPalette(ctx context.Context, id ID) error {
	if id != ClearAll && id != Download {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, id)
	}
	r.surface.ClosePalette()
	return r.Invoke(ctx, id)
}

// Install registers the accelerator on d. Repeated calls are no-ops until
// Uninstall.
func (r *Router) Install(d *Dispatcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.remove != nil {
		return
	}
	r.remove = d.Add(func(e *KeyEvent) {
		if !IsAccelerator(e) {
			return
		}
		e.PreventDefault()
		r.surface.OpenPalette()
	})
}

// Uninstall removes the accelerator. Safe to call when not installed.
func (r *Router) Uninstall() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.remove != nil {
		r.remove()
		r.remove = nil
	}
}

// Installed reports whether the accelerator is registered.
func (r *Router) Installed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remove != nil
}

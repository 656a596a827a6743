package command

import (
	"strings"
	"sync"
)

// KeyEvent is a key press delivered to every listener before the focused
// widget sees it.
type KeyEvent struct {
	Key   string
	Ctrl  bool
	Meta  bool
	Alt   bool
	Shift bool

	prevented bool
}

// PreventDefault stops the host's default handling of the event.
func (e *KeyEvent) PreventDefault() { e.prevented = true }

// DefaultPrevented reports whether a listener called PreventDefault.
func (e *KeyEvent) DefaultPrevented() bool { return e.prevented }

// IsAccelerator reports whether e is the palette shortcut: the platform
// primary modifier (ctrl or meta) plus k.
func IsAccelerator(e *KeyEvent) bool {
	return (e.Ctrl || e.Meta) && !e.Alt && strings.EqualFold(e.Key, "k")
}

// Listener handles a key event.
type Listener func(*KeyEvent)

// Dispatcher fans key events out to registered listeners in registration
// order. It plays the role of the window.
type Dispatcher struct {
	mu        sync.Mutex
	next      int
	listeners map[int]Listener
	order     []int
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{listeners: make(map[int]Listener)}
}

// Add registers l and returns a function that removes it. The remover is
// idempotent.
func (d *Dispatcher) Add(l Listener) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.next
	d.next++
	d.listeners[id] = l
	d.order = append(d.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			delete(d.listeners, id)
			for i, v := range d.order {
				if v == id {
					d.order = append(d.order[:i], d.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Dispatch delivers e to every listener and reports whether the default
// action was prevented.
func (d *Dispatcher) Dispatch(e *KeyEvent) bool {
	d.mu.Lock()
	ls := make([]Listener, 0, len(d.order))
	for _, id := range d.order {
		ls = append(ls, d.listeners[id])
	}
	d.mu.Unlock()

	for _, l := range ls {
		l(e)
	}
	return e.DefaultPrevented()
}

// Len returns the number of registered listeners.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.order)
}

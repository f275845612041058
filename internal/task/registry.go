package task

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Factory builds a task. Factories take no arguments so a task can be
// selected by name alone.
type Factory func() (*Task, error)

// UnknownTaskError is returned when no factory is registered under Name.
type UnknownTaskError struct {
	Name  string
	Known []string
}

func (e *UnknownTaskError) Error() string {
	return fmt.Sprintf("unknown task %q (registered: %v)", e.Name, e.Known)
}

// IsUnknownTask reports whether err is (or wraps) an UnknownTaskError.
func IsUnknownTask(err error) bool {
	var ue *UnknownTaskError
	return errors.As(err, &ue)
}

// Registry maps task names to factories. Safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory. Names must be unique.
func (r *Registry) Register(name string, f Factory) error {
	if name == "" {
		return fmt.Errorf("task name is required")
	}
	if f == nil {
		return fmt.Errorf("task %s: nil factory", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.factories[name]; dup {
		return fmt.Errorf("task %s already registered", name)
	}
	r.factories[name] = f
	return nil
}

// MustRegister is Register for package initialization.
func (r *Registry) MustRegister(name string, f Factory) {
	if err := r.Register(name, f); err != nil {
		panic(err)
	}
}

// Lookup returns the factory registered under name.
func (r *Registry) Lookup(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

// Build runs the factory registered under name.
func (r *Registry) Build(name string) (*Task, error) {
	f, ok := r.Lookup(name)
	if !ok {
		return nil, &UnknownTaskError{Name: name, Known: r.Names()}
	}
	t, err := f()
	if err != nil {
		return nil, fmt.Errorf("build task %s: %w", name, err)
	}
	return t, nil
}

// Names returns registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default is the process-wide registry.
var Default = NewRegistry()

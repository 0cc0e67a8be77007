package toolexecutor

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

var (
	// ErrDuplicateTool is returned when a name is registered twice
	ErrDuplicateTool = errors.New("tool already registered")
	// ErrToolNotFound is returned by Lookup for unknown names
	ErrToolNotFound = errors.New("tool not found")
)

// Registry holds tool descriptors in registration order
type Registry struct {
	tools map[string]*ToolDescriptor
	order []string
	mu    sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*ToolDescriptor),
	}
}

// Register adds a tool. The descriptor is copied; later changes to the
// argument have no effect.
func (r *Registry) Register(desc ToolDescriptor) error {
	if err := validateDescriptor(desc); err != nil {
		return fmt.Errorf("invalid tool definition: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[desc.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, desc.Name)
	}
	r.tools[desc.Name] = &desc
	r.order = append(r.order, desc.Name)

	log.Debug().Str("tool", desc.Name).Msg("Tool registered")
	return nil
}

// MustRegister is Register that panics, for startup wiring
func (r *Registry) MustRegister(descs ...ToolDescriptor) {
	for _, d := range descs {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
}

// Lookup returns the descriptor registered under name
func (r *Registry) Lookup(name string) (ToolDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	desc, ok := r.tools[name]
	if !ok {
		return ToolDescriptor{}, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return *desc, nil
}

// List returns all descriptors in registration order
func (r *Registry) List() []ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ToolDescriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, *r.tools[name])
	}
	return out
}

// Len returns the number of registered tools
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func validateDescriptor(desc ToolDescriptor) error {
	if desc.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if desc.Description == "" {
		return fmt.Errorf("tool description cannot be empty")
	}
	if desc.Handler == nil {
		return fmt.Errorf("tool handler cannot be nil")
	}
	if desc.Schema == nil {
		return fmt.Errorf("tool schema cannot be nil for %s", desc.Name)
	}
	return nil
}

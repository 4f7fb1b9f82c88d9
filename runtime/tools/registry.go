package tools

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the tools the model may call.
type Registry struct {
	mu        sync.RWMutex
	tools     map[string]*ToolDescriptor
	validator *SchemaValidator
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:     make(map[string]*ToolDescriptor),
		validator: NewSchemaValidator(),
	}
}

// NewDefaultRegistry creates a registry holding the built-in coaching tools.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	if err := r.Register(ShowInsight()); err != nil {
		panic(err) // built-in descriptor
	}
	return r
}

// Register adds a descriptor after checking its required fields and schema.
func (r *Registry) Register(descriptor *ToolDescriptor) error {
	switch {
	case descriptor == nil || descriptor.Name == "":
		return ErrToolNameRequired
	case descriptor.Description == "":
		return ErrToolDescriptionRequired
	case len(descriptor.InputSchema) == 0:
		return ErrInputSchemaRequired
	}
	if _, err := r.validator.Compile(descriptor.InputSchema); err != nil {
		return fmt.Errorf("invalid input schema for tool %s: %w", descriptor.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[descriptor.Name] = descriptor
	return nil
}

// Get retrieves a tool descriptor by name, or nil.
func (r *Registry) Get(name string) *ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// List returns the registered tool names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Descriptors returns every descriptor ordered by name.
func (r *Registry) Descriptors() []*ToolDescriptor {
	names := r.List()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*ToolDescriptor, 0, len(names))
	for _, name := range names {
		out = append(out, r.tools[name])
	}
	return out
}

// Resolve looks up the tool named by call and validates its arguments.
// It returns ErrToolNotFound (wrapped) for unknown names and a
// *ValidationError for bad arguments.
func (r *Registry) Resolve(call *ToolCall) (*ToolDescriptor, error) {
	descriptor := r.Get(call.Name)
	if descriptor == nil {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, call.Name)
	}
	if err := r.validator.ValidateArgs(descriptor, call.Args); err != nil {
		return nil, err
	}
	return descriptor, nil
}

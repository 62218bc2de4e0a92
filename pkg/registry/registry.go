// Package registry manages the tools available to scripts and workers.
package registry

import (
	"sort"
	"sync"

	"github.com/aretw0/skein/pkg/domain"
	"github.com/aretw0/skein/pkg/ports"
)

// Registry maps tool names to implementations. Script statements resolve
// their tool references here at construction time, so an unknown name
// fails before any execution begins.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]ports.Tool
}

// New creates a new empty registry.
func New() *Registry {
	return &Registry{
		tools: make(map[string]ports.Tool),
	}
}

// Register adds a tool to the registry.
// If a tool with the same name exists, it is overwritten.
func (r *Registry) Register(tool ports.Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = tool
}

// Resolve looks a tool up by name. An unknown name is a
// *domain.UnknownToolError listing every registered tool.
func (r *Registry) Resolve(name string) (ports.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	if !ok {
		return nil, &domain.UnknownToolError{Name: name, Known: r.namesLocked()}
	}
	return tool, nil
}

// Lookup is Resolve without the error, for callers that handle absence
// themselves.
func (r *Registry) Lookup(name string) (ports.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

// Tools returns the registered tools sorted by name.
func (r *Registry) Tools() []ports.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ports.Tool, 0, len(r.tools))
	for _, name := range r.namesLocked() {
		out = append(out, r.tools[name])
	}
	return out
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

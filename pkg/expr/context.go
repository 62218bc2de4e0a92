package expr

import (
	"os"
	"os/user"
	"runtime"
	"sort"
	"time"

	"github.com/aretw0/skein/pkg/domain"
)

// fixedNames are language constants resolved before any scope lookup.
var fixedNames = map[string]any{
	"true":  true,
	"True":  true,
	"false": false,
	"False": false,
	"none":  nil,
	"None":  nil,
	"null":  nil,
}

// Context is a chained variable scope for template evaluation. Lookups walk
// from the local scope to the root; additions always land in the local
// scope and fail if it has been frozen.
//
// A Context is mutated only by the single logical execution thread that
// owns it and must not be shared across concurrent executions.
type Context struct {
	vars    map[string]any
	parent  *Context
	mutable bool
}

// NewContext creates a mutable root scope over the given bindings. A nil
// map is replaced by an empty one.
func NewContext(vars map[string]any) *Context {
	if vars == nil {
		vars = make(map[string]any)
	}
	return &Context{vars: vars, mutable: true}
}

// Child creates a mutable scope chained under c, seeded with the given
// bindings.
func (c *Context) Child(vars map[string]any) *Context {
	child := NewContext(vars)
	child.parent = c
	return child
}

// Freeze marks the local scope immutable and returns c. Root scopes shared
// across invocations are frozen after their one-time construction so no
// accidental cross-invocation leakage is possible.
func (c *Context) Freeze() *Context {
	c.mutable = false
	return c
}

// Get looks a name up: fixed constants first, then the local scope, then
// ancestors. The second result reports whether the name was found.
func (c *Context) Get(name string) (any, bool) {
	if v, ok := fixedNames[name]; ok {
		return v, true
	}
	for scope := c; scope != nil; scope = scope.parent {
		if v, ok := scope.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Resolve looks a name up like Get, but an absent name is an error
// enumerating every currently visible name.
func (c *Context) Resolve(name string) (any, error) {
	if v, ok := c.Get(name); ok {
		return v, nil
	}
	return nil, &UndefinedNameError{Name: name, Visible: c.KnownNames()}
}

// Add binds a name in the local scope. Frozen contexts reject additions.
func (c *Context) Add(name string, value any) error {
	if !c.mutable {
		return domain.ErrImmutableContext
	}
	c.vars[name] = value
	return nil
}

// KnownNames returns every name visible from this scope, sorted.
func (c *Context) KnownNames() []string {
	seen := make(map[string]bool)
	for scope := c; scope != nil; scope = scope.parent {
		for name := range scope.vars {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultEnvironment returns the ambient bindings seeded into a script's
// frozen root scope.
func DefaultEnvironment() map[string]any {
	username := ""
	if u, err := user.Current(); err == nil {
		username = u.Username
	}
	workDir, _ := os.Getwd()
	return map[string]any{
		"UserName":    username,
		"OS":          runtime.GOOS,
		"CurrentDate": time.Now().Format("2006-01-02"),
		"WorkDir":     workDir,
	}
}

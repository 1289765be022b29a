package job

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
)

// HandlerFunc is an in-process job action. Anything written to stdout is
// captured by the executor; only a literal `true` return value counts as
// success. A returned error or a panic is folded into the effective return
// value as its message.
type HandlerFunc func(ctx context.Context, stdout io.Writer) (any, error)

// Registry maps handler names to functions. Handler actions carry only the
// name, so the single-job worker process resolves the function here after
// re-registering the same handlers the parent did.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

func NewRegistry() *Registry {
	return &Registry{handlers: map[string]HandlerFunc{}}
}

// Register adds a named handler. Re-registering a name is a programming
// error and fails loudly.
func (r *Registry) Register(name string, fn HandlerFunc) error {
	if name == "" {
		return fmt.Errorf("handler name is empty")
	}
	if fn == nil {
		return fmt.Errorf("handler %q is nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handlers[name]; ok {
		return fmt.Errorf("handler %q already registered", name)
	}
	r.handlers[name] = fn
	return nil
}

func (r *Registry) Lookup(name string) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.handlers[name]
	return fn, ok
}

// Names returns registered handler names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// DefaultRegistry is used by programs that register handlers at init time.
var DefaultRegistry = NewRegistry()

// Register adds a handler to DefaultRegistry, panicking on conflicts so
// registration bugs surface at startup and not mid-run.
func Register(name string, fn HandlerFunc) {
	if err := DefaultRegistry.Register(name, fn); err != nil {
		panic(err)
	}
}

package analyzer

import (
	"fmt"
	"sort"
)

// Factory builds one configured analyzer instance.
type Factory func() Analyzer

// Registry maps metric names to analyzer factories. The orchestrator never
// imports concrete analyzers; it asks the registry to build the enabled set.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register binds a metric name to a factory, replacing any previous binding.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// Names returns the registered metric names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Build constructs one analyzer per enabled metric name, preserving order.
// An enabled name with no registered factory fails fast with
// ErrUnknownMetric so config typos are caught at startup.
func (r *Registry) Build(enabled []string) ([]Analyzer, error) {
	analyzers := make([]Analyzer, 0, len(enabled))
	for _, name := range enabled {
		f, ok := r.factories[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
		}
		analyzers = append(analyzers, f())
	}
	return analyzers, nil
}

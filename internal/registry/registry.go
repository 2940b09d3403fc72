package registry

import (
	"context"
	"sort"

	"github.com/vk/patterngridgo/internal/config"
	"github.com/vk/patterngridgo/internal/ctxlog"
)

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// ManifestProvider is implemented by modules that carry an embedded
// manifest alongside their Go handlers. The filename is used only for
// diagnostics.
type ManifestProvider interface {
	Manifest() (filename string, src []byte)
}

// Registry holds all the registered handlers and modifier definitions for a
// single application instance. It is populated once at startup and
// read-only thereafter; the evaluator receives it by reference.
type Registry struct {
	HandlerRegistry    map[string]*RegisteredModifier
	DefinitionRegistry map[string]*config.ModifierDefinition
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		HandlerRegistry:    make(map[string]*RegisteredModifier),
		DefinitionRegistry: make(map[string]*config.ModifierDefinition),
	}
}

// PopulateDefinitionsFromModel copies the loaded modifier definitions from
// the config model into the registry. Re-registration of a type name is
// last-write-wins, surfaced at Warn so override manifests are visible in
// the logs.
func (r *Registry) PopulateDefinitionsFromModel(ctx context.Context, model *config.Model) {
	logger := ctxlog.FromContext(ctx)
	for name, def := range model.Modifiers {
		if _, exists := r.DefinitionRegistry[name]; exists {
			logger.Warn("Modifier definition replaced by a later registration.", "modifier", name)
		}
		r.DefinitionRegistry[name] = def
	}
}

// Definition returns the manifest definition for a modifier type name.
func (r *Registry) Definition(name string) (*config.ModifierDefinition, bool) {
	def, ok := r.DefinitionRegistry[name]
	return def, ok
}

// DefinitionNames returns every registered modifier type name in lexical
// order.
func (r *Registry) DefinitionNames() []string {
	names := make([]string, 0, len(r.DefinitionRegistry))
	for name := range r.DefinitionRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Handler returns the registered Go handler for a lifecycle handler name.
func (r *Registry) Handler(name string) (*RegisteredModifier, bool) {
	h, ok := r.HandlerRegistry[name]
	return h, ok
}

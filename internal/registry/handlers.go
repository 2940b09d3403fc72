package registry

import (
	"fmt"
	"log/slog"
	"reflect"
)

// RegisteredModifier holds the compiled Go parts of a modifier's apply
// lifecycle: a params-struct factory, the params type for validation, and
// the handler function itself.
type RegisteredModifier struct {
	NewParams  func() any
	ParamsType reflect.Type
	Fn         any
}

// RegisterModifier registers a Go function for a modifier's apply event.
// Registering the same handler name twice is a programmer error and panics.
func (r *Registry) RegisterModifier(name string, handler *RegisteredModifier) {
	if _, exists := r.HandlerRegistry[name]; exists {
		panic(fmt.Sprintf("modifier handler with name '%s' already registered", name))
	}
	slog.Debug("Registering modifier handler.", "name", name)
	r.HandlerRegistry[name] = handler
}

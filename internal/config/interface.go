package config

import (
	"context"

	"github.com/zclconf/go-cty/cty"
)

// Loader is the interface for a format-specific manifest loader.
type Loader interface {
	// Load reads manifests from the given paths (files or directories),
	// translates them into the format-agnostic model, and returns a
	// matching Converter.
	Load(ctx context.Context, paths ...string) (*Model, Converter, error)

	// LoadBytes translates a single in-memory manifest, such as one
	// embedded in a modifier package. The filename is used only for
	// diagnostics.
	LoadBytes(ctx context.Context, filename string, src []byte) (*Model, Converter, error)
}

// Converter is the interface for a format-specific data binding and type
// conversion implementation. It acts as the bridge between a node's raw
// parameter values and the Go structs used by modifier handlers.
type Converter interface {
	// DecodeParams populates a target Go struct from a node's parameter
	// set, applying manifest defaults and range checks along the way.
	DecodeParams(
		ctx context.Context,
		target any,
		params map[string]cty.Value,
		defs map[string]*ParamDefinition,
	) error

	// ToCtyValue converts a native Go value into its equivalent cty.Value
	// for the engine's internal use.
	ToCtyValue(v any) (cty.Value, error)
}

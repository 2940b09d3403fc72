package config

import (
	"github.com/zclconf/go-cty/cty"
)

// ModifierKey is the reserved key under which a node's parameter set carries
// the modifier type name. Default parameter sets always include it, and
// parameter validation passes it through untouched.
const ModifierKey = "modifier"

// Model is the unified, format-agnostic representation of the full modifier
// catalogue assembled from every loaded manifest.
type Model struct {
	Modifiers map[string]*ModifierDefinition
}

// NewModel creates an empty catalogue model.
func NewModel() *Model {
	return &Model{Modifiers: make(map[string]*ModifierDefinition)}
}

// Merge folds the other model into this one. Name collisions are
// last-write-wins; the caller decides whether a collision deserves a
// diagnostic.
func (m *Model) Merge(other *Model) []string {
	var replaced []string
	for name, def := range other.Modifiers {
		if _, exists := m.Modifiers[name]; exists {
			replaced = append(replaced, name)
		}
		m.Modifiers[name] = def
	}
	return replaced
}

// --- Modifier Manifest Models ---

// ModifierDefinition is the format-agnostic representation of a modifier's
// manifest: its input shape and its parameter schema.
type ModifierDefinition struct {
	Type        string
	Description string
	Lifecycle   *Lifecycle
	Positional  *PositionalDefinition
	Inputs      map[string]*InputDefinition
	Params      map[string]*ParamDefinition
}

// Lifecycle maps a modifier's apply event to a Go handler name.
type Lifecycle struct {
	OnApply string
}

// PositionalDefinition describes a modifier's ordered variadic input slot
// list. A modifier declares at most one.
type PositionalDefinition struct {
	MinCount int
	Label    string
}

// InputDefinition defines a single keyword input port for a modifier.
type InputDefinition struct {
	Key      string
	Label    string
	Required bool
}

// ParamDefinition defines a single parameter of a modifier, including the
// editor-facing metadata (label, unit, step) the manifest carries alongside
// the validation schema.
type ParamDefinition struct {
	Name        string
	Kind        ParamKind
	Type        cty.Type
	Default     *cty.Value
	Nullable    bool
	Min         *cty.Value
	Max         *cty.Value
	Step        *cty.Value
	Unit        string
	Label       string
	Description string
}

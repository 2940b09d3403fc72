package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// --- Modifier Manifest Schemas ---

// Lifecycle defines the mapping from a modifier's apply event to a
// registered Go handler function.
type Lifecycle struct {
	OnApply string `hcl:"on_apply"`
}

// PositionalDefinition declares a modifier's variadic ordered input slots.
// A manifest declares at most one positional block.
type PositionalDefinition struct {
	MinCount int    `hcl:"min_count"`
	Label    string `hcl:"label,optional"`
}

// InputDefinition defines a single keyword input port for a modifier.
type InputDefinition struct {
	Key      string `hcl:"key,label"`
	Label    string `hcl:"label,optional"`
	Required bool   `hcl:"required,optional"`
}

// ParamDefinition defines a single parameter of a modifier. Type is a bare
// keyword expression (int, number, bool, string, rational); default, min,
// max, and step are expressions so that rational literals ("1/4") and null
// defaults survive until translation decides how to interpret them.
type ParamDefinition struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type"`
	Default     hcl.Expression `hcl:"default,optional"`
	Nullable    bool           `hcl:"nullable,optional"`
	Min         hcl.Expression `hcl:"min,optional"`
	Max         hcl.Expression `hcl:"max,optional"`
	Step        hcl.Expression `hcl:"step,optional"`
	Unit        string         `hcl:"unit,optional"`
	Label       string         `hcl:"label,optional"`
	Description string         `hcl:"description,optional"`
}

// ModifierDefinition represents the HCL manifest for a `modifier` type.
type ModifierDefinition struct {
	Type        string                `hcl:"type,label"`
	Description string                `hcl:"description,optional"`
	Lifecycle   *Lifecycle            `hcl:"lifecycle,block"`
	Positional  *PositionalDefinition `hcl:"positional,block"`
	Inputs      []*InputDefinition    `hcl:"input,block"`
	Params      []*ParamDefinition    `hcl:"param,block"`
}

// DefinitionConfig represents the top-level structure of a manifest file.
type DefinitionConfig struct {
	Modifiers []*ModifierDefinition `hcl:"modifier,block"`
	Body      hcl.Body              `hcl:",remain"`
}

// This file contains the logic for translating HCL schema structs into the
// format-agnostic catalogue model defined in the config package.

package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/patterngridgo/internal/config"
	"github.com/vk/patterngridgo/internal/rational"
	"github.com/vk/patterngridgo/internal/schema"
)

// translateModifierDefinition converts the HCL-specific modifier schema into
// the agnostic model, validating the parameter schema along the way.
func (l *Loader) translateModifierDefinition(ctx context.Context, s *schema.ModifierDefinition) (*config.ModifierDefinition, error) {
	def := &config.ModifierDefinition{
		Type:        s.Type,
		Description: s.Description,
		Inputs:      make(map[string]*config.InputDefinition),
		Params:      make(map[string]*config.ParamDefinition),
	}
	if s.Lifecycle != nil {
		def.Lifecycle = &config.Lifecycle{OnApply: s.Lifecycle.OnApply}
	}
	if s.Positional != nil {
		if s.Positional.MinCount < 0 {
			return nil, fmt.Errorf("modifier %q: positional min_count cannot be negative", s.Type)
		}
		def.Positional = &config.PositionalDefinition{
			MinCount: s.Positional.MinCount,
			Label:    s.Positional.Label,
		}
	}

	for _, in := range s.Inputs {
		if _, dup := def.Inputs[in.Key]; dup {
			return nil, fmt.Errorf("modifier %q: duplicate input key %q", s.Type, in.Key)
		}
		def.Inputs[in.Key] = &config.InputDefinition{
			Key:      in.Key,
			Label:    in.Label,
			Required: in.Required,
		}
	}

	for _, p := range s.Params {
		translated, err := translateParamDefinition(ctx, p, s.Type)
		if err != nil {
			return nil, err
		}
		if _, dup := def.Params[p.Name]; dup {
			return nil, fmt.Errorf("modifier %q: duplicate param %q", s.Type, p.Name)
		}
		def.Params[p.Name] = translated
	}

	return def, nil
}

// translateParamDefinition is a helper that processes a single HCL param
// block, resolving its type keyword and validating its default and range
// against that type.
func translateParamDefinition(ctx context.Context, p *schema.ParamDefinition, ownerType string) (*config.ParamDefinition, error) {
	kind, err := typeExprToKind(ctx, p.Type)
	if err != nil {
		return nil, fmt.Errorf("in modifier %q, param %q: %w", ownerType, p.Name, err)
	}

	def := &config.ParamDefinition{
		Name:        p.Name,
		Kind:        kind,
		Type:        kind.CtyType(),
		Nullable:    p.Nullable,
		Unit:        p.Unit,
		Label:       p.Label,
		Description: p.Description,
	}

	def.Min, err = evalSchemaValue(p.Min, def, "min")
	if err != nil {
		return nil, fmt.Errorf("in modifier %q: %w", ownerType, err)
	}
	def.Max, err = evalSchemaValue(p.Max, def, "max")
	if err != nil {
		return nil, fmt.Errorf("in modifier %q: %w", ownerType, err)
	}
	def.Step, err = evalSchemaValue(p.Step, def, "step")
	if err != nil {
		return nil, fmt.Errorf("in modifier %q: %w", ownerType, err)
	}

	if p.Default != nil {
		val, diags := p.Default.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("in modifier %q, param %q: invalid default: %w", ownerType, p.Name, diags)
		}
		// A null default reads back as no default; the param is then
		// required at decode time unless marked nullable.
		if !val.IsNull() {
			validated, err := config.ValidateParamValue(def, val)
			if err != nil {
				return nil, fmt.Errorf("in modifier %q: invalid default: %w", ownerType, err)
			}
			def.Default = &validated
		}
	}

	return def, nil
}

// evalSchemaValue evaluates an optional schema attribute (min, max, step)
// and converts it to the param's carrier type. Rational bounds additionally
// go through a parse check at load time.
func evalSchemaValue(expr hcl.Expression, def *config.ParamDefinition, attr string) (*cty.Value, error) {
	if expr == nil {
		return nil, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("param %q: invalid %s: %w", def.Name, attr, diags)
	}
	if val.IsNull() {
		return nil, nil
	}
	converted, err := convert.Convert(val, def.Type)
	if err != nil {
		return nil, fmt.Errorf("param %q: %s must be a %s: %w", def.Name, attr, def.Type.FriendlyName(), err)
	}
	if def.Kind == config.KindRational {
		if _, err := rational.Parse(converted.AsString()); err != nil {
			return nil, fmt.Errorf("param %q: invalid %s: %w", def.Name, attr, err)
		}
	}
	return &converted, nil
}

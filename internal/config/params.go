package config

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/patterngridgo/internal/rational"
)

// ParamKind names the manifest-level type of a parameter. Rational
// parameters ride as strings ("3/16") at the cty layer and are parsed into
// exact rationals at the decode boundary.
type ParamKind string

const (
	KindInt      ParamKind = "int"
	KindNumber   ParamKind = "number"
	KindBool     ParamKind = "bool"
	KindString   ParamKind = "string"
	KindRational ParamKind = "rational"
)

// ParseKind converts a manifest type keyword into a ParamKind.
func ParseKind(s string) (ParamKind, error) {
	switch ParamKind(s) {
	case KindInt, KindNumber, KindBool, KindString, KindRational:
		return ParamKind(s), nil
	default:
		return "", fmt.Errorf("unknown parameter type %q", s)
	}
}

// CtyType returns the cty carrier type for values of this kind.
func (k ParamKind) CtyType() cty.Type {
	switch k {
	case KindInt, KindNumber:
		return cty.Number
	case KindBool:
		return cty.Bool
	case KindString, KindRational:
		return cty.String
	default:
		return cty.DynamicPseudoType
	}
}

// ValidateParamValue coerces a raw value to the parameter's carrier type
// and checks it against the schema: nullability, whole-number for int,
// parseability for rational, and the declared range. It returns the
// coerced value.
func ValidateParamValue(def *ParamDefinition, val cty.Value) (cty.Value, error) {
	if val == cty.NilVal || val.IsNull() {
		if !def.Nullable {
			return cty.NilVal, fmt.Errorf("parameter %q is not nullable", def.Name)
		}
		return cty.NullVal(def.Type), nil
	}

	converted, err := convert.Convert(val, def.Type)
	if err != nil {
		return cty.NilVal, fmt.Errorf("parameter %q: cannot convert %s to %s: %w",
			def.Name, val.Type().FriendlyName(), def.Type.FriendlyName(), err)
	}

	switch def.Kind {
	case KindInt:
		if !converted.AsBigFloat().IsInt() {
			return cty.NilVal, fmt.Errorf("parameter %q requires a whole number, got %s",
				def.Name, formatValue(converted))
		}
		if err := checkNumberRange(def, converted); err != nil {
			return cty.NilVal, err
		}
	case KindNumber:
		if err := checkNumberRange(def, converted); err != nil {
			return cty.NilVal, err
		}
	case KindRational:
		r, err := rational.Parse(converted.AsString())
		if err != nil {
			return cty.NilVal, fmt.Errorf("parameter %q: %w", def.Name, err)
		}
		if err := checkRationalRange(def, r); err != nil {
			return cty.NilVal, err
		}
	}

	return converted, nil
}

// ValidateParams validates every declared parameter present in the given
// set and returns a copy with coerced values. The modifier-name key passes
// through untouched, as do keys the definition does not declare; callers
// that care about strays can diff the input against def.Params.
func ValidateParams(def *ModifierDefinition, params map[string]cty.Value) (map[string]cty.Value, error) {
	out := make(map[string]cty.Value, len(params))
	for name, val := range params {
		if name == ModifierKey {
			out[name] = val
			continue
		}
		pd, declared := def.Params[name]
		if !declared {
			out[name] = val
			continue
		}
		validated, err := ValidateParamValue(pd, val)
		if err != nil {
			return nil, err
		}
		out[name] = validated
	}
	return out, nil
}

func checkNumberRange(def *ParamDefinition, val cty.Value) error {
	bf := val.AsBigFloat()
	if def.Min != nil && bf.Cmp(def.Min.AsBigFloat()) < 0 {
		return fmt.Errorf("parameter %q value %s is below minimum %s",
			def.Name, formatValue(val), formatValue(*def.Min))
	}
	if def.Max != nil && bf.Cmp(def.Max.AsBigFloat()) > 0 {
		return fmt.Errorf("parameter %q value %s is above maximum %s",
			def.Name, formatValue(val), formatValue(*def.Max))
	}
	return nil
}

func checkRationalRange(def *ParamDefinition, r rational.Rational) error {
	if def.Min != nil {
		min, err := rational.Parse(def.Min.AsString())
		if err != nil {
			return fmt.Errorf("parameter %q has an invalid minimum: %w", def.Name, err)
		}
		if r.Cmp(min) < 0 {
			return fmt.Errorf("parameter %q value %s is below minimum %s", def.Name, r, min)
		}
	}
	if def.Max != nil {
		max, err := rational.Parse(def.Max.AsString())
		if err != nil {
			return fmt.Errorf("parameter %q has an invalid maximum: %w", def.Name, err)
		}
		if r.Cmp(max) > 0 {
			return fmt.Errorf("parameter %q value %s is above maximum %s", def.Name, r, max)
		}
	}
	return nil
}

func formatValue(v cty.Value) string {
	switch {
	case v.Type() == cty.Number:
		return v.AsBigFloat().Text('g', 10)
	case v.Type() == cty.String:
		return v.AsString()
	case v.Type() == cty.Bool:
		return fmt.Sprintf("%t", v.True())
	default:
		return v.GoString()
	}
}

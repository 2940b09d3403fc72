package hcl

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/patterngridgo/internal/config"
	"github.com/vk/patterngridgo/internal/ctxlog"
	"github.com/vk/patterngridgo/internal/rational"
)

// Converter is the HCL-specific implementation of the config.Converter
// interface.
type Converter struct{}

// NewConverter creates a new HCL converter.
func NewConverter() *Converter {
	return &Converter{}
}

// DecodeParams validates a node's parameter values against the manifest
// schema, applies defaults, and populates the provided Go struct using
// reflection over `pgo` field tags.
func (c *Converter) DecodeParams(
	ctx context.Context,
	target any,
	params map[string]cty.Value,
	defs map[string]*config.ParamDefinition,
) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Starting parameter decoding.")

	structVal := reflect.ValueOf(target)
	if structVal.Kind() != reflect.Ptr || structVal.IsNil() {
		return fmt.Errorf("target must be a non-nil pointer")
	}
	structVal = structVal.Elem()
	structType := structVal.Type()

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		fieldVal := structVal.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		lookupName := field.Name
		if tag := field.Tag.Get("pgo"); tag != "" {
			lookupName = strings.Split(tag, ",")[0]
		}

		def, defExists := defs[lookupName]
		if !defExists {
			continue
		}

		val, provided := params[lookupName]
		if !provided || val == cty.NilVal || val.IsNull() {
			if def.Default != nil {
				val = *def.Default
			} else if def.Nullable {
				// Nullable with no default: the Go field keeps its zero
				// value (a nil pointer for *rational.Rational fields).
				continue
			} else {
				return fmt.Errorf("missing required parameter %q", lookupName)
			}
		}

		validated, err := config.ValidateParamValue(def, val)
		if err != nil {
			return err
		}

		if err := c.decodeValue(ctx, def, validated, fieldVal); err != nil {
			return fmt.Errorf("failed to decode parameter %q: %w", lookupName, err)
		}
	}

	logger.Debug("Finished parameter decoding successfully.")
	return nil
}

// decodeValue writes a validated cty value into a struct field. Rational
// fields ride as strings at the cty layer and are parsed here into exact
// values; everything else goes through the generic gocty path.
func (c *Converter) decodeValue(ctx context.Context, def *config.ParamDefinition, val cty.Value, fieldVal reflect.Value) error {
	switch fieldVal.Interface().(type) {
	case rational.Rational:
		r, err := rational.Parse(val.AsString())
		if err != nil {
			return err
		}
		fieldVal.Set(reflect.ValueOf(r))
		return nil
	case *rational.Rational:
		if val.IsNull() {
			fieldVal.Set(reflect.Zero(fieldVal.Type()))
			return nil
		}
		r, err := rational.Parse(val.AsString())
		if err != nil {
			return err
		}
		fieldVal.Set(reflect.ValueOf(&r))
		return nil
	}
	return c.decode(ctx, val, fieldVal.Addr().Interface())
}

// decode handles the conversion and decoding of a cty.Value into a Go
// pointer.
func (c *Converter) decode(ctx context.Context, val cty.Value, goVal any) error {
	logger := ctxlog.FromContext(ctx)
	valPtr := reflect.ValueOf(goVal)
	if valPtr.Kind() != reflect.Ptr {
		return fmt.Errorf("target for decoding must be a pointer, got %T", goVal)
	}

	impliedType, err := gocty.ImpliedType(valPtr.Elem().Interface())
	if err != nil {
		logger.Debug("Could not imply cty.Type from Go type, attempting direct decoding.", "go_type", valPtr.Elem().Type().String(), "error", err)
		return gocty.FromCtyValue(val, goVal)
	}

	convertedVal, err := convert.Convert(val, impliedType)
	if err != nil {
		return fmt.Errorf("cannot convert %s to required type %s: %w", val.Type().FriendlyName(), impliedType.FriendlyName(), err)
	}

	if !val.Type().Equals(convertedVal.Type()) {
		logger.Debug("Implicitly converted value type.",
			"from", val.Type().FriendlyName(),
			"to", convertedVal.Type().FriendlyName(),
		)
	}

	return gocty.FromCtyValue(convertedVal, goVal)
}

// ToCtyValue converts a native Go value into its corresponding cty.Value.
func (c *Converter) ToCtyValue(v any) (cty.Value, error) {
	if v == nil {
		return cty.NilVal, nil
	}
	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unable to infer cty.Type: %w", err)
	}
	return gocty.ToCtyValue(v, ty)
}

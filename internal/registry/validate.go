package registry

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/vk/patterngridgo/internal/config"
	"github.com/vk/patterngridgo/internal/ctxlog"
	"github.com/vk/patterngridgo/internal/rational"
)

// ValidateRegistry performs a strict parity check between manifests and Go
// code: every manifest's on_apply must resolve to a registered handler, and
// the manifest's param schema must match the handler's params struct in
// both presence and type.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	names := make([]string, 0, len(r.DefinitionRegistry))
	for name := range r.DefinitionRegistry {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, modifierType := range names {
		def := r.DefinitionRegistry[modifierType]

		if def.Lifecycle == nil || def.Lifecycle.OnApply == "" {
			errs = append(errs, fmt.Sprintf("modifier '%s': manifest declares no on_apply handler", modifierType))
			continue
		}
		handler, ok := r.HandlerRegistry[def.Lifecycle.OnApply]
		if !ok {
			errs = append(errs, fmt.Sprintf("modifier '%s': on_apply handler '%s' is not registered", modifierType, def.Lifecycle.OnApply))
			continue
		}

		if handler.ParamsType == nil {
			if len(def.Params) > 0 {
				errs = append(errs, fmt.Sprintf("modifier '%s': manifest declares params, but Go handler has no params struct", modifierType))
			}
			continue
		}

		goParams := make(map[string]reflect.StructField)
		for i := 0; i < handler.ParamsType.NumField(); i++ {
			field := handler.ParamsType.Field(i)
			if !field.IsExported() {
				continue
			}
			tag := field.Tag.Get("pgo")
			tagName := strings.Split(tag, ",")[0]
			if tagName != "" && tagName != "-" {
				goParams[tagName] = field
			}
		}

		// Check for presence mismatches.
		for name := range goParams {
			if _, ok := def.Params[name]; !ok {
				errs = append(errs, fmt.Sprintf("modifier '%s': Go struct has field for param '%s' which is not declared in manifest", modifierType, name))
			}
		}
		for name := range def.Params {
			if _, ok := goParams[name]; !ok {
				errs = append(errs, fmt.Sprintf("modifier '%s': manifest declares param '%s' which is not found in Go struct", modifierType, name))
			}
		}

		// Check for type mismatches.
		for name, pd := range def.Params {
			goField, ok := goParams[name]
			if !ok {
				continue // Already handled by presence check.
			}
			if !kindMatchesGoType(pd, goField.Type) {
				errs = append(errs, fmt.Sprintf("modifier '%s', param '%s': type mismatch. Manifest requires '%s' but Go struct field '%s' has type %s",
					modifierType, name, pd.Kind, goField.Name, goField.Type))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	logger.Debug("Registry validation passed.", "modifiers", len(r.DefinitionRegistry))
	return nil
}

// kindMatchesGoType reports whether a Go struct field type can carry values
// of the manifest kind. Nullable params may use a pointer to the scalar
// carrier so that "unset" survives decoding.
func kindMatchesGoType(pd *config.ParamDefinition, t reflect.Type) bool {
	if pd.Nullable && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch pd.Kind {
	case config.KindInt:
		return t.Kind() == reflect.Int
	case config.KindNumber:
		return t.Kind() == reflect.Float64
	case config.KindBool:
		return t.Kind() == reflect.Bool
	case config.KindString:
		return t.Kind() == reflect.String
	case config.KindRational:
		return t == reflect.TypeOf(rational.Rational{})
	default:
		return false
	}
}

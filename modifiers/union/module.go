// Package union overlays patterns without shifting them in time.
package union

import (
	"context"
	_ "embed"
	"reflect"

	"github.com/vk/patterngridgo/internal/modifier"
	"github.com/vk/patterngridgo/internal/pattern"
	"github.com/vk/patterngridgo/internal/rational"
	"github.com/vk/patterngridgo/internal/registry"
)

//go:embed manifest.hcl
var manifestHCL []byte

// Module registers the union modifier.
type Module struct{}

// Params is empty; union is driven entirely by its inputs.
type Params struct{}

// OnApplyUnion merges all input patterns aligned at time zero. The result
// carries an explicit duration equal to the longest input and is re-sorted
// by start time.
func OnApplyUnion(ctx context.Context, in *modifier.Inputs, params *Params) (*pattern.Pattern, error) {
	if len(in.Positional) == 0 {
		return pattern.Empty(), nil
	}

	var events []pattern.Event
	var longest rational.Rational
	for _, p := range in.Positional {
		events = append(events, p.Events...)
		longest = rational.Max(longest, p.EffectiveDuration())
	}
	pattern.SortEventsByStart(events)

	return pattern.WithBounds(events, &longest), nil
}

// Register wires the union handler into the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterModifier("OnApplyUnion", &registry.RegisteredModifier{
		NewParams:  func() any { return new(Params) },
		ParamsType: reflect.TypeOf(Params{}),
		Fn:         OnApplyUnion,
	})
}

// Manifest returns the embedded modifier definition.
func (m *Module) Manifest() (string, []byte) {
	return "union/manifest.hcl", manifestHCL
}

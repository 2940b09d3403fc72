package concat

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

// Module implements the registry.Module interface for this package.
type Module struct{}

// Params is empty because concat takes no parameters.
type Params struct{}

// OnApplyConcat chains the positional inputs sequentially: pattern k's
// events shift by the summed effective duration of patterns 0..k-1, and the
// output's explicit duration is the total sum. The shifted runs are
// appended in input order without a final re-sort, so the output preserves
// per-source order rather than global time order.
func OnApplyConcat(ctx context.Context, in *modifier.Inputs, params *Params) (*pattern.Pattern, error) {
	if len(in.Positional) == 0 {
		return pattern.Empty(), nil
	}

	var events []pattern.Event
	var offset rational.Rational
	for _, p := range in.Positional {
		for _, e := range p.Events {
			shifted := e
			shifted.Start = e.Start.Add(offset)
			events = append(events, shifted)
		}
		offset = offset.Add(p.EffectiveDuration())
	}

	total := offset
	return pattern.WithBounds(events, &total), nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterModifier("OnApplyConcat", &registry.RegisteredModifier{
		NewParams:  func() any { return new(Params) },
		ParamsType: reflect.TypeOf(Params{}),
		Fn:         OnApplyConcat,
	})
}

// Manifest returns the embedded manifest for this modifier.
func (m *Module) Manifest() (string, []byte) {
	return "concat/manifest.hcl", manifestHCL
}

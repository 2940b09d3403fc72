// Package stretch scales a pattern in time.
package stretch

import (
	"context"
	_ "embed"
	"fmt"
	"reflect"

	"github.com/vk/patterngridgo/internal/modifier"
	"github.com/vk/patterngridgo/internal/pattern"
	"github.com/vk/patterngridgo/internal/rational"
	"github.com/vk/patterngridgo/internal/registry"
)

//go:embed manifest.hcl
var manifestHCL []byte

// Module registers the stretch modifier.
type Module struct{}

// Params configures the time factor.
type Params struct {
	Factor rational.Rational `pgo:"factor"`
}

// OnApplyStretch multiplies every start time and note duration by the factor.
// The output always carries an explicit duration of effectiveDuration*factor,
// so a derived input comes out pinned to its stretched extent.
func OnApplyStretch(ctx context.Context, in *modifier.Inputs, params *Params) (*pattern.Pattern, error) {
	src, err := in.RequirePattern("pattern")
	if err != nil {
		return nil, err
	}
	if params.Factor.Sign() <= 0 {
		return nil, fmt.Errorf("stretch factor must be positive, got %s", params.Factor.String())
	}

	events := make([]pattern.Event, 0, len(src.Events))
	for _, e := range src.Events {
		scaled := e.Clone()
		scaled.Start = e.Start.Mul(params.Factor)
		scaled.Duration = e.Duration.Mul(params.Factor)
		events = append(events, scaled)
	}

	duration := src.EffectiveDuration().Mul(params.Factor)
	return pattern.WithBounds(events, &duration), nil
}

// Register wires the stretch handler into the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterModifier("OnApplyStretch", &registry.RegisteredModifier{
		NewParams:  func() any { return new(Params) },
		ParamsType: reflect.TypeOf(Params{}),
		Fn:         OnApplyStretch,
	})
}

// Manifest returns the embedded modifier definition.
func (m *Module) Manifest() (string, []byte) {
	return "stretch/manifest.hcl", manifestHCL
}

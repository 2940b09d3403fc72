// Package scalevelocity scales note velocities by a factor.
package scalevelocity

import (
	"context"
	_ "embed"
	"math"
	"reflect"

	"github.com/vk/patterngridgo/internal/modifier"
	"github.com/vk/patterngridgo/internal/pattern"
	"github.com/vk/patterngridgo/internal/registry"
)

//go:embed manifest.hcl
var manifestHCL []byte

// Module registers the scaleVelocity modifier.
type Module struct{}

// Params configures the velocity factor.
type Params struct {
	Factor float64 `pgo:"factor"`
}

// OnApplyScaleVelocity multiplies each velocity by the factor, rounds half-up
// and clamps to the MIDI range.
func OnApplyScaleVelocity(ctx context.Context, in *modifier.Inputs, params *Params) (*pattern.Pattern, error) {
	src, err := in.RequirePattern("pattern")
	if err != nil {
		return nil, err
	}

	events := make([]pattern.Event, 0, len(src.Events))
	for _, e := range src.Events {
		scaled := e.Clone()
		rounded := int(math.Floor(float64(e.Velocity)*params.Factor + 0.5))
		scaled.Velocity = pattern.ClampVelocity(rounded)
		events = append(events, scaled)
	}

	return pattern.WithBounds(events, src.CloneDuration()), nil
}

// Register wires the scaleVelocity handler into the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterModifier("OnApplyScaleVelocity", &registry.RegisteredModifier{
		NewParams:  func() any { return new(Params) },
		ParamsType: reflect.TypeOf(Params{}),
		Fn:         OnApplyScaleVelocity,
	})
}

// Manifest returns the embedded modifier definition.
func (m *Module) Manifest() (string, []byte) {
	return "scalevelocity/manifest.hcl", manifestHCL
}

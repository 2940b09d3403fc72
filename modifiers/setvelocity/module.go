// Package setvelocity flattens all velocities to a single value.
package setvelocity

import (
	"context"
	_ "embed"
	"reflect"

	"github.com/vk/patterngridgo/internal/modifier"
	"github.com/vk/patterngridgo/internal/pattern"
	"github.com/vk/patterngridgo/internal/registry"
)

//go:embed manifest.hcl
var manifestHCL []byte

// Module registers the setVelocity modifier.
type Module struct{}

// Params carries the replacement velocity.
type Params struct {
	Velocity int `pgo:"velocity"`
}

// OnApplySetVelocity sets every note's velocity to the clamped param value.
func OnApplySetVelocity(ctx context.Context, in *modifier.Inputs, params *Params) (*pattern.Pattern, error) {
	src, err := in.RequirePattern("pattern")
	if err != nil {
		return nil, err
	}

	velocity := pattern.ClampVelocity(params.Velocity)
	events := make([]pattern.Event, 0, len(src.Events))
	for _, e := range src.Events {
		rewritten := e.Clone()
		rewritten.Velocity = velocity
		events = append(events, rewritten)
	}

	return pattern.WithBounds(events, src.CloneDuration()), nil
}

// Register wires the setVelocity handler into the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterModifier("OnApplySetVelocity", &registry.RegisteredModifier{
		NewParams:  func() any { return new(Params) },
		ParamsType: reflect.TypeOf(Params{}),
		Fn:         OnApplySetVelocity,
	})
}

// Manifest returns the embedded modifier definition.
func (m *Module) Manifest() (string, []byte) {
	return "setvelocity/manifest.hcl", manifestHCL
}

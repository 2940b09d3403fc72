// Package invert mirrors pitches around a pivot pitch.
package invert

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

// Module registers the invert modifier.
type Module struct{}

// Params configures the mirror axis.
type Params struct {
	Pivot int `pgo:"pivot"`
}

// OnApplyInvert maps each pitch to 2*pivot - pitch and clamps the result to
// the MIDI range. Timing and velocities pass through unchanged.
func OnApplyInvert(ctx context.Context, in *modifier.Inputs, params *Params) (*pattern.Pattern, error) {
	src, err := in.RequirePattern("pattern")
	if err != nil {
		return nil, err
	}

	events := make([]pattern.Event, 0, len(src.Events))
	for _, e := range src.Events {
		mirrored := e.Clone()
		mirrored.Pitch = pattern.ClampPitch(2*params.Pivot - e.Pitch)
		events = append(events, mirrored)
	}

	return pattern.WithBounds(events, src.CloneDuration()), nil
}

// Register wires the invert handler into the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterModifier("OnApplyInvert", &registry.RegisteredModifier{
		NewParams:  func() any { return new(Params) },
		ParamsType: reflect.TypeOf(Params{}),
		Fn:         OnApplyInvert,
	})
}

// Manifest returns the embedded modifier definition.
func (m *Module) Manifest() (string, []byte) {
	return "invert/manifest.hcl", manifestHCL
}

// Package transpose shifts pitches by a semitone offset.
package transpose

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

// Module registers the transpose modifier.
type Module struct{}

// Params configures the pitch offset.
type Params struct {
	Semitones int `pgo:"semitones"`
}

// OnApplyTranspose adds the offset to every pitch and clamps to the MIDI
// range. Everything else passes through unchanged.
func OnApplyTranspose(ctx context.Context, in *modifier.Inputs, params *Params) (*pattern.Pattern, error) {
	src, err := in.RequirePattern("pattern")
	if err != nil {
		return nil, err
	}

	events := make([]pattern.Event, 0, len(src.Events))
	for _, e := range src.Events {
		shifted := e.Clone()
		shifted.Pitch = pattern.ClampPitch(e.Pitch + params.Semitones)
		events = append(events, shifted)
	}

	return pattern.WithBounds(events, src.CloneDuration()), nil
}

// Register wires the transpose handler into the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterModifier("OnApplyTranspose", &registry.RegisteredModifier{
		NewParams:  func() any { return new(Params) },
		ParamsType: reflect.TypeOf(Params{}),
		Fn:         OnApplyTranspose,
	})
}

// Manifest returns the embedded modifier definition.
func (m *Module) Manifest() (string, []byte) {
	return "transpose/manifest.hcl", manifestHCL
}

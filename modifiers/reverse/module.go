// Package reverse mirrors a pattern in time.
package reverse

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

// Module registers the reverse modifier.
type Module struct{}

// Params is empty; reverse has no knobs.
type Params struct{}

// OnApplyReverse maps each note's start to duration - start - noteDuration,
// so a note that ended flush with the pattern's end now begins at zero. The
// duration field carries over as-is, which makes reverse its own inverse on
// patterns with an explicit duration.
func OnApplyReverse(ctx context.Context, in *modifier.Inputs, params *Params) (*pattern.Pattern, error) {
	src, err := in.RequirePattern("pattern")
	if err != nil {
		return nil, err
	}

	total := src.EffectiveDuration()
	events := make([]pattern.Event, 0, len(src.Events))
	for _, e := range src.Events {
		flipped := e.Clone()
		flipped.Start = total.Sub(e.Start).Sub(e.Duration)
		events = append(events, flipped)
	}
	pattern.SortEventsByStart(events)

	return pattern.WithBounds(events, src.CloneDuration()), nil
}

// Register wires the reverse handler into the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterModifier("OnApplyReverse", &registry.RegisteredModifier{
		NewParams:  func() any { return new(Params) },
		ParamsType: reflect.TypeOf(Params{}),
		Fn:         OnApplyReverse,
	})
}

// Manifest returns the embedded modifier definition.
func (m *Module) Manifest() (string, []byte) {
	return "reverse/manifest.hcl", manifestHCL
}

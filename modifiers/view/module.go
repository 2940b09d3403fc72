// Package view re-frames a time window of a pattern as its own timeline.
package view

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

// Module registers the view modifier.
type Module struct{}

// Params describes the window. A nil End means the window runs to the
// pattern's effective duration.
type Params struct {
	Start rational.Rational  `pgo:"start"`
	End   *rational.Rational `pgo:"end"`
}

// OnApplyView shifts every note by -start so the window opens at time zero,
// and sets the output duration to end - start. Notes are not filtered, so
// material before the window keeps its (now negative) start time; trim is
// the tool for cutting it away.
func OnApplyView(ctx context.Context, in *modifier.Inputs, params *Params) (*pattern.Pattern, error) {
	src, err := in.RequirePattern("pattern")
	if err != nil {
		return nil, err
	}

	end := src.EffectiveDuration()
	if params.End != nil {
		end = params.End.Clone()
	}

	events := make([]pattern.Event, 0, len(src.Events))
	for _, e := range src.Events {
		shifted := e.Clone()
		shifted.Start = e.Start.Sub(params.Start)
		events = append(events, shifted)
	}

	duration := end.Sub(params.Start)
	return pattern.WithBounds(events, &duration), nil
}

// Register wires the view handler into the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterModifier("OnApplyView", &registry.RegisteredModifier{
		NewParams:  func() any { return new(Params) },
		ParamsType: reflect.TypeOf(Params{}),
		Fn:         OnApplyView,
	})
}

// Manifest returns the embedded modifier definition.
func (m *Module) Manifest() (string, []byte) {
	return "view/manifest.hcl", manifestHCL
}

// Package quantize snaps note starts to a rhythmic grid.
package quantize

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

// Module registers the quantize modifier.
type Module struct{}

// Params configures the grid spacing.
type Params struct {
	Grid rational.Rational `pgo:"grid"`
}

// OnApplyQuantize moves each note's start to the nearest grid multiple, ties
// rounding toward positive infinity. Durations stay put, the result is
// re-sorted, and quantizing an already snapped pattern is a no-op.
func OnApplyQuantize(ctx context.Context, in *modifier.Inputs, params *Params) (*pattern.Pattern, error) {
	src, err := in.RequirePattern("pattern")
	if err != nil {
		return nil, err
	}

	events := make([]pattern.Event, 0, len(src.Events))
	for _, e := range src.Events {
		snapped := e.Clone()
		start, err := e.Start.RoundToNearest(params.Grid)
		if err != nil {
			return nil, fmt.Errorf("quantizing start %s: %w", e.Start.String(), err)
		}
		snapped.Start = start
		events = append(events, snapped)
	}
	pattern.SortEventsByStart(events)

	return pattern.WithBounds(events, src.CloneDuration()), nil
}

// Register wires the quantize handler into the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterModifier("OnApplyQuantize", &registry.RegisteredModifier{
		NewParams:  func() any { return new(Params) },
		ParamsType: reflect.TypeOf(Params{}),
		Fn:         OnApplyQuantize,
	})
}

// Manifest returns the embedded modifier definition.
func (m *Module) Manifest() (string, []byte) {
	return "quantize/manifest.hcl", manifestHCL
}

// Package setduration replaces every note's duration with a fixed value.
package setduration

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

// Module registers the setDuration modifier.
type Module struct{}

// Params carries the replacement note duration.
type Params struct {
	Duration rational.Rational `pgo:"duration"`
}

// OnApplySetDuration gives every note the configured duration. Start times
// are untouched; an explicit pattern duration carries over, a derived one is
// recomputed from the rewritten notes.
func OnApplySetDuration(ctx context.Context, in *modifier.Inputs, params *Params) (*pattern.Pattern, error) {
	src, err := in.RequirePattern("pattern")
	if err != nil {
		return nil, err
	}
	if params.Duration.Sign() <= 0 {
		return nil, fmt.Errorf("note duration must be positive, got %s", params.Duration.String())
	}

	events := make([]pattern.Event, 0, len(src.Events))
	for _, e := range src.Events {
		rewritten := e.Clone()
		rewritten.Duration = params.Duration.Clone()
		events = append(events, rewritten)
	}

	return pattern.WithBounds(events, src.CloneDuration()), nil
}

// Register wires the setDuration handler into the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterModifier("OnApplySetDuration", &registry.RegisteredModifier{
		NewParams:  func() any { return new(Params) },
		ParamsType: reflect.TypeOf(Params{}),
		Fn:         OnApplySetDuration,
	})
}

// Manifest returns the embedded modifier definition.
func (m *Module) Manifest() (string, []byte) {
	return "setduration/manifest.hcl", manifestHCL
}

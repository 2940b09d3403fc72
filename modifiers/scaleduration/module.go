// Package scaleduration scales note lengths without moving them.
package scaleduration

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

// Module registers the scaleDuration modifier.
type Module struct{}

// Params configures the duration factor.
type Params struct {
	Factor rational.Rational `pgo:"factor"`
}

// OnApplyScaleDuration multiplies each note's duration by the factor. Start
// times and the pattern's duration field stay as they were, so stretched
// notes may overhang an explicit duration.
func OnApplyScaleDuration(ctx context.Context, in *modifier.Inputs, params *Params) (*pattern.Pattern, error) {
	src, err := in.RequirePattern("pattern")
	if err != nil {
		return nil, err
	}
	if params.Factor.Sign() <= 0 {
		return nil, fmt.Errorf("duration factor must be positive, got %s", params.Factor.String())
	}

	events := make([]pattern.Event, 0, len(src.Events))
	for _, e := range src.Events {
		scaled := e.Clone()
		scaled.Duration = e.Duration.Mul(params.Factor)
		events = append(events, scaled)
	}

	return pattern.WithBounds(events, src.CloneDuration()), nil
}

// Register wires the scaleDuration handler into the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterModifier("OnApplyScaleDuration", &registry.RegisteredModifier{
		NewParams:  func() any { return new(Params) },
		ParamsType: reflect.TypeOf(Params{}),
		Fn:         OnApplyScaleDuration,
	})
}

// Manifest returns the embedded modifier definition.
func (m *Module) Manifest() (string, []byte) {
	return "scaleduration/manifest.hcl", manifestHCL
}

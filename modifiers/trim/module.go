// Package trim drops notes that fall outside a pattern's duration window.
package trim

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

// Module registers the trim modifier.
type Module struct{}

// Params configures overhang handling.
type Params struct {
	TrimEnd bool `pgo:"trim_end"`
}

// OnApplyTrim removes notes starting before zero or at/after the effective
// duration. With TrimEnd set, notes ending past the duration are shortened
// to fit; without it they keep their full length and overhang.
func OnApplyTrim(ctx context.Context, in *modifier.Inputs, params *Params) (*pattern.Pattern, error) {
	src, err := in.RequirePattern("pattern")
	if err != nil {
		return nil, err
	}

	total := src.EffectiveDuration()
	events := make([]pattern.Event, 0, len(src.Events))
	for _, e := range src.Events {
		if e.Start.Sign() < 0 || e.Start.Cmp(total) >= 0 {
			continue
		}
		kept := e.Clone()
		if params.TrimEnd && e.End().Cmp(total) > 0 {
			clipped := total.Sub(e.Start)
			if clipped.Sign() <= 0 {
				continue
			}
			kept.Duration = clipped
		}
		events = append(events, kept)
	}

	return pattern.WithBounds(events, src.CloneDuration()), nil
}

// Register wires the trim handler into the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterModifier("OnApplyTrim", &registry.RegisteredModifier{
		NewParams:  func() any { return new(Params) },
		ParamsType: reflect.TypeOf(Params{}),
		Fn:         OnApplyTrim,
	})
}

// Manifest returns the embedded modifier definition.
func (m *Module) Manifest() (string, []byte) {
	return "trim/manifest.hcl", manifestHCL
}

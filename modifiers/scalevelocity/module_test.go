package scalevelocity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/patterngridgo/internal/modifier"
	"github.com/vk/patterngridgo/internal/pattern"
	"github.com/vk/patterngridgo/internal/rational"
)

func note(vel int) pattern.Event {
	return pattern.Event{
		Note: pattern.Note{
			Duration: rational.New(1, 4),
			Pitch:    60,
			Velocity: vel,
		},
	}
}

func keyword(p *pattern.Pattern) *modifier.Inputs {
	return &modifier.Inputs{Keyword: map[string]*pattern.Pattern{"pattern": p}}
}

func TestScaleVelocityRoundsHalfUp(t *testing.T) {
	src := pattern.WithBounds([]pattern.Event{note(100), note(101)}, nil)

	out, err := OnApplyScaleVelocity(context.Background(), keyword(src), &Params{Factor: 0.5})
	require.NoError(t, err)

	assert.Equal(t, 50, out.Events[0].Velocity)
	assert.Equal(t, 51, out.Events[1].Velocity, "50.5 rounds up")
}

func TestScaleVelocityClamps(t *testing.T) {
	src := pattern.WithBounds([]pattern.Event{note(100)}, nil)

	loud, err := OnApplyScaleVelocity(context.Background(), keyword(src), &Params{Factor: 2})
	require.NoError(t, err)
	assert.Equal(t, 127, loud.Events[0].Velocity)

	silent, err := OnApplyScaleVelocity(context.Background(), keyword(src), &Params{Factor: 0})
	require.NoError(t, err)
	assert.Equal(t, 0, silent.Events[0].Velocity)
}

func TestScaleVelocityIdentityFactor(t *testing.T) {
	src := pattern.WithBounds([]pattern.Event{note(64)}, pattern.ExplicitDuration(rational.New(1, 1)))

	out, err := OnApplyScaleVelocity(context.Background(), keyword(src), &Params{Factor: 1})
	require.NoError(t, err)

	assert.True(t, out.Equal(src))
}

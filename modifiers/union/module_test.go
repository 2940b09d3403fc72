package union

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/patterngridgo/internal/modifier"
	"github.com/vk/patterngridgo/internal/pattern"
	"github.com/vk/patterngridgo/internal/rational"
)

func event(start, dur string, pitch int) pattern.Event {
	return pattern.Event{
		Start: rational.MustParse(start),
		Note: pattern.Note{
			Duration: rational.MustParse(dur),
			Pitch:    pitch,
			Velocity: 100,
		},
	}
}

func positional(patterns ...*pattern.Pattern) *modifier.Inputs {
	return &modifier.Inputs{Positional: patterns}
}

func TestUnionOverlaysWithoutShifting(t *testing.T) {
	a := pattern.WithBounds([]pattern.Event{event("0", "1/4", 60), event("1/2", "1/4", 62)}, nil)
	b := pattern.WithBounds([]pattern.Event{event("1/4", "1/4", 64)}, nil)

	out, err := OnApplyUnion(context.Background(), positional(a, b), &Params{})
	require.NoError(t, err)

	require.Len(t, out.Events, 3)
	assert.Equal(t, "0", out.Events[0].Start.String())
	assert.Equal(t, "1/4", out.Events[1].Start.String())
	assert.Equal(t, 64, out.Events[1].Pitch, "b's event interleaves in time order")
	assert.Equal(t, "1/2", out.Events[2].Start.String())
}

func TestUnionDurationIsLongestInput(t *testing.T) {
	a := pattern.WithBounds([]pattern.Event{event("0", "1/4", 60)}, pattern.ExplicitDuration(rational.New(2, 1)))
	b := pattern.WithBounds([]pattern.Event{event("0", "1/4", 64)}, nil)

	out, err := OnApplyUnion(context.Background(), positional(a, b), &Params{})
	require.NoError(t, err)

	require.NotNil(t, out.Duration)
	assert.Equal(t, "2", out.Duration.String())
}

func TestUnionZeroInputs(t *testing.T) {
	out, err := OnApplyUnion(context.Background(), positional(), &Params{})
	require.NoError(t, err)
	assert.Empty(t, out.Events)
}

func TestUnionIsResorted(t *testing.T) {
	late := pattern.WithBounds([]pattern.Event{event("1", "1/4", 60)}, nil)
	early := pattern.WithBounds([]pattern.Event{event("0", "1/4", 64)}, nil)

	out, err := OnApplyUnion(context.Background(), positional(late, early), &Params{})
	require.NoError(t, err)

	require.Len(t, out.Events, 2)
	assert.Equal(t, "0", out.Events[0].Start.String())
	assert.Equal(t, "1", out.Events[1].Start.String())
}

func TestUnionBoundsCoherence(t *testing.T) {
	a := pattern.WithBounds([]pattern.Event{event("0", "1/2", 48)}, nil)
	b := pattern.WithBounds([]pattern.Event{event("1/4", "1/2", 84)}, nil)

	out, err := OnApplyUnion(context.Background(), positional(a, b), &Params{})
	require.NoError(t, err)

	fresh, err := pattern.CalculateBounds(out.Events)
	require.NoError(t, err)
	require.NotNil(t, out.Bounds)
	assert.True(t, out.Bounds.Equal(fresh))
}

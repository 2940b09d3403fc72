package reverse

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

func keyword(p *pattern.Pattern) *modifier.Inputs {
	return &modifier.Inputs{Keyword: map[string]*pattern.Pattern{"pattern": p}}
}

func TestReverseFlipsStartTimes(t *testing.T) {
	src := pattern.WithBounds(
		[]pattern.Event{event("0", "1/4", 60), event("1/2", "1/2", 62)},
		pattern.ExplicitDuration(rational.New(1, 1)),
	)

	out, err := OnApplyReverse(context.Background(), keyword(src), &Params{})
	require.NoError(t, err)

	require.Len(t, out.Events, 2)
	// 1 - 1/2 - 1/2 = 0, so the old tail note now opens the pattern.
	assert.Equal(t, "0", out.Events[0].Start.String())
	assert.Equal(t, 62, out.Events[0].Pitch)
	// 1 - 0 - 1/4 = 3/4.
	assert.Equal(t, "3/4", out.Events[1].Start.String())
	assert.Equal(t, 60, out.Events[1].Pitch)
}

func TestReverseKeepsDurationField(t *testing.T) {
	src := pattern.WithBounds(
		[]pattern.Event{event("0", "1/4", 60)},
		pattern.ExplicitDuration(rational.New(2, 1)),
	)

	out, err := OnApplyReverse(context.Background(), keyword(src), &Params{})
	require.NoError(t, err)

	require.NotNil(t, out.Duration)
	assert.Equal(t, "2", out.Duration.String())
}

func TestReverseTwiceIsIdentity(t *testing.T) {
	src := pattern.WithBounds(
		[]pattern.Event{event("0", "1/4", 60), event("1/4", "1/4", 64), event("1/2", "1/2", 67)},
		pattern.ExplicitDuration(rational.New(1, 1)),
	)

	once, err := OnApplyReverse(context.Background(), keyword(src), &Params{})
	require.NoError(t, err)
	twice, err := OnApplyReverse(context.Background(), keyword(once), &Params{})
	require.NoError(t, err)

	assert.True(t, twice.Equal(src))
}

func TestReverseEmptyPattern(t *testing.T) {
	out, err := OnApplyReverse(context.Background(), keyword(pattern.Empty()), &Params{})
	require.NoError(t, err)
	assert.Empty(t, out.Events)
	assert.Nil(t, out.Bounds)
}

func TestReverseMissingInput(t *testing.T) {
	_, err := OnApplyReverse(context.Background(), &modifier.Inputs{}, &Params{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pattern")
}

func TestReverseDoesNotMutateInput(t *testing.T) {
	src := pattern.WithBounds(
		[]pattern.Event{event("0", "1/4", 60), event("1/2", "1/4", 62)},
		pattern.ExplicitDuration(rational.New(1, 1)),
	)
	before := src.Clone()

	_, err := OnApplyReverse(context.Background(), keyword(src), &Params{})
	require.NoError(t, err)

	assert.True(t, src.Equal(before))
}

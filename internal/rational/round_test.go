package rational

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundToInt(t *testing.T) {
	cases := []struct {
		in   Rational
		want int64
	}{
		{New(1, 2), 1},
		{New(-1, 2), 0},
		{New(3, 2), 2},
		{New(5, 2), 3},
		{New(-3, 2), -1},
		{New(-5, 2), -2},
		{New(1, 3), 0},
		{New(2, 3), 1},
		{New(-1, 3), 0},
		{New(-2, 3), -1},
		{FromInt(7), 7},
		{Rational{}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.in.String(), func(t *testing.T) {
			assert.Equal(t, tc.want, tc.in.RoundToInt())
		})
	}
}

func TestRoundToNearest(t *testing.T) {
	t.Run("snaps down and up", func(t *testing.T) {
		grid := New(1, 4)

		got, err := New(3, 16).RoundToNearest(grid)
		require.NoError(t, err)
		assert.Equal(t, "1/4", got.String())

		got, err = New(1, 16).RoundToNearest(grid)
		require.NoError(t, err)
		assert.Equal(t, "0", got.String())
	})

	t.Run("tie goes toward positive infinity", func(t *testing.T) {
		grid := New(1, 4)

		got, err := New(1, 8).RoundToNearest(grid)
		require.NoError(t, err)
		assert.Equal(t, "1/4", got.String())

		got, err = New(-1, 8).RoundToNearest(grid)
		require.NoError(t, err)
		assert.Equal(t, "0", got.String())

		got, err = New(-3, 8).RoundToNearest(grid)
		require.NoError(t, err)
		assert.Equal(t, "-1/4", got.String())
	})

	t.Run("multiples are fixed points", func(t *testing.T) {
		grid := New(1, 8)
		for _, v := range []Rational{New(-3, 8), Rational{}, New(1, 8), New(5, 8)} {
			got, err := v.RoundToNearest(grid)
			require.NoError(t, err)
			assert.True(t, got.Equal(v), "expected %s to stay put", v)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		grid := New(1, 6)
		once, err := New(7, 16).RoundToNearest(grid)
		require.NoError(t, err)
		twice, err := once.RoundToNearest(grid)
		require.NoError(t, err)
		assert.True(t, once.Equal(twice))
	})

	t.Run("zero step is an error", func(t *testing.T) {
		_, err := New(1, 2).RoundToNearest(Rational{})
		assert.ErrorIs(t, err, ErrZeroStep)
	})
}

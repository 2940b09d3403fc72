package hcl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/patterngridgo/internal/config"
	"github.com/vk/patterngridgo/internal/rational"
)

type stretchParams struct {
	Factor rational.Rational `pgo:"factor"`
}

type viewParams struct {
	Start rational.Rational  `pgo:"start"`
	End   *rational.Rational `pgo:"end"`
}

type transposeParams struct {
	Semitones int `pgo:"semitones"`
}

type velocityParams struct {
	Factor float64 `pgo:"factor"`
}

func ratDef(name string, def string) *config.ParamDefinition {
	d := &config.ParamDefinition{Name: name, Kind: config.KindRational, Type: cty.String}
	if def != "" {
		v := cty.StringVal(def)
		d.Default = &v
	}
	return d
}

func TestDecodeParamsRational(t *testing.T) {
	ctx := context.Background()
	c := NewConverter()
	defs := map[string]*config.ParamDefinition{"factor": ratDef("factor", "2")}

	t.Run("explicit value", func(t *testing.T) {
		var p stretchParams
		err := c.DecodeParams(ctx, &p, map[string]cty.Value{"factor": cty.StringVal("3/2")}, defs)
		require.NoError(t, err)
		assert.Equal(t, "3/2", p.Factor.String())
	})

	t.Run("default applied when absent", func(t *testing.T) {
		var p stretchParams
		err := c.DecodeParams(ctx, &p, map[string]cty.Value{}, defs)
		require.NoError(t, err)
		assert.Equal(t, "2", p.Factor.String())
	})

	t.Run("unparsable value fails", func(t *testing.T) {
		var p stretchParams
		err := c.DecodeParams(ctx, &p, map[string]cty.Value{"factor": cty.StringVal("wide")}, defs)
		assert.Error(t, err)
	})
}

func TestDecodeParamsNullablePointer(t *testing.T) {
	ctx := context.Background()
	c := NewConverter()
	defs := map[string]*config.ParamDefinition{
		"start": ratDef("start", "0"),
		"end":   {Name: "end", Kind: config.KindRational, Type: cty.String, Nullable: true},
	}

	t.Run("null leaves the pointer nil", func(t *testing.T) {
		var p viewParams
		err := c.DecodeParams(ctx, &p, map[string]cty.Value{
			"end": cty.NullVal(cty.String),
		}, defs)
		require.NoError(t, err)
		assert.Equal(t, "0", p.Start.String())
		assert.Nil(t, p.End)
	})

	t.Run("set value fills the pointer", func(t *testing.T) {
		var p viewParams
		err := c.DecodeParams(ctx, &p, map[string]cty.Value{
			"start": cty.StringVal("1/4"),
			"end":   cty.StringVal("1/2"),
		}, defs)
		require.NoError(t, err)
		require.NotNil(t, p.End)
		assert.Equal(t, "1/2", p.End.String())
	})
}

func TestDecodeParamsScalars(t *testing.T) {
	ctx := context.Background()
	c := NewConverter()

	t.Run("int field", func(t *testing.T) {
		defs := map[string]*config.ParamDefinition{
			"semitones": {Name: "semitones", Kind: config.KindInt, Type: cty.Number},
		}
		var p transposeParams
		err := c.DecodeParams(ctx, &p, map[string]cty.Value{"semitones": cty.NumberIntVal(-5)}, defs)
		require.NoError(t, err)
		assert.Equal(t, -5, p.Semitones)
	})

	t.Run("float field", func(t *testing.T) {
		defs := map[string]*config.ParamDefinition{
			"factor": {Name: "factor", Kind: config.KindNumber, Type: cty.Number},
		}
		var p velocityParams
		err := c.DecodeParams(ctx, &p, map[string]cty.Value{"factor": cty.NumberFloatVal(0.5)}, defs)
		require.NoError(t, err)
		assert.InDelta(t, 0.5, p.Factor, 1e-9)
	})
}

func TestDecodeParamsMissingRequired(t *testing.T) {
	ctx := context.Background()
	c := NewConverter()
	defs := map[string]*config.ParamDefinition{
		"semitones": {Name: "semitones", Kind: config.KindInt, Type: cty.Number},
	}

	var p transposeParams
	err := c.DecodeParams(ctx, &p, map[string]cty.Value{}, defs)
	require.Error(t, err)
	assert.ErrorContains(t, err, "missing required parameter")
}

func TestDecodeParamsRangeEnforced(t *testing.T) {
	ctx := context.Background()
	c := NewConverter()
	max := cty.NumberIntVal(127)
	defs := map[string]*config.ParamDefinition{
		"semitones": {Name: "semitones", Kind: config.KindInt, Type: cty.Number, Max: &max},
	}

	var p transposeParams
	err := c.DecodeParams(ctx, &p, map[string]cty.Value{"semitones": cty.NumberIntVal(128)}, defs)
	require.Error(t, err)
	assert.ErrorContains(t, err, "above maximum")
}

func TestToCtyValue(t *testing.T) {
	c := NewConverter()

	v, err := c.ToCtyValue(map[string]string{"modifier": "reverse"})
	require.NoError(t, err)
	assert.Equal(t, "reverse", v.AsValueMap()["modifier"].AsString())

	v, err = c.ToCtyValue(nil)
	require.NoError(t, err)
	assert.Equal(t, cty.NilVal, v)
}

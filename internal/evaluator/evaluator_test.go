package evaluator

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/patterngridgo/internal/config"
	"github.com/vk/patterngridgo/internal/evalcache"
	"github.com/vk/patterngridgo/internal/graph"
	"github.com/vk/patterngridgo/internal/hcl"
	"github.com/vk/patterngridgo/internal/inmemorycache"
	"github.com/vk/patterngridgo/internal/modifier"
	"github.com/vk/patterngridgo/internal/pattern"
	"github.com/vk/patterngridgo/internal/rational"
	"github.com/vk/patterngridgo/internal/registry"
)

// counter tallies apply-handler invocations per modifier type, which is how
// the tests observe whether the cache actually short-circuited work.
type counter struct {
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) bump(key string) {
	c.counts[key]++
}

type nopParams struct{}

type shiftParams struct {
	Amount int `pgo:"amount"`
}

// makeShiftHandler returns a handler adding Amount to every pitch.
func makeShiftHandler(c *counter, key string) any {
	return func(ctx context.Context, in *modifier.Inputs, params *shiftParams) (*pattern.Pattern, error) {
		c.bump(key)
		src, err := in.RequirePattern("pattern")
		if err != nil {
			return nil, err
		}
		events := make([]pattern.Event, 0, len(src.Events))
		for _, e := range src.Events {
			shifted := e.Clone()
			shifted.Pitch = pattern.ClampPitch(e.Pitch + params.Amount)
			events = append(events, shifted)
		}
		return pattern.WithBounds(events, src.CloneDuration()), nil
	}
}

// makeCombineHandler returns a handler merging its positional inputs.
func makeCombineHandler(c *counter) any {
	return func(ctx context.Context, in *modifier.Inputs, params *nopParams) (*pattern.Pattern, error) {
		c.bump("combine")
		var events []pattern.Event
		for _, p := range in.Positional {
			events = append(events, p.Events...)
		}
		pattern.SortEventsByStart(events)
		return pattern.WithBounds(events, nil), nil
	}
}

func makeFailingHandler(c *counter) any {
	return func(ctx context.Context, in *modifier.Inputs, params *nopParams) (*pattern.Pattern, error) {
		c.bump("failing")
		return nil, fmt.Errorf("transform exploded")
	}
}

func makePanickingHandler() any {
	return func(ctx context.Context, in *modifier.Inputs, params *nopParams) (*pattern.Pattern, error) {
		panic("kaboom")
	}
}

func keywordDef(typeName, handlerName string, params map[string]*config.ParamDefinition) *config.ModifierDefinition {
	return &config.ModifierDefinition{
		Type:      typeName,
		Lifecycle: &config.Lifecycle{OnApply: handlerName},
		Inputs: map[string]*config.InputDefinition{
			"pattern": {Key: "pattern", Required: true},
		},
		Params: params,
	}
}

func positionalDef(typeName, handlerName string, minCount int) *config.ModifierDefinition {
	return &config.ModifierDefinition{
		Type:       typeName,
		Lifecycle:  &config.Lifecycle{OnApply: handlerName},
		Positional: &config.PositionalDefinition{MinCount: minCount, Label: "Patterns"},
	}
}

func intDefault(n int64) *cty.Value {
	v := cty.NumberIntVal(n)
	return &v
}

// testRegistry wires a small fixed catalogue used across these tests.
func testRegistry(c *counter) *registry.Registry {
	r := registry.New()

	shiftSchema := map[string]*config.ParamDefinition{
		"amount": {Name: "amount", Kind: config.KindInt, Type: cty.Number, Default: intDefault(1)},
	}

	r.DefinitionRegistry["shift"] = keywordDef("shift", "OnApplyShift", shiftSchema)
	r.RegisterModifier("OnApplyShift", &registry.RegisteredModifier{
		NewParams:  func() any { return new(shiftParams) },
		ParamsType: reflect.TypeOf(shiftParams{}),
		Fn:         makeShiftHandler(c, "shift"),
	})

	r.DefinitionRegistry["lift"] = keywordDef("lift", "OnApplyLift", shiftSchema)
	r.RegisterModifier("OnApplyLift", &registry.RegisteredModifier{
		NewParams:  func() any { return new(shiftParams) },
		ParamsType: reflect.TypeOf(shiftParams{}),
		Fn:         makeShiftHandler(c, "lift"),
	})

	r.DefinitionRegistry["combine"] = positionalDef("combine", "OnApplyCombine", 1)
	r.RegisterModifier("OnApplyCombine", &registry.RegisteredModifier{
		NewParams:  func() any { return new(nopParams) },
		ParamsType: reflect.TypeOf(nopParams{}),
		Fn:         makeCombineHandler(c),
	})

	r.DefinitionRegistry["duo"] = positionalDef("duo", "OnApplyCombine", 2)

	r.DefinitionRegistry["failing"] = keywordDef("failing", "OnApplyFailing", nil)
	r.RegisterModifier("OnApplyFailing", &registry.RegisteredModifier{
		NewParams:  func() any { return new(nopParams) },
		ParamsType: reflect.TypeOf(nopParams{}),
		Fn:         makeFailingHandler(c),
	})

	r.DefinitionRegistry["panicking"] = keywordDef("panicking", "OnApplyPanicking", nil)
	r.RegisterModifier("OnApplyPanicking", &registry.RegisteredModifier{
		NewParams:  func() any { return new(nopParams) },
		ParamsType: reflect.TypeOf(nopParams{}),
		Fn:         makePanickingHandler(),
	})

	return r
}

func testEvaluator(c *counter) (*Evaluator, evalcache.Store) {
	cache := inmemorycache.New()
	return New(testRegistry(c), hcl.NewConverter(), cache), cache
}

func sourcePattern(pitch int) *pattern.Pattern {
	return pattern.WithBounds([]pattern.Event{{
		Start: rational.Rational{},
		Note:  pattern.Note{Duration: rational.New(1, 4), Pitch: pitch, Velocity: 100},
	}}, nil)
}

func addSource(g *graph.Graph, id string, p *pattern.Pattern) {
	g.Nodes[id] = &graph.Node{ID: id, Kind: graph.KindSource, Pattern: p}
}

func addModifier(g *graph.Graph, id, modifierType string) {
	g.Nodes[id] = &graph.Node{
		ID:           id,
		Kind:         graph.KindModifier,
		ModifierType: modifierType,
		Params:       map[string]cty.Value{config.ModifierKey: cty.StringVal(modifierType)},
	}
}

func connect(g *graph.Graph, source, target, port string) {
	g.Edges = append(g.Edges, &graph.Edge{
		ID:         fmt.Sprintf("%s-%s-%s", source, target, port),
		Source:     source,
		Target:     target,
		TargetPort: port,
	})
}

// chain builds a(source) -> b(shift) -> c(lift).
func chain() *graph.Graph {
	g := graph.New()
	addSource(g, "a", sourcePattern(60))
	addModifier(g, "b", "shift")
	addModifier(g, "c", "lift")
	connect(g, "a", "b", "pattern")
	connect(g, "b", "c", "pattern")
	return g
}

func TestEvaluateSourceReturnsStoredPattern(t *testing.T) {
	ctx := context.Background()
	ev, _ := testEvaluator(newCounter())

	g := graph.New()
	p := sourcePattern(60)
	addSource(g, "a", p)

	got := ev.Evaluate(ctx, g, "a")
	assert.Same(t, p, got, "stored patterns come back as-is")
}

func TestEvaluateUnknownNode(t *testing.T) {
	ctx := context.Background()
	ev, cache := testEvaluator(newCounter())

	got := ev.Evaluate(ctx, graph.New(), "ghost")
	assert.Nil(t, got)

	_, _, ok := cache.Load("ghost")
	assert.False(t, ok, "unknown ids are not cached")
}

func TestEvaluateChainColdThenWarm(t *testing.T) {
	ctx := context.Background()
	c := newCounter()
	ev, _ := testEvaluator(c)
	g := chain()

	cold := ev.Evaluate(ctx, g, "c")
	require.NotNil(t, cold)
	assert.Equal(t, 62, cold.Events[0].Pitch, "60 shifted twice by the default amount")
	assert.Equal(t, 1, c.counts["shift"])
	assert.Equal(t, 1, c.counts["lift"])

	warm := ev.Evaluate(ctx, g, "c")
	require.NotNil(t, warm)
	assert.True(t, warm.Equal(cold))
	assert.Equal(t, 1, c.counts["shift"], "warm evaluation reuses the cache")
	assert.Equal(t, 1, c.counts["lift"])
}

func TestEvaluateDecodesNodeParams(t *testing.T) {
	ctx := context.Background()
	ev, _ := testEvaluator(newCounter())

	g := graph.New()
	addSource(g, "a", sourcePattern(60))
	addModifier(g, "b", "shift")
	g.Nodes["b"].Params["amount"] = cty.NumberIntVal(7)
	connect(g, "a", "b", "pattern")

	got := ev.Evaluate(ctx, g, "b")
	require.NotNil(t, got)
	assert.Equal(t, 67, got.Events[0].Pitch)
}

func TestNegativeCachingDoesNotRetry(t *testing.T) {
	ctx := context.Background()
	c := newCounter()
	ev, cache := testEvaluator(c)

	g := graph.New()
	addSource(g, "a", sourcePattern(60))
	addModifier(g, "f", "failing")
	connect(g, "a", "f", "pattern")

	assert.Nil(t, ev.Evaluate(ctx, g, "f"))
	assert.Equal(t, 1, c.counts["failing"])

	p, _, ok := cache.Load("f")
	require.True(t, ok, "the failure itself is cached")
	assert.Nil(t, p)

	assert.Nil(t, ev.Evaluate(ctx, g, "f"))
	assert.Equal(t, 1, c.counts["failing"], "remembered failures are not retried")
}

func TestInvalidateNodeEvictsDownstreamOnly(t *testing.T) {
	ctx := context.Background()
	c := newCounter()
	ev, cache := testEvaluator(c)

	g := chain()
	addSource(g, "d", sourcePattern(40)) // unrelated island

	ev.Evaluate(ctx, g, "c")
	ev.Evaluate(ctx, g, "d")

	ev.InvalidateNode(ctx, g, "a")

	for _, id := range []string{"a", "b", "c"} {
		_, _, ok := cache.Load(id)
		assert.False(t, ok, "entry %q should be evicted", id)
	}
	_, _, ok := cache.Load("d")
	assert.True(t, ok, "unrelated entries survive")

	ev.Evaluate(ctx, g, "c")
	assert.Equal(t, 2, c.counts["shift"], "invalidation forces recomputation")
	assert.Equal(t, 2, c.counts["lift"])
}

func TestStaleStampForcesRecomputation(t *testing.T) {
	ctx := context.Background()
	c := newCounter()
	ev, _ := testEvaluator(c)
	g := chain()

	ev.Evaluate(ctx, g, "c")
	require.Equal(t, 1, c.counts["shift"])

	// A committed mutation bumps the node version. No invalidation call is
	// issued here at all; the stamps alone must notice.
	g.Nodes["b"].Version++

	got := ev.Evaluate(ctx, g, "c")
	require.NotNil(t, got)
	assert.Equal(t, 2, c.counts["shift"], "b is stale")
	assert.Equal(t, 2, c.counts["lift"], "c depends on b, so it is stale too")
}

func TestMissingRequiredInputFails(t *testing.T) {
	ctx := context.Background()
	ev, cache := testEvaluator(newCounter())

	g := graph.New()
	addModifier(g, "b", "shift") // no incoming edge at all

	assert.Nil(t, ev.Evaluate(ctx, g, "b"))

	p, _, ok := cache.Load("b")
	require.True(t, ok)
	assert.Nil(t, p, "structural failures cache negatively too")
}

func TestUnknownModifierTypeFails(t *testing.T) {
	ctx := context.Background()
	ev, _ := testEvaluator(newCounter())

	g := graph.New()
	addSource(g, "a", sourcePattern(60))
	addModifier(g, "b", "no-such-type")
	connect(g, "a", "b", "pattern")

	assert.Nil(t, ev.Evaluate(ctx, g, "b"))
}

func TestTooFewPositionalInputsFails(t *testing.T) {
	ctx := context.Background()
	c := newCounter()
	ev, _ := testEvaluator(c)

	g := graph.New()
	addSource(g, "a", sourcePattern(60))
	addModifier(g, "m", "duo") // requires two positional inputs
	connect(g, "a", "m", "pos-0")

	assert.Nil(t, ev.Evaluate(ctx, g, "m"))
	assert.Equal(t, 0, c.counts["combine"], "handler is never reached")
}

func TestFailedPositionalInputIsCompacted(t *testing.T) {
	ctx := context.Background()
	c := newCounter()
	ev, _ := testEvaluator(c)

	// Three positional inputs, the middle one fails. The output must be
	// identical to wiring only the two good ones.
	full := graph.New()
	addSource(full, "s1", sourcePattern(60))
	addModifier(full, "bad", "failing")
	addSource(full, "s2", sourcePattern(72))
	addModifier(full, "m", "combine")
	connect(full, "s1", "m", "pos-0")
	connect(full, "bad", "m", "pos-1")
	connect(full, "s2", "m", "pos-2")

	compact := graph.New()
	addSource(compact, "s1", sourcePattern(60))
	addSource(compact, "s2", sourcePattern(72))
	addModifier(compact, "m", "combine")
	connect(compact, "s1", "m", "pos-0")
	connect(compact, "s2", "m", "pos-1")

	gotFull := ev.Evaluate(ctx, full, "m")
	gotCompact := ev.Evaluate(ctx, compact, "m")

	require.NotNil(t, gotFull)
	require.NotNil(t, gotCompact)
	assert.True(t, gotFull.Equal(gotCompact))
}

func TestHandlerPanicIsContained(t *testing.T) {
	ctx := context.Background()
	ev, cache := testEvaluator(newCounter())

	g := graph.New()
	addSource(g, "a", sourcePattern(60))
	addModifier(g, "p", "panicking")
	connect(g, "a", "p", "pattern")

	assert.NotPanics(t, func() {
		assert.Nil(t, ev.Evaluate(ctx, g, "p"))
	})

	p, _, ok := cache.Load("p")
	require.True(t, ok)
	assert.Nil(t, p)
}

func TestCyclicGraphTerminates(t *testing.T) {
	ctx := context.Background()
	ev, _ := testEvaluator(newCounter())

	g := graph.New()
	addModifier(g, "b", "shift")
	addModifier(g, "c", "lift")
	connect(g, "b", "c", "pattern")
	connect(g, "c", "b", "pattern")

	assert.Nil(t, ev.Evaluate(ctx, g, "c"), "cycle edges bind as failed inputs")
}

func TestAllPatternsSkipsFailedAndEmpty(t *testing.T) {
	ctx := context.Background()
	ev, _ := testEvaluator(newCounter())

	g := graph.New()
	addSource(g, "good", sourcePattern(60))
	addSource(g, "empty", pattern.Empty())
	addModifier(g, "broken", "failing")
	connect(g, "good", "broken", "pattern")

	all := ev.AllPatterns(ctx, g)
	assert.Len(t, all, 1)
	assert.Contains(t, all, "good")
}

func TestLeafPatternsOnlySinks(t *testing.T) {
	ctx := context.Background()
	ev, _ := testEvaluator(newCounter())
	g := chain()

	leaves := ev.LeafPatterns(ctx, g)
	assert.Len(t, leaves, 1)
	assert.Contains(t, leaves, "c", "only the end of the chain is a sink")
}

func TestClearCache(t *testing.T) {
	ctx := context.Background()
	c := newCounter()
	ev, _ := testEvaluator(c)
	g := chain()

	ev.Evaluate(ctx, g, "c")
	ev.ClearCache()
	ev.Evaluate(ctx, g, "c")

	assert.Equal(t, 2, c.counts["shift"])
	assert.Equal(t, 2, c.counts["lift"])
}

func TestDeepChainDoesNotRecurse(t *testing.T) {
	ctx := context.Background()
	ev, _ := testEvaluator(newCounter())

	// Deep enough to blow a recursive evaluator's stack, comfortably
	// shallow for the worklist.
	g := graph.New()
	addSource(g, "n0", sourcePattern(60))
	const depth = 20000
	prev := "n0"
	for i := 1; i <= depth; i++ {
		id := fmt.Sprintf("n%d", i)
		addModifier(g, id, "combine")
		connect(g, prev, id, "pos-0")
		prev = id
	}

	got := ev.Evaluate(ctx, g, prev)
	require.NotNil(t, got)
	assert.Len(t, got.Events, 1)
}

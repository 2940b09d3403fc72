package graphstore

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/patterngridgo/internal/config"
	"github.com/vk/patterngridgo/internal/graph"
	"github.com/vk/patterngridgo/internal/pattern"
	"github.com/vk/patterngridgo/internal/rational"
)

type invalidation struct {
	graph  *graph.Graph
	nodeID string
}

// recordingInvalidator captures invalidation calls together with the exact
// snapshot they were issued against.
type recordingInvalidator struct {
	mu     sync.Mutex
	calls  []invalidation
	clears int
}

func (r *recordingInvalidator) InvalidateNode(ctx context.Context, g *graph.Graph, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, invalidation{graph: g, nodeID: id})
}

func (r *recordingInvalidator) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clears++
}

func (r *recordingInvalidator) clearCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clears
}

func (r *recordingInvalidator) last(t *testing.T) invalidation {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.calls)
	return r.calls[len(r.calls)-1]
}

func (r *recordingInvalidator) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func newTestStore() (*Store, *recordingInvalidator) {
	inv := &recordingInvalidator{}
	return New(inv, time.Millisecond), inv
}

func somePattern() *pattern.Pattern {
	return pattern.WithBounds([]pattern.Event{{
		Start: rational.Rational{},
		Note:  pattern.Note{Duration: rational.New(1, 4), Pitch: 60, Velocity: 100},
	}}, nil)
}

func TestAddSourceNodeMintsID(t *testing.T) {
	ctx := context.Background()
	s, inv := newTestStore()

	id1, err := s.AddSourceNode(ctx, "", somePattern())
	require.NoError(t, err)
	id2, err := s.AddSourceNode(ctx, "", somePattern())
	require.NoError(t, err)

	assert.NotEmpty(t, id1)
	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 0, inv.count(), "fresh nodes have nothing to invalidate")

	snap := s.Snapshot(ctx)
	assert.Len(t, snap.Nodes, 2)
}

func TestAddNodeDuplicateID(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	_, err := s.AddSourceNode(ctx, "a", somePattern())
	require.NoError(t, err)
	_, err = s.AddSourceNode(ctx, "a", somePattern())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestAddModifierNodeCarriesModifierKey(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	id, err := s.AddModifierNode(ctx, "m", "reverse", nil)
	require.NoError(t, err)

	snap := s.Snapshot(ctx)
	n := snap.Nodes[id]
	require.NotNil(t, n)
	assert.Equal(t, graph.KindModifier, n.Kind)
	assert.Equal(t, "reverse", n.ModifierType)
	assert.Equal(t, cty.StringVal("reverse"), n.Params[config.ModifierKey])
}

func TestSnapshotIsIsolatedFromLaterMutations(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	_, err := s.AddSourceNode(ctx, "a", somePattern())
	require.NoError(t, err)

	before := s.Snapshot(ctx)
	require.NoError(t, s.UpdateSourcePattern(ctx, "a", pattern.Empty()))

	assert.Len(t, before.Nodes["a"].Pattern.Events, 1, "old snapshot keeps the old pattern")
	after := s.Snapshot(ctx)
	assert.Empty(t, after.Nodes["a"].Pattern.Events)
	assert.Equal(t, int64(1), after.Nodes["a"].Version)
}

func TestUpdateSourcePatternInvalidatesAgainstPreMutationGraph(t *testing.T) {
	ctx := context.Background()
	s, inv := newTestStore()

	_, err := s.AddSourceNode(ctx, "a", somePattern())
	require.NoError(t, err)
	_, err = s.AddModifierNode(ctx, "b", "reverse", nil)
	require.NoError(t, err)
	_, err = s.Connect(ctx, "a", "b", "pattern")
	require.NoError(t, err)

	require.NoError(t, s.UpdateSourcePattern(ctx, "a", pattern.Empty()))

	call := inv.last(t)
	assert.Equal(t, "a", call.nodeID)
	assert.Equal(t, []string{"b"}, call.graph.Downstream("a"),
		"invalidation sees the pre-mutation edge set")
	assert.Len(t, call.graph.Nodes["a"].Pattern.Events, 1,
		"invalidation sees the pre-mutation pattern")
}

func TestUpdateSourcePatternRejectsModifierNode(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	_, err := s.AddModifierNode(ctx, "m", "reverse", nil)
	require.NoError(t, err)

	err = s.UpdateSourcePattern(ctx, "m", somePattern())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a source node")
}

func TestUpdateNodeParamsRetypesOnModifierKey(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	_, err := s.AddModifierNode(ctx, "m", "reverse", nil)
	require.NoError(t, err)

	err = s.UpdateNodeParams(ctx, "m", map[string]cty.Value{
		config.ModifierKey: cty.StringVal("invert"),
		"pivot":            cty.NumberIntVal(64),
	})
	require.NoError(t, err)

	snap := s.Snapshot(ctx)
	assert.Equal(t, "invert", snap.Nodes["m"].ModifierType)
	assert.Equal(t, int64(1), snap.Nodes["m"].Version)
}

func TestConnectEnforcesPortUniqueness(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	_, err := s.AddSourceNode(ctx, "a", somePattern())
	require.NoError(t, err)
	_, err = s.AddSourceNode(ctx, "b", somePattern())
	require.NoError(t, err)
	_, err = s.AddModifierNode(ctx, "m", "reverse", nil)
	require.NoError(t, err)

	_, err = s.Connect(ctx, "a", "m", "pattern")
	require.NoError(t, err)
	_, err = s.Connect(ctx, "b", "m", "pattern")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already connected")

	// A different port on the same target is fine.
	_, err = s.Connect(ctx, "b", "m", "pos-0")
	require.NoError(t, err)
}

func TestConnectInvalidatesTarget(t *testing.T) {
	ctx := context.Background()
	s, inv := newTestStore()

	_, err := s.AddSourceNode(ctx, "a", somePattern())
	require.NoError(t, err)
	_, err = s.AddModifierNode(ctx, "m", "reverse", nil)
	require.NoError(t, err)

	_, err = s.Connect(ctx, "a", "m", "pattern")
	require.NoError(t, err)

	call := inv.last(t)
	assert.Equal(t, "m", call.nodeID)
	assert.Empty(t, call.graph.EdgesInto("m"), "pre-mutation snapshot has no edge yet")
}

func TestConnectUnknownNodes(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	_, err := s.Connect(ctx, "nope", "also-nope", "pattern")
	require.Error(t, err)
}

func TestDisconnectInvalidatesWithEdgeStillPresent(t *testing.T) {
	ctx := context.Background()
	s, inv := newTestStore()

	_, err := s.AddSourceNode(ctx, "a", somePattern())
	require.NoError(t, err)
	_, err = s.AddModifierNode(ctx, "m", "reverse", nil)
	require.NoError(t, err)
	edgeID, err := s.Connect(ctx, "a", "m", "pattern")
	require.NoError(t, err)

	require.NoError(t, s.Disconnect(ctx, edgeID))

	call := inv.last(t)
	assert.Equal(t, "m", call.nodeID)
	assert.Len(t, call.graph.EdgesInto("m"), 1,
		"invalidation runs against the snapshot that still has the edge")

	snap := s.Snapshot(ctx)
	assert.Empty(t, snap.Edges)
}

func TestDisconnectUnknownEdge(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	err := s.Disconnect(ctx, "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRemoveNodeDropsTouchingEdges(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	_, err := s.AddSourceNode(ctx, "a", somePattern())
	require.NoError(t, err)
	_, err = s.AddModifierNode(ctx, "m", "reverse", nil)
	require.NoError(t, err)
	_, err = s.AddModifierNode(ctx, "n", "invert", nil)
	require.NoError(t, err)
	_, err = s.Connect(ctx, "a", "m", "pattern")
	require.NoError(t, err)
	_, err = s.Connect(ctx, "m", "n", "pattern")
	require.NoError(t, err)

	require.NoError(t, s.RemoveNode(ctx, "m"))

	snap := s.Snapshot(ctx)
	assert.Len(t, snap.Nodes, 2)
	assert.Empty(t, snap.Edges, "both edges touched the removed node")
}

func TestSetPositionalSlots(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	_, err := s.AddModifierNode(ctx, "m", "concat", nil)
	require.NoError(t, err)

	require.NoError(t, s.SetPositionalSlots(ctx, "m", 3))
	snap := s.Snapshot(ctx)
	assert.Equal(t, 3, snap.Nodes["m"].PositionalSlots)

	err = s.SetPositionalSlots(ctx, "m", -1)
	require.Error(t, err)
}

func TestReplaceSwapsGraphAndClearsCache(t *testing.T) {
	ctx := context.Background()
	s, inv := newTestStore()

	_, err := s.AddSourceNode(ctx, "old", somePattern())
	require.NoError(t, err)

	incoming := graph.New()
	incoming.Nodes["fresh"] = &graph.Node{ID: "fresh", Kind: graph.KindSource, Pattern: somePattern()}
	s.Replace(ctx, incoming)

	assert.Equal(t, 1, inv.clearCount())

	snap := s.Snapshot(ctx)
	assert.Nil(t, snap.Nodes["old"])
	require.NotNil(t, snap.Nodes["fresh"])

	// The store cloned the incoming graph, so mutating the caller's copy
	// does not leak into snapshots.
	incoming.Nodes["fresh"].PositionalSlots = 9
	assert.Equal(t, 0, s.Snapshot(ctx).Nodes["fresh"].PositionalSlots)
}

func TestReplaceNilInstallsEmptyGraph(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	_, err := s.AddSourceNode(ctx, "old", somePattern())
	require.NoError(t, err)

	s.Replace(ctx, nil)
	assert.Empty(t, s.Snapshot(ctx).Nodes)
}

func TestSubscribeDebouncesNotifications(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	var fired atomic.Int32
	s.Subscribe(func() { fired.Add(1) })

	for i := 0; i < 5; i++ {
		_, err := s.AddSourceNode(ctx, "", somePattern())
		require.NoError(t, err)
	}

	assert.Eventually(t, func() bool {
		return fired.Load() >= 1
	}, time.Second, 5*time.Millisecond)

	// Five rapid commits coalesce into far fewer callbacks.
	assert.Less(t, int(fired.Load()), 5)
}

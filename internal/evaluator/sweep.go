package evaluator

import (
	"context"

	"github.com/vk/patterngridgo/internal/ctxlog"
	"github.com/vk/patterngridgo/internal/graph"
	"github.com/vk/patterngridgo/internal/pattern"
)

// AllPatterns evaluates every node in the snapshot and returns the results
// that are both non-nil and non-empty, keyed by node id.
func (ev *Evaluator) AllPatterns(ctx context.Context, g *graph.Graph) map[string]*pattern.Pattern {
	return ev.collect(ctx, g, g.NodeIDs())
}

// LeafPatterns is AllPatterns restricted to graph sinks, the nodes nothing
// else consumes. Those are what playback renders.
func (ev *Evaluator) LeafPatterns(ctx context.Context, g *graph.Graph) map[string]*pattern.Pattern {
	return ev.collect(ctx, g, g.Sinks())
}

func (ev *Evaluator) collect(ctx context.Context, g *graph.Graph, ids []string) map[string]*pattern.Pattern {
	out := make(map[string]*pattern.Pattern)
	for _, id := range ids {
		p := ev.Evaluate(ctx, g, id)
		if p == nil || len(p.Events) == 0 {
			continue
		}
		out[id] = p
	}
	return out
}

// InvalidateNode evicts a node's cached result plus everything downstream of
// it, breadth-first over outgoing edges. Callers mutating the graph issue
// this against the pre-mutation snapshot before committing, so no reader can
// observe a result computed against the old topology.
func (ev *Evaluator) InvalidateNode(ctx context.Context, g *graph.Graph, nodeID string) {
	ev.cache.Evict(nodeID)
	downstream := g.Downstream(nodeID)
	for _, id := range downstream {
		ev.cache.Evict(id)
	}
	ctxlog.FromContext(ctx).Debug("Invalidated node and downstream dependents.",
		"node_id", nodeID,
		"evicted", len(downstream)+1,
	)
}

// ClearCache drops every cached result.
func (ev *Evaluator) ClearCache() {
	ev.cache.Clear()
}

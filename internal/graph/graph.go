package graph

import (
	"sort"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/patterngridgo/internal/pattern"
)

// NodeKind distinguishes stored material from derived material.
type NodeKind string

const (
	// KindSource marks a node holding a hand-authored pattern.
	KindSource NodeKind = "source"
	// KindModifier marks a node deriving its pattern from its inputs.
	KindModifier NodeKind = "modifier"
)

// Node is one vertex of the modifier graph.
//
// Source nodes carry Pattern and ignore the modifier fields. Modifier nodes
// carry ModifierType plus Params and leave Pattern nil. Version counts
// committed mutations; the evaluator folds it into its dependency stamps, so
// a bumped version is what makes downstream caches stale.
type Node struct {
	ID           string
	Kind         NodeKind
	Pattern      *pattern.Pattern
	ModifierType string
	Params       map[string]cty.Value
	// PositionalSlots is how many positional inputs the editor has laid out
	// for this node. Binding still follows the edges; this only drives
	// placeholder rendering.
	PositionalSlots int
	Version         int64
}

// Clone returns a copy safe to hand to another snapshot. The pattern pointer
// is shared: stored patterns are read-only by contract and edits go through
// the store, which installs a fresh one.
func (n *Node) Clone() *Node {
	c := *n
	if n.Params != nil {
		c.Params = make(map[string]cty.Value, len(n.Params))
		for k, v := range n.Params {
			c.Params[k] = v
		}
	}
	return &c
}

// Edge is a directed connection from a source node's output to one named
// input port of a target node.
type Edge struct {
	ID         string
	Source     string
	Target     string
	TargetPort string
}

// Graph is an immutable snapshot of nodes and edges.
type Graph struct {
	Nodes map[string]*Node
	Edges []*Edge
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{Nodes: make(map[string]*Node)}
}

// Clone deep-copies the snapshot's structure. Patterns and cty values are
// shared; both are immutable by contract.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		Nodes: make(map[string]*Node, len(g.Nodes)),
		Edges: make([]*Edge, 0, len(g.Edges)),
	}
	for id, n := range g.Nodes {
		c.Nodes[id] = n.Clone()
	}
	for _, e := range g.Edges {
		edge := *e
		c.Edges = append(c.Edges, &edge)
	}
	return c
}

// Node looks a node up by id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.Nodes[id]
	return n, ok
}

// NodeIDs returns every node id in lexical order. Deterministic iteration
// keeps evaluation sweeps and diagnostics stable run to run.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// EdgesInto returns the edges whose target is the given node, in stored
// order.
func (g *Graph) EdgesInto(target string) []*Edge {
	var edges []*Edge
	for _, e := range g.Edges {
		if e.Target == target {
			edges = append(edges, e)
		}
	}
	return edges
}

// KeywordSource resolves the single edge feeding the named keyword port.
// Port uniqueness is enforced at mutation time, so the first match wins.
func (g *Graph) KeywordSource(target, key string) (string, bool) {
	for _, e := range g.Edges {
		if e.Target == target && e.TargetPort == key {
			return e.Source, true
		}
	}
	return "", false
}

// PositionalSources returns the source ids feeding the target's positional
// ports, ordered by slot index.
func (g *Graph) PositionalSources(target string) []string {
	type slot struct {
		index  int
		source string
	}
	var slots []slot
	for _, e := range g.Edges {
		if e.Target != target {
			continue
		}
		if n, ok := ParsePositionalPort(e.TargetPort); ok {
			slots = append(slots, slot{index: n, source: e.Source})
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].index < slots[j].index })

	sources := make([]string, 0, len(slots))
	for _, s := range slots {
		sources = append(sources, s.source)
	}
	return sources
}

// Sinks returns the ids of nodes with no outgoing edge, in lexical order.
func (g *Graph) Sinks() []string {
	hasOut := make(map[string]bool, len(g.Nodes))
	for _, e := range g.Edges {
		hasOut[e.Source] = true
	}

	var sinks []string
	for id := range g.Nodes {
		if !hasOut[id] {
			sinks = append(sinks, id)
		}
	}
	sort.Strings(sinks)
	return sinks
}

// Downstream returns every node transitively reachable from id along
// source->target edges, breadth-first, excluding id itself. A changed value
// can only affect things computed from it, so this is exactly the set a
// mutation makes stale.
func (g *Graph) Downstream(id string) []string {
	outgoing := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		outgoing[e.Source] = append(outgoing[e.Source], e.Target)
	}

	visited := map[string]bool{id: true}
	queue := []string{id}
	var result []string

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, target := range outgoing[current] {
			if visited[target] {
				continue
			}
			visited[target] = true
			result = append(result, target)
			queue = append(queue, target)
		}
	}
	return result
}

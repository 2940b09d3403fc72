package evaluator

import (
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/vk/patterngridgo/internal/graph"
)

// stampsFor computes dependency stamps for every node reachable upstream of
// rootID. A node's stamp folds its id, kind, modifier type and version
// together with the stamps of its inputs, port by port, so any committed
// change upstream of a node changes the node's own stamp. Stamps are purely
// structural: computing them never evaluates anything.
func stampsFor(g *graph.Graph, incoming map[string][]*graph.Edge, rootID string) map[string]uint64 {
	stamps := make(map[string]uint64)
	inProgress := make(map[string]bool)

	stack := []frame{{id: rootID}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, ok := stamps[f.id]; ok {
			continue
		}
		node, ok := g.Node(f.id)
		if !ok {
			stamps[f.id] = 0
			continue
		}

		if !f.expanded {
			if inProgress[f.id] {
				continue
			}
			inProgress[f.id] = true
			stack = append(stack, frame{id: f.id, expanded: true})
			for _, e := range incoming[f.id] {
				if _, done := stamps[e.Source]; done || inProgress[e.Source] {
					// An in-progress source is a cycle edge; it contributes
					// the zero stamp below instead of being walked.
					continue
				}
				stack = append(stack, frame{id: e.Source})
			}
			continue
		}

		stamps[f.id] = stampNode(node, dependencyStamps(incoming[f.id], stamps))
		delete(inProgress, f.id)
	}
	return stamps
}

// depStamp pairs one input port with the stamp of the node feeding it.
type depStamp struct {
	port   string
	source string
	stamp  uint64
}

// dependencyStamps lists a node's input contributions in canonical order, so
// the same topology always hashes the same regardless of edge insertion
// order.
func dependencyStamps(edges []*graph.Edge, stamps map[string]uint64) []depStamp {
	deps := make([]depStamp, 0, len(edges))
	for _, e := range edges {
		deps = append(deps, depStamp{port: e.TargetPort, source: e.Source, stamp: stamps[e.Source]})
	}
	sort.Slice(deps, func(i, j int) bool {
		if deps[i].port != deps[j].port {
			return deps[i].port < deps[j].port
		}
		return deps[i].source < deps[j].source
	})
	return deps
}

func stampNode(n *graph.Node, deps []depStamp) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s|%d|%d|", n.ID, n.Kind, n.ModifierType, n.Version, n.PositionalSlots)
	for _, d := range deps {
		fmt.Fprintf(h, "%s>%x|", d.port, d.stamp)
	}
	return h.Sum64()
}

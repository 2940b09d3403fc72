package graph

import "sort"

// DetectCycles searches the snapshot for a cycle and returns the shortest
// witness found as a node-id path closed back on itself, e.g. [a b a] for
// a <-> b. Returns nil for an acyclic graph.
//
// This is advisory tooling: evaluation does not run it automatically, it
// guards itself against cycles independently.
func (g *Graph) DetectCycles() []string {
	// Classic depth-first search with two marker sets. permanent holds nodes
	// proven safe, onStack holds the index of each node on the current path
	// so the witness slice can be cut out directly.
	successors := g.successorLists()

	permanent := make(map[string]bool, len(g.Nodes))
	onStack := make(map[string]int)
	var path []string
	var witness []string

	var visit func(id string) bool
	visit = func(id string) bool {
		if permanent[id] {
			return false
		}
		if at, ok := onStack[id]; ok {
			witness = append(append([]string{}, path[at:]...), id)
			return true
		}

		onStack[id] = len(path)
		path = append(path, id)

		for _, next := range successors[id] {
			if visit(next) {
				return true
			}
		}

		path = path[:len(path)-1]
		delete(onStack, id)
		permanent[id] = true
		return false
	}

	// Sorted roots make the returned witness stable for a given graph.
	for _, id := range g.NodeIDs() {
		if !permanent[id] {
			if visit(id) {
				return witness
			}
		}
	}
	return nil
}

// successorLists builds a sorted adjacency list over source->target edges.
func (g *Graph) successorLists() map[string][]string {
	successors := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		successors[e.Source] = append(successors[e.Source], e.Target)
	}
	for id := range successors {
		sort.Strings(successors[id])
	}
	return successors
}

// Package graphstore owns the live modifier graph and serializes every
// mutation of it.
//
// The store keeps the authoritative topology behind a mutex and hands out
// immutable snapshots. Each mutation clones the current graph, applies the
// change to the clone and swaps it in, so a snapshot taken before a commit
// stays internally consistent forever.
//
// Before any commit that changes what a node would evaluate to, the store
// calls its Invalidator with the pre-mutation snapshot and the affected node
// id, inside the same critical section as the commit itself. Eviction
// therefore sees the edge set as it existed before the change, and no reader
// can slip between eviction and commit.
package graphstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/google/uuid"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/patterngridgo/internal/config"
	"github.com/vk/patterngridgo/internal/ctxlog"
	"github.com/vk/patterngridgo/internal/graph"
	"github.com/vk/patterngridgo/internal/pattern"
)

// Invalidator evicts derived results for a node and everything downstream of
// it. The evaluator satisfies this.
type Invalidator interface {
	InvalidateNode(ctx context.Context, g *graph.Graph, nodeID string)
	ClearCache()
}

// Store is the thread-safe owner of the live graph.
type Store struct {
	mu          sync.RWMutex
	graph       *graph.Graph
	invalidator Invalidator

	listenerMu sync.Mutex
	listeners  []func()
	debounced  func(func())
}

// New creates an empty store. Mutation notifications are coalesced through
// the given debounce interval before listeners run.
func New(invalidator Invalidator, debounceInterval time.Duration) *Store {
	return &Store{
		graph:       graph.New(),
		invalidator: invalidator,
		debounced:   debounce.New(debounceInterval),
	}
}

// Snapshot returns an immutable copy of the current graph.
func (s *Store) Snapshot(ctx context.Context) *graph.Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph.Clone()
}

// Subscribe registers a listener invoked, debounced, after commits. The
// listener runs on the debounce timer's goroutine and should only signal,
// not do work.
func (s *Store) Subscribe(fn func()) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) notify() {
	s.debounced(func() {
		s.listenerMu.Lock()
		listeners := make([]func(), len(s.listeners))
		copy(listeners, s.listeners)
		s.listenerMu.Unlock()

		for _, fn := range listeners {
			fn()
		}
	})
}

// AddSourceNode adds a node holding a stored pattern. A blank id is minted.
func (s *Store) AddSourceNode(ctx context.Context, id string, p *pattern.Pattern) (string, error) {
	if p == nil {
		p = pattern.Empty()
	}
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.graph.Nodes[id]; exists {
		return "", fmt.Errorf("node '%s' already exists", id)
	}

	next := s.graph.Clone()
	next.Nodes[id] = &graph.Node{ID: id, Kind: graph.KindSource, Pattern: p}
	s.commit(ctx, next, "add_source", id)
	return id, nil
}

// AddModifierNode adds a node deriving its pattern through the named
// modifier. A blank id is minted. The params map should already carry the
// modifier key; the caller typically builds it from registry defaults.
func (s *Store) AddModifierNode(ctx context.Context, id, modifierType string, params map[string]cty.Value) (string, error) {
	if modifierType == "" {
		return "", fmt.Errorf("modifier type is required")
	}
	if id == "" {
		id = uuid.NewString()
	}
	if params == nil {
		params = map[string]cty.Value{}
	}
	if _, ok := params[config.ModifierKey]; !ok {
		params[config.ModifierKey] = cty.StringVal(modifierType)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.graph.Nodes[id]; exists {
		return "", fmt.Errorf("node '%s' already exists", id)
	}

	next := s.graph.Clone()
	next.Nodes[id] = &graph.Node{
		ID:           id,
		Kind:         graph.KindModifier,
		ModifierType: modifierType,
		Params:       params,
	}
	s.commit(ctx, next, "add_modifier", id)
	return id, nil
}

// UpdateSourcePattern replaces a source node's stored pattern.
func (s *Store) UpdateSourcePattern(ctx context.Context, id string, p *pattern.Pattern) error {
	if p == nil {
		p = pattern.Empty()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.graph.Nodes[id]
	if !ok {
		return fmt.Errorf("node '%s' not found", id)
	}
	if n.Kind != graph.KindSource {
		return fmt.Errorf("node '%s' is not a source node", id)
	}

	s.invalidate(ctx, id)

	next := s.graph.Clone()
	node := next.Nodes[id]
	node.Pattern = p
	node.Version++
	s.commit(ctx, next, "update_pattern", id)
	return nil
}

// UpdateNodeParams replaces a modifier node's parameter values. A changed
// modifier key retypes the node.
func (s *Store) UpdateNodeParams(ctx context.Context, id string, params map[string]cty.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.graph.Nodes[id]
	if !ok {
		return fmt.Errorf("node '%s' not found", id)
	}
	if n.Kind != graph.KindModifier {
		return fmt.Errorf("node '%s' is not a modifier node", id)
	}
	if params == nil {
		params = map[string]cty.Value{}
	}

	s.invalidate(ctx, id)

	next := s.graph.Clone()
	node := next.Nodes[id]
	node.Params = params
	if v, ok := params[config.ModifierKey]; ok && v.Type() == cty.String && !v.IsNull() {
		node.ModifierType = v.AsString()
	}
	node.Version++
	s.commit(ctx, next, "update_params", id)
	return nil
}

// SetPositionalSlots records how many positional inputs the editor lays out
// for a node. Binding still follows the edges.
func (s *Store) SetPositionalSlots(ctx context.Context, id string, slots int) error {
	if slots < 0 {
		return fmt.Errorf("slot count cannot be negative, got %d", slots)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.graph.Nodes[id]; !ok {
		return fmt.Errorf("node '%s' not found", id)
	}

	s.invalidate(ctx, id)

	next := s.graph.Clone()
	node := next.Nodes[id]
	node.PositionalSlots = slots
	node.Version++
	s.commit(ctx, next, "set_slots", id)
	return nil
}

// RemoveNode deletes a node and every edge touching it.
func (s *Store) RemoveNode(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.graph.Nodes[id]; !ok {
		return fmt.Errorf("node '%s' not found", id)
	}

	// Downstream consumers lose their input; the node's own entry goes with
	// them.
	s.invalidate(ctx, id)

	next := s.graph.Clone()
	delete(next.Nodes, id)
	kept := next.Edges[:0]
	for _, e := range next.Edges {
		if e.Source == id || e.Target == id {
			continue
		}
		kept = append(kept, e)
	}
	next.Edges = kept
	s.commit(ctx, next, "remove_node", id)
	return nil
}

// Connect wires a source node's output into one input port of a target
// node. Ports hold at most one edge; connecting an occupied port is an
// error, not a replacement.
func (s *Store) Connect(ctx context.Context, source, target, port string) (string, error) {
	if port == "" {
		return "", fmt.Errorf("target port is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.graph.Nodes[source]; !ok {
		return "", fmt.Errorf("source node '%s' not found", source)
	}
	if _, ok := s.graph.Nodes[target]; !ok {
		return "", fmt.Errorf("target node '%s' not found", target)
	}
	for _, e := range s.graph.Edges {
		if e.Target == target && e.TargetPort == port {
			return "", fmt.Errorf("port '%s' of node '%s' is already connected", port, target)
		}
	}

	s.invalidate(ctx, target)

	id := uuid.NewString()
	next := s.graph.Clone()
	next.Edges = append(next.Edges, &graph.Edge{
		ID:         id,
		Source:     source,
		Target:     target,
		TargetPort: port,
	})
	s.commit(ctx, next, "connect", target)
	return id, nil
}

// Disconnect removes an edge by id.
func (s *Store) Disconnect(ctx context.Context, edgeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var target string
	found := false
	for _, e := range s.graph.Edges {
		if e.ID == edgeID {
			target = e.Target
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("edge '%s' not found", edgeID)
	}

	s.invalidate(ctx, target)

	next := s.graph.Clone()
	kept := next.Edges[:0]
	for _, e := range next.Edges {
		if e.ID == edgeID {
			continue
		}
		kept = append(kept, e)
	}
	next.Edges = kept
	s.commit(ctx, next, "disconnect", target)
	return nil
}

// Replace swaps in a whole new graph, dropping every derived result. The
// incoming graph is cloned, so the caller keeps ownership of its copy.
func (s *Store) Replace(ctx context.Context, g *graph.Graph) {
	if g == nil {
		g = graph.New()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.invalidator != nil {
		s.invalidator.ClearCache()
	}
	s.commit(ctx, g.Clone(), "replace", "")
}

// invalidate evicts derived results against the pre-mutation snapshot.
// Callers hold the write lock, so nothing commits between this and the swap.
func (s *Store) invalidate(ctx context.Context, id string) {
	if s.invalidator == nil {
		return
	}
	s.invalidator.InvalidateNode(ctx, s.graph, id)
}

// commit swaps the mutated clone in and schedules a change notification.
// Callers hold the write lock.
func (s *Store) commit(ctx context.Context, next *graph.Graph, op, id string) {
	s.graph = next
	ctxlog.FromContext(ctx).Debug("Graph mutation committed.",
		"op", op,
		"node_id", id,
		"nodes", len(next.Nodes),
		"edges", len(next.Edges),
	)
	s.notify()
}

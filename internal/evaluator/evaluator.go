package evaluator

import (
	"context"
	"sort"

	"github.com/vk/patterngridgo/internal/config"
	"github.com/vk/patterngridgo/internal/ctxlog"
	"github.com/vk/patterngridgo/internal/evalcache"
	"github.com/vk/patterngridgo/internal/graph"
	"github.com/vk/patterngridgo/internal/modifier"
	"github.com/vk/patterngridgo/internal/pattern"
	"github.com/vk/patterngridgo/internal/registry"
)

// Evaluator derives patterns from graph snapshots, memoizing per-node
// results in a shared cache. It holds no graph state of its own; each call
// works against the snapshot it is handed.
type Evaluator struct {
	registry  *registry.Registry
	converter config.Converter
	cache     evalcache.Store
}

// New creates an evaluator over the given registry, parameter converter and
// result cache.
func New(r *registry.Registry, converter config.Converter, cache evalcache.Store) *Evaluator {
	return &Evaluator{registry: r, converter: converter, cache: cache}
}

// Evaluate returns the pattern for one node, or nil when the node is unknown
// or evaluation fails. Failed evaluations are cached negatively and will not
// be retried until invalidated or until the node's dependency stamp changes.
func (ev *Evaluator) Evaluate(ctx context.Context, g *graph.Graph, nodeID string) *pattern.Pattern {
	if _, ok := g.Node(nodeID); !ok {
		ctxlog.FromContext(ctx).Warn("Evaluation requested for unknown node.", "node_id", nodeID)
		return nil
	}
	run := newEvalRun(ev, g, nodeID)
	return run.drive(ctx, nodeID)
}

// evalRun is the per-call working state: an incoming-edge index and
// structural stamps for the reachable subgraph, plus the results settled so
// far. The index keeps deep graphs linear; scanning the edge slice per node
// would go quadratic.
type evalRun struct {
	ev         *Evaluator
	graph      *graph.Graph
	incoming   map[string][]*graph.Edge
	stamps     map[string]uint64
	results    map[string]*pattern.Pattern
	done       map[string]bool
	inProgress map[string]bool
}

func newEvalRun(ev *Evaluator, g *graph.Graph, rootID string) *evalRun {
	incoming := make(map[string][]*graph.Edge, len(g.Nodes))
	for _, e := range g.Edges {
		incoming[e.Target] = append(incoming[e.Target], e)
	}
	return &evalRun{
		ev:         ev,
		graph:      g,
		incoming:   incoming,
		stamps:     stampsFor(g, incoming, rootID),
		results:    make(map[string]*pattern.Pattern),
		done:       make(map[string]bool),
		inProgress: make(map[string]bool),
	}
}

// frame is one entry of the explicit evaluation stack. A node is pushed
// once to expand its dependencies and a second time, expanded, to settle
// its own result after they are done.
type frame struct {
	id       string
	expanded bool
}

// drive evaluates nodeID bottom-up with an explicit stack, so graph depth
// never translates into call-stack depth.
func (r *evalRun) drive(ctx context.Context, nodeID string) *pattern.Pattern {
	logger := ctxlog.FromContext(ctx)

	stack := []frame{{id: nodeID}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if r.done[f.id] {
			continue
		}

		node, ok := r.graph.Node(f.id)
		if !ok {
			// Dangling edge source. Settled as a failed upstream, but not
			// cached: there is no node for an invalidation to ever reach.
			logger.Warn("Edge references a node missing from the snapshot.", "node_id", f.id)
			r.results[f.id] = nil
			r.done[f.id] = true
			continue
		}

		if !f.expanded {
			if r.inProgress[f.id] {
				// Already expanded via another path; its settle frame is
				// somewhere below us on the stack.
				continue
			}
			if p, stamp, ok := r.ev.cache.Load(f.id); ok && stamp == r.stamps[f.id] {
				logger.Debug("Evaluation cache hit.", "node_id", f.id)
				r.results[f.id] = p
				r.done[f.id] = true
				continue
			}

			r.inProgress[f.id] = true
			stack = append(stack, frame{id: f.id, expanded: true})
			for _, dep := range r.dependencies(f.id) {
				if r.done[dep] || r.inProgress[dep] {
					continue
				}
				stack = append(stack, frame{id: dep})
			}
			continue
		}

		result := r.compute(ctx, node)
		r.ev.cache.StoreResult(f.id, result, r.stamps[f.id])
		r.results[f.id] = result
		r.done[f.id] = true
		delete(r.inProgress, f.id)
	}

	return r.results[nodeID]
}

// dependencies lists the source ids feeding any of the node's input ports.
func (r *evalRun) dependencies(id string) []string {
	edges := r.incoming[id]
	sources := make([]string, 0, len(edges))
	for _, e := range edges {
		sources = append(sources, e.Source)
	}
	return sources
}

// keywordSource resolves the edge feeding one keyword port of a node.
func (r *evalRun) keywordSource(id, key string) (string, bool) {
	for _, e := range r.incoming[id] {
		if e.TargetPort == key {
			return e.Source, true
		}
	}
	return "", false
}

// positionalSources lists the sources feeding a node's positional ports,
// ordered by slot index.
func (r *evalRun) positionalSources(id string) []string {
	type slot struct {
		index  int
		source string
	}
	var slots []slot
	for _, e := range r.incoming[id] {
		if n, ok := graph.ParsePositionalPort(e.TargetPort); ok {
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

// compute settles one node from its already-settled dependencies.
func (r *evalRun) compute(ctx context.Context, node *graph.Node) *pattern.Pattern {
	logger := ctxlog.FromContext(ctx).With("node_id", node.ID)

	switch node.Kind {
	case graph.KindSource:
		// Stored patterns are returned as-is. They are read-only by
		// contract; edits go through the store, which swaps in a new one.
		return node.Pattern
	case graph.KindModifier:
		return r.computeModifier(ctx, node)
	default:
		logger.Error("Unknown node kind.", "kind", string(node.Kind))
		return nil
	}
}

func (r *evalRun) computeModifier(ctx context.Context, node *graph.Node) *pattern.Pattern {
	logger := ctxlog.FromContext(ctx).With("node_id", node.ID, "modifier", node.ModifierType)

	def, ok := r.ev.registry.Definition(node.ModifierType)
	if !ok {
		logger.Error("Unknown modifier type.")
		return nil
	}

	handlerName := ""
	if def.Lifecycle != nil {
		handlerName = def.Lifecycle.OnApply
	}
	handler, ok := r.ev.registry.Handler(handlerName)
	if !ok {
		logger.Error("Modifier handler not registered.", "handler", handlerName)
		return nil
	}

	inputs, ok := r.bindInputs(ctx, node, def)
	if !ok {
		return nil
	}

	paramsStruct := handler.NewParams()
	if paramsStruct != nil {
		if err := r.ev.converter.DecodeParams(ctx, paramsStruct, node.Params, def.Params); err != nil {
			logger.Error("Parameter decoding failed.", "error", err)
			return nil
		}
	}

	logger.Debug("Calling modifier apply handler.", "handler", handlerName)
	out, err := callHandler(ctx, handler, inputs, paramsStruct)
	if err != nil {
		logger.Error("Modifier evaluation failed.", "error", err)
		return nil
	}
	return out
}

// bindInputs assembles a modifier's inputs from its settled upstream
// results. A false return is a structural failure, already logged.
func (r *evalRun) bindInputs(ctx context.Context, node *graph.Node, def *config.ModifierDefinition) (*modifier.Inputs, bool) {
	logger := ctxlog.FromContext(ctx).With("node_id", node.ID, "modifier", node.ModifierType)

	in := &modifier.Inputs{}

	keys := make([]string, 0, len(def.Inputs))
	for key := range def.Inputs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		inputDef := def.Inputs[key]
		source, connected := r.keywordSource(node.ID, key)

		var p *pattern.Pattern
		if connected {
			p = r.upstreamResult(ctx, node.ID, source)
		}

		if p == nil {
			// A failed upstream binds the same as an unconnected port.
			if inputDef.Required {
				logger.Error("Required input is not bound.", "input", key)
				return nil, false
			}
			continue
		}
		if in.Keyword == nil {
			in.Keyword = make(map[string]*pattern.Pattern)
		}
		in.Keyword[key] = p
	}

	if def.Positional != nil {
		sources := r.positionalSources(node.ID)
		for _, source := range sources {
			p := r.upstreamResult(ctx, node.ID, source)
			if p == nil {
				// Failed positional upstreams are compacted out of the
				// sequence, which shifts every later slot down by one.
				logger.Warn("Dropping failed positional input.", "source", source)
				continue
			}
			in.Positional = append(in.Positional, p)
		}
		if len(in.Positional) < def.Positional.MinCount {
			logger.Error("Too few positional inputs.",
				"got", len(in.Positional),
				"min", def.Positional.MinCount,
			)
			return nil, false
		}
	}

	return in, true
}

// upstreamResult reads a dependency's settled result. A dependency still in
// progress means the edge closes a cycle; it binds as nil.
func (r *evalRun) upstreamResult(ctx context.Context, nodeID, source string) *pattern.Pattern {
	if r.inProgress[source] {
		ctxlog.FromContext(ctx).Warn("Cycle detected during evaluation, binding input as failed.",
			"node_id", nodeID,
			"source", source,
		)
		return nil
	}
	return r.results[source]
}

package graphdoc

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/vk/patterngridgo/internal/config"
	"github.com/vk/patterngridgo/internal/graph"
	"github.com/vk/patterngridgo/internal/pattern"
	"github.com/vk/patterngridgo/internal/rational"
)

// Document is a complete graph in document form.
type Document struct {
	Nodes []NodeDoc `json:"nodes"`
	Edges []EdgeDoc `json:"edges,omitempty"`
}

// NodeDoc is one node. Source nodes carry pattern, modifier nodes carry
// modifier and params.
type NodeDoc struct {
	ID              string                     `json:"id"`
	Kind            string                     `json:"kind"`
	Pattern         *PatternDoc                `json:"pattern,omitempty"`
	Modifier        string                     `json:"modifier,omitempty"`
	Params          map[string]json.RawMessage `json:"params,omitempty"`
	PositionalSlots int                        `json:"positional_slots,omitempty"`
	Version         int64                      `json:"version,omitempty"`
}

// EdgeDoc is one connection. A blank id is minted on decode.
type EdgeDoc struct {
	ID     string `json:"id,omitempty"`
	Source string `json:"source"`
	Target string `json:"target"`
	Port   string `json:"port"`
}

// PatternDoc is a pattern in document form. A nil duration means derived.
type PatternDoc struct {
	Events   []EventDoc `json:"events"`
	Duration *string    `json:"duration,omitempty"`
	Bounds   *BoundsDoc `json:"bounds,omitempty"`
}

// EventDoc is one timed note.
type EventDoc struct {
	Start    string `json:"start"`
	Duration string `json:"duration"`
	Pitch    int    `json:"pitch"`
	Velocity int    `json:"velocity"`
}

// BoundsDoc is the derived extent of a pattern, encode-only.
type BoundsDoc struct {
	MinPitch int    `json:"min_pitch"`
	MaxPitch int    `json:"max_pitch"`
	MinTime  string `json:"min_time"`
	MaxTime  string `json:"max_time"`
}

// EncodeNode converts one node to document form.
func EncodeNode(n *graph.Node) (NodeDoc, error) {
	nd := NodeDoc{
		ID:              n.ID,
		Kind:            string(n.Kind),
		PositionalSlots: n.PositionalSlots,
		Version:         n.Version,
	}
	switch n.Kind {
	case graph.KindSource:
		nd.Pattern = EncodePattern(n.Pattern)
	case graph.KindModifier:
		nd.Modifier = n.ModifierType
		params, err := EncodeParams(n.Params)
		if err != nil {
			return NodeDoc{}, fmt.Errorf("encoding params of node '%s': %w", n.ID, err)
		}
		nd.Params = params
	}
	return nd, nil
}

// FromGraph encodes a snapshot. Nodes are emitted in lexical id order so the
// same graph always serializes identically.
func FromGraph(g *graph.Graph) (*Document, error) {
	doc := &Document{}
	for _, id := range g.NodeIDs() {
		nd, err := EncodeNode(g.Nodes[id])
		if err != nil {
			return nil, err
		}
		doc.Nodes = append(doc.Nodes, nd)
	}

	edges := make([]*graph.Edge, len(g.Edges))
	copy(edges, g.Edges)
	sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })
	for _, e := range edges {
		doc.Edges = append(doc.Edges, EdgeDoc{
			ID:     e.ID,
			Source: e.Source,
			Target: e.Target,
			Port:   e.TargetPort,
		})
	}
	return doc, nil
}

// ToGraph decodes and structurally validates a document: unique node ids,
// edges between existing nodes, one edge per port.
func (d *Document) ToGraph() (*graph.Graph, error) {
	g := graph.New()

	for _, nd := range d.Nodes {
		if nd.ID == "" {
			return nil, fmt.Errorf("node with empty id")
		}
		if _, exists := g.Nodes[nd.ID]; exists {
			return nil, fmt.Errorf("duplicate node id '%s'", nd.ID)
		}

		node := &graph.Node{
			ID:              nd.ID,
			PositionalSlots: nd.PositionalSlots,
			Version:         nd.Version,
		}
		switch graph.NodeKind(nd.Kind) {
		case graph.KindSource:
			p, err := DecodePattern(nd.Pattern)
			if err != nil {
				return nil, fmt.Errorf("node '%s': %w", nd.ID, err)
			}
			node.Kind = graph.KindSource
			node.Pattern = p
		case graph.KindModifier:
			if nd.Modifier == "" {
				return nil, fmt.Errorf("node '%s': modifier kind requires a modifier type", nd.ID)
			}
			params, err := DecodeParams(nd.Params)
			if err != nil {
				return nil, fmt.Errorf("node '%s': %w", nd.ID, err)
			}
			if _, ok := params[config.ModifierKey]; !ok {
				params[config.ModifierKey] = cty.StringVal(nd.Modifier)
			}
			node.Kind = graph.KindModifier
			node.ModifierType = nd.Modifier
			node.Params = params
		default:
			return nil, fmt.Errorf("node '%s': unknown kind '%s'", nd.ID, nd.Kind)
		}
		g.Nodes[nd.ID] = node
	}

	ports := make(map[string]bool)
	for _, ed := range d.Edges {
		if _, ok := g.Nodes[ed.Source]; !ok {
			return nil, fmt.Errorf("edge references unknown source node '%s'", ed.Source)
		}
		if _, ok := g.Nodes[ed.Target]; !ok {
			return nil, fmt.Errorf("edge references unknown target node '%s'", ed.Target)
		}
		if ed.Port == "" {
			return nil, fmt.Errorf("edge '%s' -> '%s' has no target port", ed.Source, ed.Target)
		}
		portKey := ed.Target + "\x00" + ed.Port
		if ports[portKey] {
			return nil, fmt.Errorf("port '%s' of node '%s' is connected twice", ed.Port, ed.Target)
		}
		ports[portKey] = true

		id := ed.ID
		if id == "" {
			id = uuid.NewString()
		}
		g.Edges = append(g.Edges, &graph.Edge{
			ID:         id,
			Source:     ed.Source,
			Target:     ed.Target,
			TargetPort: ed.Port,
		})
	}
	return g, nil
}

// EncodePattern converts a pattern to document form. Nil encodes as nil.
func EncodePattern(p *pattern.Pattern) *PatternDoc {
	if p == nil {
		return nil
	}
	doc := &PatternDoc{Events: make([]EventDoc, 0, len(p.Events))}
	for _, e := range p.Events {
		doc.Events = append(doc.Events, EventDoc{
			Start:    e.Start.String(),
			Duration: e.Duration.String(),
			Pitch:    e.Pitch,
			Velocity: e.Velocity,
		})
	}
	if p.Duration != nil {
		s := p.Duration.String()
		doc.Duration = &s
	}
	if p.Bounds != nil {
		doc.Bounds = &BoundsDoc{
			MinPitch: p.Bounds.MinPitch,
			MaxPitch: p.Bounds.MaxPitch,
			MinTime:  p.Bounds.MinTime.String(),
			MaxTime:  p.Bounds.MaxTime.String(),
		}
	}
	return doc
}

// DecodePattern parses a pattern document, recomputing bounds. A nil
// document decodes to an empty pattern.
func DecodePattern(doc *PatternDoc) (*pattern.Pattern, error) {
	if doc == nil {
		return pattern.Empty(), nil
	}

	events := make([]pattern.Event, 0, len(doc.Events))
	for i, ed := range doc.Events {
		start, err := rational.Parse(ed.Start)
		if err != nil {
			return nil, fmt.Errorf("event %d: bad start: %w", i, err)
		}
		dur, err := rational.Parse(ed.Duration)
		if err != nil {
			return nil, fmt.Errorf("event %d: bad duration: %w", i, err)
		}
		if dur.Sign() < 0 {
			return nil, fmt.Errorf("event %d: negative duration %s", i, ed.Duration)
		}
		if ed.Pitch < 0 || ed.Pitch > pattern.MaxPitch {
			return nil, fmt.Errorf("event %d: pitch %d out of range [0,%d]", i, ed.Pitch, pattern.MaxPitch)
		}
		if ed.Velocity < 0 || ed.Velocity > pattern.MaxVelocity {
			return nil, fmt.Errorf("event %d: velocity %d out of range [0,%d]", i, ed.Velocity, pattern.MaxVelocity)
		}
		events = append(events, pattern.Event{
			Start: start,
			Note:  pattern.Note{Duration: dur, Pitch: ed.Pitch, Velocity: ed.Velocity},
		})
	}

	var duration *rational.Rational
	if doc.Duration != nil {
		d, err := rational.Parse(*doc.Duration)
		if err != nil {
			return nil, fmt.Errorf("bad pattern duration: %w", err)
		}
		duration = &d
	}
	return pattern.WithBounds(events, duration), nil
}

// EncodeParams converts in-memory param values to raw JSON.
func EncodeParams(params map[string]cty.Value) (map[string]json.RawMessage, error) {
	if len(params) == 0 {
		return nil, nil
	}
	out := make(map[string]json.RawMessage, len(params))
	for name, v := range params {
		raw, err := EncodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("param %q: %w", name, err)
		}
		out[name] = raw
	}
	return out, nil
}

// EncodeValue converts one cty value to raw JSON. Nulls of any type encode
// as plain JSON null.
func EncodeValue(v cty.Value) (json.RawMessage, error) {
	if v == cty.NilVal || v.IsNull() {
		return json.RawMessage("null"), nil
	}
	raw, err := ctyjson.Marshal(v, v.Type())
	return json.RawMessage(raw), err
}

// DecodeParams converts raw JSON param values to the cty values nodes carry.
// Types are implied from the JSON; schema validation against the modifier's
// manifest happens separately.
func DecodeParams(params map[string]json.RawMessage) (map[string]cty.Value, error) {
	out := make(map[string]cty.Value, len(params))
	for name, raw := range params {
		if string(raw) == "null" {
			out[name] = cty.NullVal(cty.DynamicPseudoType)
			continue
		}
		ty, err := ctyjson.ImpliedType(raw)
		if err != nil {
			return nil, fmt.Errorf("param %q: %w", name, err)
		}
		v, err := ctyjson.Unmarshal(raw, ty)
		if err != nil {
			return nil, fmt.Errorf("param %q: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/patterngridgo/internal/config"
	"github.com/vk/patterngridgo/internal/graph"
	"github.com/vk/patterngridgo/internal/graphdoc"
)

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot(r.Context())
	doc, err := graphdoc.FromGraph(snap)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleReplaceGraph(w http.ResponseWriter, r *http.Request) {
	var doc graphdoc.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid graph document: %s", err))
		return
	}
	g, err := doc.ToGraph()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.store.Replace(r.Context(), g)
	writeJSON(w, http.StatusOK, map[string]int{
		"nodes": len(g.Nodes),
		"edges": len(g.Edges),
	})
}

func (s *Server) handleCreateNode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var nd graphdoc.NodeDoc
	if err := json.NewDecoder(r.Body).Decode(&nd); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid node document: %s", err))
		return
	}

	var id string
	switch graph.NodeKind(nd.Kind) {
	case graph.KindSource:
		p, err := graphdoc.DecodePattern(nd.Pattern)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		id, err = s.store.AddSourceNode(ctx, nd.ID, p)
		if err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}

	case graph.KindModifier:
		params, status, perr := s.buildModifierParams(nd.Modifier, nd.Params, nil)
		if perr != nil {
			writeError(w, status, perr.Error())
			return
		}
		created, err := s.store.AddModifierNode(ctx, nd.ID, nd.Modifier, params)
		if err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		id = created

	default:
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("unknown node kind '%s'", nd.Kind))
		return
	}

	if nd.PositionalSlots > 0 {
		if err := s.store.SetPositionalSlots(ctx, id, nd.PositionalSlots); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	s.respondWithNode(w, r, id, http.StatusCreated)
}

func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	s.respondWithNode(w, r, mux.Vars(r)["id"], http.StatusOK)
}

// patchNodeBody carries the editable fields of a node. Absent fields are
// left alone.
type patchNodeBody struct {
	Pattern         *graphdoc.PatternDoc       `json:"pattern"`
	Params          map[string]json.RawMessage `json:"params"`
	PositionalSlots *int                       `json:"positional_slots"`
}

func (s *Server) handlePatchNode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	node, ok := s.store.Snapshot(ctx).Node(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("node '%s' not found", id))
		return
	}

	var body patchNodeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid patch document: %s", err))
		return
	}

	if body.Params != nil {
		if node.Kind != graph.KindModifier {
			writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("node '%s' is not a modifier node", id))
			return
		}
		params, status, err := s.patchedParams(node, body.Params)
		if err != nil {
			writeError(w, status, err.Error())
			return
		}
		if err := s.store.UpdateNodeParams(ctx, id, params); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if body.Pattern != nil {
		if node.Kind != graph.KindSource {
			writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("node '%s' is not a source node", id))
			return
		}
		p, err := graphdoc.DecodePattern(body.Pattern)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		if err := s.store.UpdateSourcePattern(ctx, id, p); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if body.PositionalSlots != nil {
		if err := s.store.SetPositionalSlots(ctx, id, *body.PositionalSlots); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}

	s.respondWithNode(w, r, id, http.StatusOK)
}

func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.store.RemoveNode(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// createEdgeBody is the request shape for connecting two nodes.
type createEdgeBody struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Port   string `json:"port"`
}

func (s *Server) handleCreateEdge(w http.ResponseWriter, r *http.Request) {
	var body createEdgeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid edge document: %s", err))
		return
	}
	id, err := s.store.Connect(r.Context(), body.Source, body.Target, body.Port)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, graphdoc.EdgeDoc{
		ID:     id,
		Source: body.Source,
		Target: body.Target,
		Port:   body.Port,
	})
}

func (s *Server) handleDeleteEdge(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.store.Disconnect(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// respondWithNode re-reads the node from the store so the response shows the
// committed state, version bump included.
func (s *Server) respondWithNode(w http.ResponseWriter, r *http.Request, id string, status int) {
	node, ok := s.store.Snapshot(r.Context()).Node(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("node '%s' not found", id))
		return
	}
	nd, err := graphdoc.EncodeNode(node)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, status, nd)
}

// buildModifierParams decodes raw params for a new node of the given type,
// seeds missing values from the manifest defaults, and validates the result.
// The returned status is the HTTP status to use when err is non-nil.
func (s *Server) buildModifierParams(modifierType string, raw map[string]json.RawMessage, base map[string]cty.Value) (map[string]cty.Value, int, error) {
	if modifierType == "" {
		return nil, http.StatusUnprocessableEntity, fmt.Errorf("modifier nodes require a modifier type")
	}
	def, ok := s.registry.Definition(modifierType)
	if !ok {
		return nil, http.StatusUnprocessableEntity, fmt.Errorf("unknown modifier type '%s'", modifierType)
	}

	if base == nil {
		base, _ = s.registry.DefaultParams(modifierType)
	}
	merged := make(map[string]cty.Value, len(base)+len(raw))
	for k, v := range base {
		merged[k] = v
	}

	provided, err := graphdoc.DecodeParams(raw)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	for k, v := range provided {
		merged[k] = v
	}
	merged[config.ModifierKey] = cty.StringVal(modifierType)

	validated, err := config.ValidateParams(def, merged)
	if err != nil {
		return nil, http.StatusUnprocessableEntity, err
	}
	return validated, http.StatusOK, nil
}

// patchedParams merges a params patch over the node's current values. A
// changed modifier key rebases onto the new type's defaults instead, since
// the old values belong to the old schema.
func (s *Server) patchedParams(node *graph.Node, raw map[string]json.RawMessage) (map[string]cty.Value, int, error) {
	targetType := node.ModifierType
	if rawType, ok := raw[config.ModifierKey]; ok {
		var name string
		if err := json.Unmarshal(rawType, &name); err != nil {
			return nil, http.StatusBadRequest, fmt.Errorf("modifier key must be a string: %w", err)
		}
		targetType = name
	}

	base := node.Params
	if targetType != node.ModifierType {
		base = nil // rebase onto the new type's defaults
	}
	return s.buildModifierParams(targetType, raw, base)
}

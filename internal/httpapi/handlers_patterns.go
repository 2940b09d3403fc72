package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/vk/patterngridgo/internal/graphdoc"
	"github.com/vk/patterngridgo/internal/pattern"
	"github.com/vk/patterngridgo/internal/smf"
)

func encodePatternMap(patterns map[string]*pattern.Pattern) map[string]*graphdoc.PatternDoc {
	out := make(map[string]*graphdoc.PatternDoc, len(patterns))
	for id, p := range patterns {
		out[id] = graphdoc.EncodePattern(p)
	}
	return out
}

func (s *Server) handleAllPatterns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap := s.store.Snapshot(ctx)
	writeJSON(w, http.StatusOK, encodePatternMap(s.evaluator.AllPatterns(ctx, snap)))
}

func (s *Server) handleLeafPatterns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap := s.store.Snapshot(ctx)
	writeJSON(w, http.StatusOK, encodePatternMap(s.evaluator.LeafPatterns(ctx, snap)))
}

// patternResponse pairs a node id with its evaluation result. A failed or
// unknown-input evaluation shows up as a null pattern rather than an error:
// partial graphs are a normal editing state.
type patternResponse struct {
	ID      string               `json:"id"`
	Pattern *graphdoc.PatternDoc `json:"pattern"`
}

func (s *Server) handleGetPattern(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	snap := s.store.Snapshot(ctx)
	if _, ok := snap.Node(id); !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("node '%s' not found", id))
		return
	}
	p := s.evaluator.Evaluate(ctx, snap, id)
	writeJSON(w, http.StatusOK, patternResponse{ID: id, Pattern: graphdoc.EncodePattern(p)})
}

// cyclesResponse reports whether the graph is evaluable as a DAG, with one
// witness cycle when it is not.
type cyclesResponse struct {
	Acyclic bool     `json:"acyclic"`
	Witness []string `json:"witness,omitempty"`
}

func (s *Server) handleCycles(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot(r.Context())
	witness := snap.DetectCycles()
	writeJSON(w, http.StatusOK, cyclesResponse{
		Acyclic: len(witness) == 0,
		Witness: witness,
	})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	snap := s.store.Snapshot(ctx)
	if _, ok := snap.Node(id); !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("node '%s' not found", id))
		return
	}
	p := s.evaluator.Evaluate(ctx, snap, id)
	if p == nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("node '%s' did not evaluate to a pattern", id))
		return
	}

	opts := smf.RenderOptions{TrackName: id}
	query := r.URL.Query()
	if raw := query.Get("ppq"); raw != "" {
		ppq, err := strconv.ParseUint(raw, 10, 16)
		if err != nil || ppq == 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid ppq '%s'", raw))
			return
		}
		opts.PPQ = uint16(ppq)
	}
	if raw := query.Get("bpm"); raw != "" {
		bpm, err := strconv.ParseFloat(raw, 64)
		if err != nil || bpm <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid bpm '%s'", raw))
			return
		}
		opts.BPM = bpm
	}
	if raw := query.Get("name"); raw != "" {
		opts.TrackName = raw
	}

	file := smf.Render(ctx, p, opts)
	var buf bytes.Buffer
	if _, err := file.WriteTo(&buf); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("rendering failed: %s", err))
		return
	}

	if key := query.Get("upload"); key != "" {
		if s.uploader == nil {
			writeError(w, http.StatusBadRequest, "artifact upload is not configured")
			return
		}
		location, err := s.uploader.Upload(ctx, key, buf.Bytes(), "audio/midi")
		if err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"location": location})
		return
	}

	w.Header().Set("Content-Type", "audio/midi")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".mid"))
	_, _ = w.Write(buf.Bytes())
}

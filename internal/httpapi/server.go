// Package httpapi is the JSON surface a graph editor talks to: graph CRUD,
// evaluated pattern reads, cycle diagnostics, SMF rendering, and the
// modifier catalogue. Graphs and patterns travel in the graphdoc document
// form.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/vk/patterngridgo/internal/artifact"
	"github.com/vk/patterngridgo/internal/ctxlog"
	"github.com/vk/patterngridgo/internal/evaluator"
	"github.com/vk/patterngridgo/internal/graphstore"
	"github.com/vk/patterngridgo/internal/registry"
)

// Server owns the route table. It mutates the graph only through the store,
// so every edit picks up invalidation and change notifications.
type Server struct {
	store     *graphstore.Store
	evaluator *evaluator.Evaluator
	registry  *registry.Registry
	uploader  *artifact.Uploader
	logger    *slog.Logger
	handler   http.Handler
}

// NewServer wires the route table. The uploader may be nil, in which case
// render uploads are rejected.
func NewServer(store *graphstore.Store, ev *evaluator.Evaluator, reg *registry.Registry, uploader *artifact.Uploader, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		store:     store,
		evaluator: ev,
		registry:  reg,
		uploader:  uploader,
		logger:    logger,
	}

	router := mux.NewRouter().StrictSlash(true)
	router.Use(s.contextMiddleware)

	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	v1 := router.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/graph", s.handleGetGraph).Methods(http.MethodGet)
	v1.HandleFunc("/graph", s.handleReplaceGraph).Methods(http.MethodPut)
	v1.HandleFunc("/graph/nodes", s.handleCreateNode).Methods(http.MethodPost)
	v1.HandleFunc("/graph/nodes/{id}", s.handleGetNode).Methods(http.MethodGet)
	v1.HandleFunc("/graph/nodes/{id}", s.handlePatchNode).Methods(http.MethodPatch)
	v1.HandleFunc("/graph/nodes/{id}", s.handleDeleteNode).Methods(http.MethodDelete)
	v1.HandleFunc("/graph/edges", s.handleCreateEdge).Methods(http.MethodPost)
	v1.HandleFunc("/graph/edges/{id}", s.handleDeleteEdge).Methods(http.MethodDelete)
	v1.HandleFunc("/patterns", s.handleAllPatterns).Methods(http.MethodGet)
	v1.HandleFunc("/patterns/leaves", s.handleLeafPatterns).Methods(http.MethodGet)
	v1.HandleFunc("/patterns/{id}", s.handleGetPattern).Methods(http.MethodGet)
	v1.HandleFunc("/diagnostics/cycles", s.handleCycles).Methods(http.MethodGet)
	v1.HandleFunc("/render/{id}", s.handleRender).Methods(http.MethodGet)
	v1.HandleFunc("/modifiers", s.handleModifiers).Methods(http.MethodGet)

	s.handler = cors.AllowAll().Handler(router)
	return s
}

// Handler returns the fully wrapped route table.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// contextMiddleware threads the server's logger through each request context
// and records the request at debug level.
func (s *Server) contextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := ctxlog.WithLogger(r.Context(), s.logger)
		next.ServeHTTP(w, r.WithContext(ctx))
		s.logger.Debug("Request handled.",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start).String(),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

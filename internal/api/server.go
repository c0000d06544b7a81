// Package api serves question answering, search and ingestion over HTTP.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/CloudAIX/healthcare-rag-system/internal/config"
	"github.com/CloudAIX/healthcare-rag-system/internal/document"
	"github.com/CloudAIX/healthcare-rag-system/internal/generate"
	"github.com/CloudAIX/healthcare-rag-system/internal/pipeline"
)

// Retriever finds the stored chunks nearest to a question.
type Retriever interface {
	Retrieve(ctx context.Context, question string, topK int) ([]document.RetrievedChunk, error)
}

// Answerer turns a question and its chunks into a cited answer.
type Answerer interface {
	Generate(ctx context.Context, question string, chunks []document.RetrievedChunk) (*generate.Response, error)
	Model() string
}

// DocumentStore is the part of the vector store the API reads and prunes.
type DocumentStore interface {
	Count() int
	DeleteWhere(ctx context.Context, where map[string]string) (int, error)
}

// JobQueue accepts ingestion jobs and reports on them.
type JobQueue interface {
	Submit(job *pipeline.Job) error
	GetJob(id string) *pipeline.Job
}

// Deps are the collaborators behind the handlers.
type Deps struct {
	Jobs      JobQueue
	Retriever Retriever
	Generator Answerer
	Store     DocumentStore
	Stats     *generate.LLMStats
}

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	deps   Deps
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Deps, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		deps: deps,
		log:  log,
		cfg:  cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.RAGAPIKey, s.log))

		r.Post("/query", s.handleQuery)
		r.Get("/api/search", s.handleSearch)

		r.Post("/api/ingest", s.handleIngest)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)
		r.Post("/api/ingest/batch", s.handleBatchIngest)
		r.Get("/api/stats/llm", s.handleLLMStats)

		r.Delete("/api/documents/{filename}", s.handleDeleteDocument)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil || s.deps.Generator == nil {
		jsonError(w, "not initialised", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "healthy",
		"collection_size": s.deps.Store.Count(),
		"model":           s.deps.Generator.Model(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

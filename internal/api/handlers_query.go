package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/CloudAIX/healthcare-rag-system/internal/document"
	"github.com/CloudAIX/healthcare-rag-system/internal/embed"
	"github.com/CloudAIX/healthcare-rag-system/internal/vectorstore"
)

const (
	minQuestionLen = 5
	maxQuestionLen = 1000
	maxTopK        = 10
	maxQueryBody   = 64 << 10
)

type queryRequest struct {
	Question string `json:"question"`
	TopK     *int   `json:"top_k"`
}

type source struct {
	ChunkID          string   `json:"chunk_id"`
	Citation         string   `json:"citation"`
	DocumentTitle    string   `json:"document_title"`
	DocumentFilename string   `json:"document_filename"`
	PageNumbers      []int    `json:"page_numbers"`
	Sections         []string `json:"sections"`
	Score            float64  `json:"score"`
	Text             string   `json:"text,omitempty"`
}

type queryResponse struct {
	Question     string   `json:"question"`
	Answer       string   `json:"answer"`
	Model        string   `json:"model"`
	InputTokens  int      `json:"input_tokens"`
	OutputTokens int      `json:"output_tokens"`
	CostUSD      float64  `json:"cost_usd"`
	LatencyMs    float64  `json:"latency_ms"`
	Sources      []source `json:"sources"`
}

func toSource(c document.RetrievedChunk, withText bool) source {
	s := source{
		ChunkID:          c.ID,
		Citation:         c.Citation(),
		DocumentTitle:    c.DocumentTitle,
		DocumentFilename: c.DocumentFilename,
		PageNumbers:      c.PageNumbers,
		Sections:         c.Sections,
		Score:            c.Score,
	}
	if s.PageNumbers == nil {
		s.PageNumbers = []int{}
	}
	if s.Sections == nil {
		s.Sections = []string{}
	}
	if withText {
		s.Text = c.Text
	}
	return s
}

func (s *Server) defaultTopK() int {
	if s.cfg.TopK > 0 {
		return s.cfg.TopK
	}
	return 5
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, maxQueryBody)

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}

	question := strings.TrimSpace(req.Question)
	if n := utf8.RuneCountInString(question); n < minQuestionLen || n > maxQuestionLen {
		jsonError(w, "question must be between 5 and 1000 characters", http.StatusUnprocessableEntity)
		return
	}
	topK := s.defaultTopK()
	if req.TopK != nil {
		topK = *req.TopK
	}
	if topK < 1 || topK > maxTopK {
		jsonError(w, "top_k must be between 1 and 10", http.StatusUnprocessableEntity)
		return
	}

	chunks, err := s.deps.Retriever.Retrieve(r.Context(), question, topK)
	if err != nil {
		s.log.Error("retrieval failed", "error", err)
		jsonError(w, "retrieval failed: "+err.Error(), retrievalStatus(err))
		return
	}
	if len(chunks) == 0 {
		jsonError(w, "No relevant documents found.", http.StatusNotFound)
		return
	}

	resp, err := s.deps.Generator.Generate(r.Context(), question, chunks)
	if err != nil {
		s.log.Error("generation failed", "error", err)
		jsonError(w, "generation failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	sources := make([]source, len(resp.Chunks))
	for i, c := range resp.Chunks {
		sources[i] = toSource(c, false)
	}
	writeJSON(w, http.StatusOK, queryResponse{
		Question:     resp.Question,
		Answer:       resp.Answer,
		Model:        resp.Model,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
		CostUSD:      resp.CostUSD(),
		LatencyMs:    float64(time.Since(start).Microseconds()) / 1000,
		Sources:      sources,
	})
}

// handleSearch returns the nearest chunks without generating an answer.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		jsonError(w, "q query parameter is required", http.StatusBadRequest)
		return
	}
	topK := s.defaultTopK()
	if v := r.URL.Query().Get("top_k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxTopK {
			jsonError(w, "top_k must be between 1 and 10", http.StatusUnprocessableEntity)
			return
		}
		topK = n
	}

	chunks, err := s.deps.Retriever.Retrieve(r.Context(), q, topK)
	if err != nil {
		s.log.Error("search failed", "error", err)
		jsonError(w, "search failed: "+err.Error(), retrievalStatus(err))
		return
	}

	results := make([]source, len(chunks))
	for i, c := range chunks {
		results[i] = toSource(c, true)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   q,
		"results": results,
	})
}

// retrievalStatus maps collaborator outages to 503 and everything else to 500.
func retrievalStatus(err error) int {
	if errors.Is(err, embed.ErrEmbeddingUnavailable) ||
		errors.Is(err, vectorstore.ErrStoreUnavailable) ||
		errors.Is(err, vectorstore.ErrQueryFailed) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// Package generate produces cited answers from retrieved chunks with Claude.
package generate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/CloudAIX/healthcare-rag-system/internal/document"
	"github.com/CloudAIX/healthcare-rag-system/internal/retry"
)

// Per-million-token prices used for cost reporting.
const (
	inputPricePerMTok  = 3.0
	outputPricePerMTok = 15.0
)

// CostUSD prices a call from its token usage.
func CostUSD(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)*inputPricePerMTok/1_000_000 +
		float64(outputTokens)*outputPricePerMTok/1_000_000
}

// Completer is the model call the generator depends on.
type Completer interface {
	Complete(ctx context.Context, req Request) (Completion, error)
}

// Response is a generated answer with the chunks it was grounded on.
type Response struct {
	Question     string
	Answer       string
	Chunks       []document.RetrievedChunk
	Model        string
	InputTokens  int
	OutputTokens int
	Latency      time.Duration
}

// CostUSD prices the call that produced r.
func (r *Response) CostUSD() float64 {
	return CostUSD(r.InputTokens, r.OutputTokens)
}

// Options configures a Generator.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
	Prompts     Prompts
	Retry       retry.Policy
}

type Generator struct {
	client Completer
	opts   Options
	stats  *LLMStats
	log    *slog.Logger
}

func NewGenerator(client Completer, opts Options, stats *LLMStats, log *slog.Logger) *Generator {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1024
	}
	if strings.TrimSpace(opts.Prompts.SystemPrompt) == "" {
		opts.Prompts = DefaultPrompts()
	}
	return &Generator{client: client, opts: opts, stats: stats, log: log}
}

// Model returns the configured model name.
func (g *Generator) Model() string { return g.opts.Model }

// Generate answers question from chunks. The chunks are placed in the
// system prompt as numbered context blocks and the question is sent as the
// user turn.
func (g *Generator) Generate(ctx context.Context, question string, chunks []document.RetrievedChunk) (*Response, error) {
	system := RenderSystemPrompt(g.opts.Prompts.SystemPrompt, BuildContext(chunks), question)
	req := Request{
		Model:       g.opts.Model,
		System:      system,
		User:        question,
		MaxTokens:   g.opts.MaxTokens,
		Temperature: g.opts.Temperature,
	}

	start := time.Now()
	out, err := retry.DoValue(ctx, g.opts.Retry, func(ctx context.Context) (Completion, error) {
		return g.client.Complete(ctx, req)
	})
	latency := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	if g.stats != nil {
		g.stats.Record(latency.Milliseconds(), out.InputTokens, out.OutputTokens)
	}
	g.log.Info("answer generated",
		"model", g.opts.Model,
		"chunks", len(chunks),
		"input_tokens", out.InputTokens,
		"output_tokens", out.OutputTokens,
		"latency_ms", latency.Milliseconds(),
	)

	return &Response{
		Question:     question,
		Answer:       out.Text,
		Chunks:       chunks,
		Model:        g.opts.Model,
		InputTokens:  out.InputTokens,
		OutputTokens: out.OutputTokens,
		Latency:      latency,
	}, nil
}

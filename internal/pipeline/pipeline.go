// Package pipeline assembles the retrieval-and-rerank engine: embed the
// question, retrieve candidates across corpora, rerank, compose a
// grounded prompt, and generate a cited answer.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kestrellabs/lexrag/internal/answer"
	"github.com/kestrellabs/lexrag/internal/compose"
	"github.com/kestrellabs/lexrag/internal/llm"
	"github.com/kestrellabs/lexrag/internal/observability"
	"github.com/kestrellabs/lexrag/internal/rerank"
	"github.com/kestrellabs/lexrag/internal/retrieve"
)

// Source is one cited passage in the order it appears in the context.
type Source struct {
	Ref  string `json:"ref"`
	Text string `json:"text"`
}

// Result is the complete output of one request: an answer plus the
// ordered sources it was grounded on.
type Result struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// Engine holds every collaborator a request needs. Construct it
// explicitly and share it across requests; it keeps no per-request state,
// so concurrent Ask calls are safe.
type Engine struct {
	embedder  llm.Provider
	retriever *retrieve.Retriever
	reranker  rerank.Strategy // nil disables reranking
	generator *answer.Generator
	finalK    int
	logger    *slog.Logger
}

// New creates an Engine. reranker may be nil for direct retrieval.
func New(embedder llm.Provider, retriever *retrieve.Retriever, reranker rerank.Strategy, generator *answer.Generator, finalK int) *Engine {
	if finalK <= 0 {
		finalK = rerank.DefaultFinalK
	}
	return &Engine{
		embedder:  embedder,
		retriever: retriever,
		reranker:  reranker,
		generator: generator,
		finalK:    finalK,
		logger:    slog.Default(),
	}
}

// Ask runs one question through the full pipeline.
func (e *Engine) Ask(ctx context.Context, question string) (*Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuery
	}

	queryVector, err := e.embed(ctx, question)
	if err != nil {
		return nil, err
	}

	retrieveCtx, retrieveSpan := observability.StartStageSpan(ctx, "retrieve")
	cands, err := e.retriever.Retrieve(retrieveCtx, queryVector)
	observability.RecordError(retrieveSpan, err)
	retrieveSpan.End()
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	if len(cands) == 0 {
		e.logger.Warn("no passages retrieved", "question", question)
	}

	if e.reranker != nil {
		rerankCtx, rerankSpan := observability.StartStageSpan(ctx, "rerank")
		cands = e.reranker.Rerank(rerankCtx, question, queryVector, cands)
		rerankSpan.End()
	}
	cands = rerank.Select(cands, e.finalK)

	prompt := compose.GroundingPrompt(question, cands)

	genCtx, genSpan := observability.StartLLMSpan(ctx, e.generator.Name(), "generate")
	text, err := e.generator.Generate(genCtx, prompt)
	observability.RecordError(genSpan, err)
	genSpan.End()
	if err != nil {
		return nil, classify(ErrGeneration, err)
	}

	sources := make([]Source, len(cands))
	for i, c := range cands {
		sources[i] = Source{Ref: c.Ref, Text: c.Text}
	}
	return &Result{Answer: text, Sources: sources}, nil
}

func (e *Engine) embed(ctx context.Context, question string) ([]float32, error) {
	ctx, span := observability.StartLLMSpan(ctx, e.embedder.Name(), "embed")
	defer span.End()

	vectors, err := e.embedder.Embed(ctx, []string{question})
	if err != nil {
		observability.RecordError(span, err)
		return nil, classify(ErrEmbedding, err)
	}
	if len(vectors) != 1 || len(vectors[0]) == 0 {
		err := fmt.Errorf("%w: got %d vectors for one input", ErrEmbedding, len(vectors))
		observability.RecordError(span, err)
		return nil, err
	}
	return vectors[0], nil
}

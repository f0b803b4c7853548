// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BeagleMind Contributors

// Package rag wires retrieval and generation into a single question
// answering engine.
package rag

import (
	"context"
	"log/slog"
	"strings"

	"github.com/beagleboard/beaglemind/internal/backend"
	"github.com/beagleboard/beaglemind/internal/embedding"
	"github.com/beagleboard/beaglemind/internal/vectorstore"
	bmerr "github.com/beagleboard/beaglemind/pkg/errors"
)

// DefaultTopK is the number of chunks retrieved when the caller does not
// override it.
const DefaultTopK = 5

// Engine answers prompts using a vector store for retrieval and an LLM
// backend for generation.
type Engine struct {
	store    vectorstore.VectorStore
	embedder embedding.Embedder
	llm      backend.Backend
}

// NewEngine assembles an Engine from its three collaborators.
func NewEngine(store vectorstore.VectorStore, embedder embedding.Embedder, llm backend.Backend) *Engine {
	return &Engine{store: store, embedder: embedder, llm: llm}
}

// AskRequest is one question to answer.
type AskRequest struct {
	Prompt      string
	Model       string
	Temperature float64
	Strategy    Strategy
	TopK        int
}

// Source cites a retrieved chunk that informed the answer.
type Source struct {
	FilePath   string
	SourceLink string
	Score      float32
}

// Answer is the generated response plus its provenance.
type Answer struct {
	Content  string
	Model    string
	Strategy Strategy
	Sources  []Source
	Usage    backend.Usage
}

// Ask retrieves context for the prompt with the requested strategy and
// generates an answer.
func (e *Engine) Ask(ctx context.Context, req AskRequest) (*Answer, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, bmerr.New(bmerr.CodeRAGPromptInvalid, "prompt must not be empty")
	}
	if req.TopK <= 0 {
		req.TopK = DefaultTopK
	}

	strategy := req.Strategy
	if strategy == "" || strategy == StrategyAdaptive {
		strategy = classify(req.Prompt)
		slog.Debug("adaptive strategy resolved", "strategy", strategy)
	}

	chunks, err := e.retrieve(ctx, strategy, req.Prompt, req.Model, req.Temperature, req.TopK)
	if err != nil {
		return nil, bmerr.Wrap(err, bmerr.CodeRAGRetrieveFailure, "retrieving context",
			bmerr.FieldStrategy(string(strategy)))
	}
	slog.Debug("context retrieved", "strategy", strategy, "chunks", len(chunks))

	resp, err := e.llm.Generate(ctx, backend.Request{
		Model:       req.Model,
		Temperature: req.Temperature,
		Messages: []backend.Message{
			backend.SystemMessage(systemPrompt),
			backend.UserMessage(buildUserPrompt(req.Prompt, chunks)),
		},
	})
	if err != nil {
		// Backend errors keep their own codes (missing key, unknown model,
		// upstream failure) so the CLI can report them precisely.
		return nil, err
	}
	if strings.TrimSpace(resp.Content) == "" {
		return nil, bmerr.New(bmerr.CodeRAGGenerateFailure,
			"backend returned an empty answer",
			bmerr.FieldModel(req.Model), bmerr.FieldStrategy(string(strategy)))
	}

	sources := make([]Source, 0, len(chunks))
	for _, c := range chunks {
		sources = append(sources, Source{
			FilePath:   c.FilePath,
			SourceLink: c.SourceLink,
			Score:      c.Score,
		})
	}

	return &Answer{
		Content:  resp.Content,
		Model:    resp.Model,
		Strategy: strategy,
		Sources:  sources,
		Usage:    resp.Usage,
	}, nil
}

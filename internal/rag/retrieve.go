// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BeagleMind Contributors

package rag

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/beagleboard/beaglemind/internal/backend"
	"github.com/beagleboard/beaglemind/internal/vectorstore"
	bmerr "github.com/beagleboard/beaglemind/pkg/errors"
)

const (
	// maxReformulations bounds LLM query expansion in multi-query mode.
	maxReformulations = 3

	// rrfK is the reciprocal-rank fusion constant.
	rrfK = 60
)

func (e *Engine) retrieve(ctx context.Context, strategy Strategy, prompt, model string, temperature float64, topK int) ([]vectorstore.SearchResult, error) {
	switch strategy {
	case StrategyDefault:
		return e.retrieveDefault(ctx, prompt, topK)
	case StrategyMultiQuery:
		return e.retrieveMultiQuery(ctx, prompt, model, temperature, topK)
	case StrategyContextAware:
		return e.retrieveContextAware(ctx, prompt, topK)
	default:
		return nil, bmerr.Errorf(bmerr.CodeRAGStrategyUnknown, "unresolved strategy %q", strategy)
	}
}

// retrieveDefault embeds the prompt and runs a single KNN search.
func (e *Engine) retrieveDefault(ctx context.Context, prompt string, topK int) ([]vectorstore.SearchResult, error) {
	vecs, err := e.embedder.Embed(ctx, []string{prompt})
	if err != nil {
		return nil, err
	}
	return e.store.Search(ctx, vectorstore.SearchQuery{Vector: vecs[0], TopK: topK})
}

const reformulatePrompt = `Rewrite the following question into %d alternative search queries that use different wording but target the same information. Output one query per line with no numbering or commentary.

Question: %s`

// retrieveMultiQuery asks the LLM for alternative phrasings, searches each,
// and fuses the ranked lists with reciprocal-rank fusion. The original
// prompt is always the first query; reformulation failures degrade to the
// default strategy rather than failing the request.
func (e *Engine) retrieveMultiQuery(ctx context.Context, prompt, model string, temperature float64, topK int) ([]vectorstore.SearchResult, error) {
	queries := []string{prompt}

	resp, err := e.llm.Generate(ctx, backend.Request{
		Model:       model,
		Temperature: temperature,
		Messages: []backend.Message{
			backend.UserMessage(fmt.Sprintf(reformulatePrompt, maxReformulations, prompt)),
		},
	})
	if err != nil {
		slog.Warn("query reformulation failed, falling back to single query", "error", err)
	} else {
		queries = append(queries, parseReformulations(resp.Content, maxReformulations)...)
	}

	vecs, err := e.embedder.Embed(ctx, queries)
	if err != nil {
		return nil, err
	}

	type scored struct {
		result vectorstore.SearchResult
		score  float64
	}
	fused := make(map[string]*scored)

	for _, vec := range vecs {
		results, err := e.store.Search(ctx, vectorstore.SearchQuery{Vector: vec, TopK: topK})
		if err != nil {
			return nil, err
		}
		for rank, r := range results {
			s, ok := fused[r.ID]
			if !ok {
				s = &scored{result: r}
				fused[r.ID] = s
			}
			s.score += 1.0 / float64(rrfK+rank+1)
		}
	}

	ranked := make([]*scored, 0, len(fused))
	for _, s := range fused {
		ranked = append(ranked, s)
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	out := make([]vectorstore.SearchResult, len(ranked))
	for i, s := range ranked {
		out[i] = s.result
	}
	return out, nil
}

// parseReformulations extracts up to max clean query lines from LLM output.
func parseReformulations(content string, max int) []string {
	var queries []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789. ")
		if line == "" {
			continue
		}
		queries = append(queries, line)
		if len(queries) == max {
			break
		}
	}
	return queries
}

// retrieveContextAware pushes a prompt-derived metadata filter into the
// search, then expands each hit with its neighboring chunks so the model
// sees contiguous passages.
func (e *Engine) retrieveContextAware(ctx context.Context, prompt string, topK int) ([]vectorstore.SearchResult, error) {
	vecs, err := e.embedder.Embed(ctx, []string{prompt})
	if err != nil {
		return nil, err
	}

	query := vectorstore.SearchQuery{
		Vector: vecs[0],
		TopK:   topK,
		Filter: filterFromPrompt(prompt),
	}
	results, err := e.store.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	// A too-strict filter should not empty the context entirely.
	if len(results) == 0 && !query.Filter.IsZero() {
		query.Filter = vectorstore.Filter{}
		results, err = e.store.Search(ctx, query)
		if err != nil {
			return nil, err
		}
	}

	seen := make(map[string]bool, len(results))
	for _, r := range results {
		seen[r.ID] = true
	}

	expanded := make([]vectorstore.SearchResult, 0, len(results)*3)
	for _, r := range results {
		expanded = append(expanded, r)

		adjacent, err := e.store.Adjacent(ctx, r.FilePath, r.ChunkIndex)
		if err != nil {
			slog.Warn("adjacent chunk lookup failed", "file_path", r.FilePath, "error", err)
			continue
		}
		for _, a := range adjacent {
			if seen[a.ID] {
				continue
			}
			seen[a.ID] = true
			a.Score = r.Score // neighbors inherit the hit's relevance
			expanded = append(expanded, a)
		}
	}
	return expanded, nil
}

// languageHints maps prompt keywords to stored language values. Order is
// the precedence when a prompt mentions several languages.
var languageHints = []struct {
	hint string
	lang string
}{
	{"python", "python"},
	{"javascript", "javascript"},
	{"shell", "shell"},
	{"bash", "shell"},
	{"c++", "cpp"},
	{"devicetree", "devicetree"},
	{"dts", "devicetree"},
}

// filterFromPrompt derives a metadata filter from prompt wording.
func filterFromPrompt(prompt string) vectorstore.Filter {
	lower := strings.ToLower(prompt)
	var f vectorstore.Filter

	for _, hint := range codeHints {
		if strings.Contains(lower, hint) {
			wantCode := true
			f.HasCode = &wantCode
			break
		}
	}
	for _, h := range languageHints {
		if strings.Contains(lower, h.hint) {
			f.Language = h.lang
			break
		}
	}
	return f
}

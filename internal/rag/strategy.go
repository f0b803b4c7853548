// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BeagleMind Contributors

package rag

import (
	"strings"

	bmerr "github.com/beagleboard/beaglemind/pkg/errors"
)

// Strategy selects how a prompt is turned into vector store queries.
type Strategy string

const (
	// StrategyDefault embeds the prompt and runs a single KNN search.
	StrategyDefault Strategy = "default"

	// StrategyMultiQuery reformulates the prompt into several queries and
	// fuses the result lists.
	StrategyMultiQuery Strategy = "multi-query"

	// StrategyContextAware derives a metadata filter from the prompt and
	// expands hits with their neighboring chunks.
	StrategyContextAware Strategy = "context-aware"

	// StrategyAdaptive classifies the prompt and delegates to one of the
	// other strategies.
	StrategyAdaptive Strategy = "adaptive"
)

// Strategies returns all valid strategy names in display order.
func Strategies() []Strategy {
	return []Strategy{StrategyAdaptive, StrategyMultiQuery, StrategyContextAware, StrategyDefault}
}

// ParseStrategy validates a strategy name from user input.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyDefault, StrategyMultiQuery, StrategyContextAware, StrategyAdaptive:
		return Strategy(s), nil
	case "":
		return StrategyAdaptive, nil
	default:
		return "", bmerr.With(
			bmerr.Errorf(bmerr.CodeRAGStrategyUnknown,
				"unknown strategy %q, expected one of: adaptive, multi-query, context-aware, default", s),
			bmerr.FieldStrategy(s))
	}
}

// codeHints are terms that suggest the user is asking about source code.
var codeHints = []string{
	"function", "class", "method", "implement", "code", "snippet",
	"api", "struct", "compile", "error", "bug", "debug", "example",
	"pinmux", "overlay", "driver", "script",
}

// broadHints are terms that suggest a broad or comparative question where
// multiple query phrasings help recall.
var broadHints = []string{
	"compare", "difference", "vs", "versus", "overview", "explain",
	"why", "best", "options", "alternatives", "tradeoff",
}

// classify picks a concrete strategy for an adaptive request.
// Code-oriented prompts benefit from metadata filtering and neighbor
// expansion; broad questions from query reformulation; everything else
// takes the single-query path.
func classify(prompt string) Strategy {
	lower := strings.ToLower(prompt)

	for _, hint := range codeHints {
		if strings.Contains(lower, hint) {
			return StrategyContextAware
		}
	}

	words := strings.Fields(lower)
	for _, hint := range broadHints {
		for _, w := range words {
			if w == hint {
				return StrategyMultiQuery
			}
		}
	}
	if len(words) > 12 {
		return StrategyMultiQuery
	}

	return StrategyDefault
}

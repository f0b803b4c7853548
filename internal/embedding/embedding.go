// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BeagleMind Contributors

// Package embedding turns text into dense vectors for similarity search.
package embedding

import "context"

// Embedder produces fixed-dimension embedding vectors for input texts.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension reports the vector width of the configured model. It may
	// probe the model with a short input on first call.
	Dimension(ctx context.Context) (int, error)

	// Model returns the embedding model identifier.
	Model() string
}

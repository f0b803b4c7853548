// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BeagleMind Contributors

package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/beagleboard/beaglemind/internal/backend/ollama"
	bmerr "github.com/beagleboard/beaglemind/pkg/errors"
)

// DefaultModel is the embedding model pulled by the standard setup.
const DefaultModel = "nomic-embed-text"

// OllamaEmbedder implements Embedder using Ollama's /api/embed endpoint.
type OllamaEmbedder struct {
	host   string
	model  string
	client *http.Client

	mu        sync.Mutex
	dimension int
}

// NewOllamaEmbedder creates an embedder against the given Ollama host.
// Empty host falls back to OLLAMA_HOST, empty model to DefaultModel.
func NewOllamaEmbedder(host, model string) *OllamaEmbedder {
	if host == "" {
		host = ollama.HostFromEnv()
	}
	if model == "" {
		model = DefaultModel
	}
	return &OllamaEmbedder{
		host:   strings.TrimSuffix(host, "/"),
		model:  model,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (e *OllamaEmbedder) Model() string { return e.model }

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed returns one vector per input text.
func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(embedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, bmerr.Wrap(err, bmerr.CodeEmbeddingRequestFailure, "encoding embed request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.host+"/api/embed", bytes.NewReader(payload))
	if err != nil {
		return nil, bmerr.Wrap(err, bmerr.CodeEmbeddingRequestFailure, "building embed request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, bmerr.Wrapf(err, bmerr.CodeEmbeddingRequestFailure,
			"ollama embed server unreachable at %s", e.host)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, bmerr.Errorf(bmerr.CodeEmbeddingRequestFailure,
			"embed request for model %s failed (HTTP %d): %s", e.model, resp.StatusCode, string(raw))
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, bmerr.Wrap(err, bmerr.CodeEmbeddingResponseInvalid, "decoding embed response")
	}

	if len(out.Embeddings) != len(texts) {
		return nil, bmerr.Errorf(bmerr.CodeEmbeddingResponseInvalid,
			"embed response has %d vectors for %d inputs", len(out.Embeddings), len(texts))
	}
	return out.Embeddings, nil
}

// Dimension probes the model with a short input on first call and caches
// the result.
func (e *OllamaEmbedder) Dimension(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.dimension > 0 {
		return e.dimension, nil
	}

	vecs, err := e.Embed(ctx, []string{"test"})
	if err != nil {
		return 0, bmerr.Wrapf(err, bmerr.CodeEmbeddingDimensionUnknown,
			"probing dimension of embedding model %s", e.model)
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return 0, bmerr.Errorf(bmerr.CodeEmbeddingDimensionUnknown,
			"embedding model %s returned an empty probe vector", e.model)
	}

	e.dimension = len(vecs[0])
	return e.dimension, nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BeagleMind Contributors

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beagleboard/beaglemind/internal/config"
	"github.com/beagleboard/beaglemind/internal/vectorstore"
	"github.com/beagleboard/beaglemind/internal/vectorstore/sqlitevec"
	bmerr "github.com/beagleboard/beaglemind/pkg/errors"
)

func TestChat_NotInitialized(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	_, err := runCommand(t, "chat",
		"--config", filepath.Join(home, config.FileName),
		"--prompt", "how do I boot?")
	require.Error(t, err)
	assert.True(t, bmerr.HasCode(err, bmerr.CodeCLINotInitialized))
}

func TestChat_PromptRequired(t *testing.T) {
	path := writeTestConfig(t, nil)

	_, err := runCommand(t, "chat", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prompt")
}

func TestChat_UnknownStrategy(t *testing.T) {
	path := writeTestConfig(t, nil)

	_, err := runCommand(t, "chat", "--config", path, "--prompt", "x", "--strategy", "hybrid")
	require.Error(t, err)
	assert.True(t, bmerr.HasCode(err, bmerr.CodeRAGStrategyUnknown))
}

func TestChat_UnknownBackend(t *testing.T) {
	path := writeTestConfig(t, nil)

	_, err := runCommand(t, "chat", "--config", path, "--prompt", "x", "--backend", "openai")
	require.Error(t, err)
	assert.True(t, bmerr.HasCode(err, bmerr.CodeBackendUnknown))
}

func TestChat_UnknownModel(t *testing.T) {
	path := writeTestConfig(t, nil)

	_, err := runCommand(t, "chat", "--config", path, "--prompt", "x",
		"--backend", "ollama", "--model", "bogus:1b")
	require.Error(t, err)
	assert.True(t, bmerr.HasCode(err, bmerr.CodeBackendModelUnknown))
}

func TestChat_CollectionMissing(t *testing.T) {
	// Initialized config but nothing ingested yet: the collection check
	// fires before any backend credentials are resolved.
	path := writeTestConfig(t, nil)
	t.Setenv("GROQ_API_KEY", "")

	_, err := runCommand(t, "chat", "--config", path, "--prompt", "how do I boot?")
	require.Error(t, err)
	assert.True(t, bmerr.HasCode(err, bmerr.CodeVectorCollectionNotFound))
	assert.Contains(t, err.Error(), "beaglemind ingest")
}

func TestChat_GroqKeyMissing(t *testing.T) {
	path := writeTestConfig(t, func(cfg *config.Config) {
		cfg.DefaultBackend = "groq"
		cfg.DefaultModel = "llama-3.3-70b-versatile"
	})
	t.Setenv("GROQ_API_KEY", "")

	seedCollection(t)

	_, err := runCommand(t, "chat", "--config", path, "--prompt", "how do I boot?")
	require.Error(t, err)
	assert.True(t, bmerr.HasCode(err, bmerr.CodeBackendKeyMissing))
}

// seedCollection creates the sqlite collection under $HOME/.beaglemind with
// one indexed chunk.
func seedCollection(t *testing.T) {
	t.Helper()

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	dir := filepath.Join(home, ".beaglemind")
	require.NoError(t, os.MkdirAll(dir, 0o700))

	store, err := sqlitevec.Open(filepath.Join(dir, sqlitevec.DBFileName("test_docs")), "test_docs")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	require.NoError(t, store.EnsureCollection(ctx, 3))
	require.NoError(t, store.Insert(ctx, []vectorstore.Chunk{{
		ID:         "chunk-1",
		Document:   "Flash the image to an SD card and hold the boot button while powering on.",
		Embedding:  []float32{0.1, 0.2, 0.3},
		FileName:   "boot.md",
		FilePath:   "docs/boot.md",
		FileType:   ".md",
		SourceLink: "https://docs.beagle.cc/docs/boot.md",
		Language:   "markdown",
		ChunkIndex: 0,
	}}))
}

// newOllamaServer fakes the Ollama API for embedding and generation.
func newOllamaServer(t *testing.T, answer string) (*httptest.Server, *[]map[string]any) {
	t.Helper()

	var chatBodies []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/embed":
			var req struct {
				Input []string `json:"input"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			embeddings := make([][]float32, len(req.Input))
			for i := range req.Input {
				embeddings[i] = []float32{0.1, 0.2, 0.3}
			}
			require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"embeddings": embeddings}))
		case "/api/chat":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			chatBodies = append(chatBodies, body)
			require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
				"message":           map[string]any{"role": "assistant", "content": answer},
				"prompt_eval_count": 12,
				"eval_count":        5,
			}))
		case "/api/tags":
			require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"models": []any{}}))
		default:
			http.NotFound(w, r)
		}
	}))
	return srv, &chatBodies
}

func TestChat_AfterInit(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, config.FileName)

	_, err := runCommand(t, "init",
		"--config", path,
		"--collection", "test_docs",
		"--backend", "ollama",
		"--vector-backend", "sqlite")
	require.NoError(t, err)

	seedCollection(t)

	srv, chatBodies := newOllamaServer(t, "Use an SD card.")
	defer srv.Close()
	t.Setenv("OLLAMA_HOST", srv.URL)

	out, err := runCommand(t, "chat", "--config", path, "--prompt", "how do I boot?", "--plain")
	require.NoError(t, err)
	assert.Contains(t, out, "Use an SD card.")

	// The backend and model saved by init are used without flags.
	require.Len(t, *chatBodies, 1)
	assert.Equal(t, "llama3.2:3b", (*chatBodies)[0]["model"])
}

func TestChat_EndToEnd(t *testing.T) {
	path := writeTestConfig(t, nil) // default backend groq in saved config
	seedCollection(t)

	srv, chatBodies := newOllamaServer(t, "Hold the **boot button** while powering on.")
	defer srv.Close()
	t.Setenv("OLLAMA_HOST", srv.URL)

	out, err := runCommand(t, "chat",
		"--config", path,
		"--prompt", "how do I boot from the SD card?",
		"--backend", "ollama",
		"--temperature", "0.9",
		"--strategy", "default",
		"--sources",
		"--plain")
	require.NoError(t, err)

	assert.Contains(t, out, "Hold the **boot button** while powering on.")
	assert.Contains(t, out, "https://docs.beagle.cc/docs/boot.md")

	// The saved default backend is groq; the flag must win.
	require.Len(t, *chatBodies, 1)
	body := (*chatBodies)[0]
	assert.Equal(t, "llama3.2:3b", body["model"])

	opts, ok := body["options"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 0.9, opts["temperature"], 1e-9)

	// Retrieved context reaches the generation request.
	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	last, ok := messages[len(messages)-1].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, last["content"], "Flash the image to an SD card")
}

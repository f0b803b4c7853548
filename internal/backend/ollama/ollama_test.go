// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BeagleMind Contributors

package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/beagleboard/beaglemind/internal/backend"
	"github.com/beagleboard/beaglemind/internal/backend/ollama"
	bmerr "github.com/beagleboard/beaglemind/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.2:3b", req["model"])
		assert.Equal(t, false, req["stream"])

		msgs, ok := req["messages"].([]any)
		require.True(t, ok)
		require.Len(t, msgs, 2)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":             "llama3.2:3b",
			"message":           map[string]string{"role": "assistant", "content": "BeagleBone boards run Linux."},
			"done":              true,
			"prompt_eval_count": 42,
			"eval_count":        7,
		})
	}))
	defer srv.Close()

	b := ollama.New(ollama.Config{Host: srv.URL})
	resp, err := b.Generate(context.Background(), backend.Request{
		Model: "llama3.2:3b",
		Messages: []backend.Message{
			backend.SystemMessage("You are a documentation assistant."),
			backend.UserMessage("What OS do BeagleBone boards run?"),
		},
		Temperature: 0.3,
	})
	require.NoError(t, err)
	assert.Equal(t, "BeagleBone boards run Linux.", resp.Content)
	assert.Equal(t, 42, resp.Usage.InputTokens)
	assert.Equal(t, 7, resp.Usage.OutputTokens)
}

func TestGenerate_ModelNotPulled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"nope:1b\" not found, try pulling it first"}`))
	}))
	defer srv.Close()

	b := ollama.New(ollama.Config{Host: srv.URL})
	_, err := b.Generate(context.Background(), backend.Request{
		Model:       "nope:1b",
		Messages:    []backend.Message{backend.UserMessage("hi")},
		Temperature: 0.3,
	})
	require.Error(t, err)
	assert.True(t, bmerr.HasCode(err, bmerr.CodeBackendModelUnknown))
}

func TestGenerate_ServerDown(t *testing.T) {
	b := ollama.New(ollama.Config{Host: "http://127.0.0.1:1"})
	_, err := b.Generate(context.Background(), backend.Request{
		Model:       "llama3.2:3b",
		Messages:    []backend.Message{backend.UserMessage("hi")},
		Temperature: 0.3,
	})
	require.Error(t, err)
	assert.True(t, bmerr.HasCode(err, bmerr.CodeBackendUpstreamFailure))
	assert.True(t, bmerr.IsUpstreamFailure(err))
}

func TestAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer srv.Close()

	assert.True(t, ollama.New(ollama.Config{Host: srv.URL}).Available(context.Background()))
	assert.False(t, ollama.New(ollama.Config{Host: "http://127.0.0.1:1"}).Available(context.Background()))
}

func TestListInstalled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3.2:3b","size":2019393189},{"name":"nomic-embed-text:latest","size":274302450}]}`))
	}))
	defer srv.Close()

	b := ollama.New(ollama.Config{Host: srv.URL})
	names, err := b.ListInstalled(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3.2:3b", "nomic-embed-text:latest"}, names)
}

func TestHostFromEnv(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "")
	assert.Equal(t, ollama.DefaultHost, ollama.HostFromEnv())

	t.Setenv("OLLAMA_HOST", "http://remote:11434/")
	assert.Equal(t, "http://remote:11434", ollama.HostFromEnv())

	t.Setenv("OLLAMA_HOST", "remote:11434")
	assert.Equal(t, "http://remote:11434", ollama.HostFromEnv())
}

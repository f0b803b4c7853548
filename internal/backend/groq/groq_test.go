// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BeagleMind Contributors

package groq_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/beagleboard/beaglemind/internal/backend"
	"github.com/beagleboard/beaglemind/internal/backend/groq"
	bmerr "github.com/beagleboard/beaglemind/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_MissingKey(t *testing.T) {
	_, err := groq.New(groq.Config{})
	require.Error(t, err)
	assert.True(t, bmerr.HasCode(err, bmerr.CodeBackendKeyMissing))
}

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer gsk_test", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama-3.3-70b-versatile", req["model"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":    "chatcmpl-1",
			"model": "llama-3.3-70b-versatile",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": "The PRU is a realtime coprocessor."},
				"finish_reason": "stop",
			}},
			"usage": map[string]int{"prompt_tokens": 120, "completion_tokens": 9, "total_tokens": 129},
		})
	}))
	defer srv.Close()

	b, err := groq.New(groq.Config{APIKey: "gsk_test", BaseURL: srv.URL})
	require.NoError(t, err)

	resp, err := b.Generate(context.Background(), backend.Request{
		Model:       "llama-3.3-70b-versatile",
		Messages:    []backend.Message{backend.UserMessage("What is the PRU?")},
		Temperature: 0.3,
	})
	require.NoError(t, err)
	assert.Equal(t, "The PRU is a realtime coprocessor.", resp.Content)
	assert.Equal(t, 120, resp.Usage.InputTokens)
	assert.Equal(t, 9, resp.Usage.OutputTokens)
}

func TestGenerate_InvalidKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid API Key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	b, err := groq.New(groq.Config{APIKey: "gsk_bad", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = b.Generate(context.Background(), backend.Request{
		Model:       "llama-3.3-70b-versatile",
		Messages:    []backend.Message{backend.UserMessage("hi")},
		Temperature: 0.3,
	})
	require.Error(t, err)
	assert.True(t, bmerr.HasCode(err, bmerr.CodeBackendKeyInvalid))
}

func TestGenerate_ModelNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"message":"The model does not exist","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	b, err := groq.New(groq.Config{APIKey: "gsk_test", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = b.Generate(context.Background(), backend.Request{
		Model:       "no-such-model",
		Messages:    []backend.Message{backend.UserMessage("hi")},
		Temperature: 0.3,
	})
	require.Error(t, err)
	assert.True(t, bmerr.HasCode(err, bmerr.CodeBackendModelUnknown))
}

func TestGenerate_UpstreamFailure(t *testing.T) {
	b, err := groq.New(groq.Config{APIKey: "gsk_test", BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	_, err = b.Generate(context.Background(), backend.Request{
		Model:       "llama-3.3-70b-versatile",
		Messages:    []backend.Message{backend.UserMessage("hi")},
		Temperature: 0.3,
	})
	require.Error(t, err)
	assert.True(t, bmerr.HasCode(err, bmerr.CodeBackendUpstreamFailure))
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BeagleMind Contributors

package backend_test

import (
	"testing"

	"github.com/beagleboard/beaglemind/internal/backend"
	bmerr "github.com/beagleboard/beaglemind/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModels_Groq(t *testing.T) {
	models, err := backend.Models(backend.NameGroq)
	require.NoError(t, err)

	ids := make([]string, 0, len(models))
	for _, m := range models {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{
		"llama-3.3-70b-versatile",
		"llama-3.1-8b-instant",
		"meta-llama/llama-4-scout-17b-16e-instruct",
		"qwen/qwen3-32b",
		"deepseek-r1-distill-llama-70b",
		"gemma2-9b-it",
	}, ids)
}

func TestModels_Ollama(t *testing.T) {
	models, err := backend.Models(backend.NameOllama)
	require.NoError(t, err)

	ids := make([]string, 0, len(models))
	for _, m := range models {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{
		"llama3.2:3b",
		"llama3.1:8b",
		"qwen2.5:7b",
		"deepseek-r1:7b",
		"mistral:7b",
		"smollm2:1.7b",
	}, ids)
}

func TestModels_UnknownBackend(t *testing.T) {
	_, err := backend.Models("anthropic")
	require.Error(t, err)
	assert.True(t, bmerr.HasCode(err, bmerr.CodeBackendUnknown))
	assert.Contains(t, err.Error(), "anthropic")
}

func TestDefaultModel(t *testing.T) {
	groq, err := backend.DefaultModel(backend.NameGroq)
	require.NoError(t, err)
	assert.Equal(t, "llama-3.3-70b-versatile", groq)

	ollama, err := backend.DefaultModel(backend.NameOllama)
	require.NoError(t, err)
	assert.Equal(t, "llama3.2:3b", ollama)
}

func TestLookupModel(t *testing.T) {
	info, err := backend.LookupModel(backend.NameGroq, "qwen/qwen3-32b")
	require.NoError(t, err)
	assert.Equal(t, backend.NameGroq, info.Backend)

	_, err = backend.LookupModel(backend.NameGroq, "gpt-4.1")
	require.Error(t, err)
	assert.True(t, bmerr.HasCode(err, bmerr.CodeBackendModelUnknown))

	_, err = backend.LookupModel(backend.NameOllama, "llama-3.3-70b-versatile")
	require.Error(t, err)
	assert.True(t, bmerr.HasCode(err, bmerr.CodeBackendModelUnknown))
}

func TestIsValidName(t *testing.T) {
	assert.True(t, backend.IsValidName("groq"))
	assert.True(t, backend.IsValidName("ollama"))
	assert.False(t, backend.IsValidName("openai"))
	assert.False(t, backend.IsValidName(""))
}

func TestValidateRequest(t *testing.T) {
	valid := backend.Request{
		Model:       "llama3.2:3b",
		Messages:    []backend.Message{backend.UserMessage("hi")},
		Temperature: 0.3,
	}
	assert.NoError(t, backend.ValidateRequest(valid))

	noModel := valid
	noModel.Model = ""
	assert.Error(t, backend.ValidateRequest(noModel))

	noMsgs := valid
	noMsgs.Messages = nil
	assert.Error(t, backend.ValidateRequest(noMsgs))

	hotTemp := valid
	hotTemp.Temperature = 1.5
	assert.Error(t, backend.ValidateRequest(hotTemp))
}

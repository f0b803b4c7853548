// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BeagleMind Contributors

package backend

import (
	bmerr "github.com/beagleboard/beaglemind/pkg/errors"
)

// Supported backend names.
const (
	NameGroq   = "groq"
	NameOllama = "ollama"
)

// ModelInfo describes one model in the static registry.
type ModelInfo struct {
	ID          string
	Backend     string
	Description string
}

// groqModels is the curated set of models served through the Groq API.
// The first entry is the default for the backend.
var groqModels = []ModelInfo{
	{ID: "llama-3.3-70b-versatile", Backend: NameGroq, Description: "Llama 3.3 70B, general purpose"},
	{ID: "llama-3.1-8b-instant", Backend: NameGroq, Description: "Llama 3.1 8B, low latency"},
	{ID: "meta-llama/llama-4-scout-17b-16e-instruct", Backend: NameGroq, Description: "Llama 4 Scout 17B MoE"},
	{ID: "qwen/qwen3-32b", Backend: NameGroq, Description: "Qwen3 32B"},
	{ID: "deepseek-r1-distill-llama-70b", Backend: NameGroq, Description: "DeepSeek R1 distill, reasoning"},
	{ID: "gemma2-9b-it", Backend: NameGroq, Description: "Gemma 2 9B instruction tuned"},
}

// ollamaModels is the curated set of models for a local Ollama server.
// The first entry is the default for the backend.
var ollamaModels = []ModelInfo{
	{ID: "llama3.2:3b", Backend: NameOllama, Description: "Llama 3.2 3B"},
	{ID: "llama3.1:8b", Backend: NameOllama, Description: "Llama 3.1 8B"},
	{ID: "qwen2.5:7b", Backend: NameOllama, Description: "Qwen 2.5 7B"},
	{ID: "deepseek-r1:7b", Backend: NameOllama, Description: "DeepSeek R1 7B, reasoning"},
	{ID: "mistral:7b", Backend: NameOllama, Description: "Mistral 7B"},
	{ID: "smollm2:1.7b", Backend: NameOllama, Description: "SmolLM2 1.7B"},
}

// Names returns the supported backend names in display order.
func Names() []string {
	return []string{NameGroq, NameOllama}
}

// IsValidName reports whether name is a supported backend identifier.
func IsValidName(name string) bool {
	return name == NameGroq || name == NameOllama
}

// Models returns the registry entries for the named backend.
func Models(name string) ([]ModelInfo, error) {
	switch name {
	case NameGroq:
		return groqModels, nil
	case NameOllama:
		return ollamaModels, nil
	default:
		return nil, bmerr.Errorf(bmerr.CodeBackendUnknown, "unknown backend %q, expected one of: groq, ollama", name)
	}
}

// DefaultModel returns the default model ID for the named backend.
func DefaultModel(name string) (string, error) {
	models, err := Models(name)
	if err != nil {
		return "", err
	}
	return models[0].ID, nil
}

// LookupModel checks that model is registered for the named backend.
func LookupModel(name, model string) (ModelInfo, error) {
	models, err := Models(name)
	if err != nil {
		return ModelInfo{}, err
	}
	for _, m := range models {
		if m.ID == model {
			return m, nil
		}
	}
	return ModelInfo{}, bmerr.With(
		bmerr.Errorf(bmerr.CodeBackendModelUnknown, "model %q is not available on backend %q", model, name),
		bmerr.FieldBackend(name), bmerr.FieldModel(model))
}

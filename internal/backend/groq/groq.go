// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BeagleMind Contributors

// Package groq implements the backend.Backend interface against the Groq
// cloud API, which speaks the OpenAI Chat Completions protocol.
package groq

import (
	"context"
	"errors"
	"net/http"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/beagleboard/beaglemind/internal/backend"
	bmerr "github.com/beagleboard/beaglemind/pkg/errors"
)

// Config holds Groq backend configuration.
type Config struct {
	APIKey  string
	BaseURL string // optional, useful for testing against a mock server
}

// Backend implements backend.Backend using the OpenAI-compatible Groq API.
type Backend struct {
	client openaisdk.Client
	config Config
}

// New creates a Groq backend. Returns CodeBackendKeyMissing if no API key
// is configured.
func New(cfg Config) (*Backend, error) {
	if cfg.APIKey == "" {
		return nil, bmerr.New(bmerr.CodeBackendKeyMissing,
			"no Groq API key configured; set GROQ_API_KEY or run beaglemind init")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = backend.GroqBaseURL
	}

	client := openaisdk.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(baseURL),
	)
	return &Backend{client: client, config: cfg}, nil
}

func (b *Backend) Name() string { return backend.NameGroq }

// Available checks the key against the models endpoint.
func (b *Backend) Available(ctx context.Context) bool {
	err := backend.ValidateGroqKey(ctx, http.DefaultClient, b.config.BaseURL, b.config.APIKey)
	return err == nil
}

// Generate runs a single non-streaming chat completion.
func (b *Backend) Generate(ctx context.Context, req backend.Request) (*backend.Response, error) {
	if err := backend.ValidateRequest(req); err != nil {
		return nil, err
	}

	params := openaisdk.ChatCompletionNewParams{
		Model:       shared.ChatModel(req.Model),
		Messages:    convertMessages(req.Messages),
		Temperature: param.NewOpt(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(req.MaxTokens))
	}

	completion, err := b.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, mapAPIError(err, req.Model)
	}

	if len(completion.Choices) == 0 {
		return nil, bmerr.Errorf(bmerr.CodeBackendResponseInvalid,
			"groq returned no choices for model %s", req.Model)
	}

	return &backend.Response{
		Content: completion.Choices[0].Message.Content,
		Model:   completion.Model,
		Usage: backend.Usage{
			InputTokens:  int(completion.Usage.PromptTokens),
			OutputTokens: int(completion.Usage.CompletionTokens),
		},
	}, nil
}

func (b *Backend) Close() error { return nil }

// convertMessages transforms backend messages into OpenAI SDK message params.
func convertMessages(msgs []backend.Message) []openaisdk.ChatCompletionMessageParamUnion {
	result := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case backend.RoleSystem:
			result = append(result, openaisdk.SystemMessage(msg.Content))
		case backend.RoleAssistant:
			result = append(result, openaisdk.AssistantMessage(msg.Content))
		default:
			result = append(result, openaisdk.UserMessage(msg.Content))
		}
	}
	return result
}

// mapAPIError classifies SDK errors into the error code taxonomy.
func mapAPIError(err error, model string) error {
	var apierr *openaisdk.Error
	if errors.As(err, &apierr) {
		switch apierr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return bmerr.Wrap(err, bmerr.CodeBackendKeyInvalid, "groq rejected the API key")
		case http.StatusNotFound:
			return bmerr.Wrap(err, bmerr.CodeBackendModelUnknown,
				"model "+model+" is not available on groq",
				bmerr.FieldBackend(backend.NameGroq), bmerr.FieldModel(model))
		}
	}
	return bmerr.Wrap(err, bmerr.CodeBackendUpstreamFailure, "groq chat completion failed",
		bmerr.FieldBackend(backend.NameGroq), bmerr.FieldModel(model))
}

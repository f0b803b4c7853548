// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BeagleMind Contributors

// Package ollama implements the backend.Backend interface against a local
// Ollama server's HTTP API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/beagleboard/beaglemind/internal/backend"
	bmerr "github.com/beagleboard/beaglemind/pkg/errors"
)

// DefaultHost is used when OLLAMA_HOST is not set.
const DefaultHost = "http://localhost:11434"

// Config holds Ollama backend configuration.
type Config struct {
	Host    string        // base URL of the Ollama server
	Timeout time.Duration // per-request timeout, zero means 120s
}

// HostFromEnv returns the Ollama base URL from OLLAMA_HOST, falling back to
// DefaultHost. A bare host:port value is given an http:// scheme.
func HostFromEnv() string {
	host := os.Getenv("OLLAMA_HOST")
	if host == "" {
		return DefaultHost
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return strings.TrimSuffix(host, "/")
}

// Backend implements backend.Backend against the Ollama HTTP API.
type Backend struct {
	host   string
	client *http.Client
}

// New creates an Ollama backend. It does not contact the server; use
// Available to probe reachability.
func New(cfg Config) *Backend {
	host := cfg.Host
	if host == "" {
		host = HostFromEnv()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Backend{
		host:   strings.TrimSuffix(host, "/"),
		client: &http.Client{Timeout: timeout},
	}
}

func (b *Backend) Name() string { return backend.NameOllama }

// Available reports whether the Ollama server answers on /api/tags.
func (b *Backend) Available(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.host+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  chatOptions   `json:"options"`
}

type chatResponse struct {
	Model           string      `json:"model"`
	Message         chatMessage `json:"message"`
	Done            bool        `json:"done"`
	PromptEvalCount int         `json:"prompt_eval_count"`
	EvalCount       int         `json:"eval_count"`
}

type apiError struct {
	Error string `json:"error"`
}

// Generate runs a single non-streaming chat completion via /api/chat.
func (b *Backend) Generate(ctx context.Context, req backend.Request) (*backend.Response, error) {
	if err := backend.ValidateRequest(req); err != nil {
		return nil, err
	}

	msgs := make([]chatMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, chatMessage{Role: m.Role, Content: m.Content})
	}

	body := chatRequest{
		Model:    req.Model,
		Messages: msgs,
		Stream:   false,
		Options: chatOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		},
	}

	var out chatResponse
	if err := b.post(ctx, "/api/chat", body, &out, req.Model); err != nil {
		return nil, err
	}

	return &backend.Response{
		Content: out.Message.Content,
		Model:   out.Model,
		Usage: backend.Usage{
			InputTokens:  out.PromptEvalCount,
			OutputTokens: out.EvalCount,
		},
	}, nil
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
		Size int64  `json:"size"`
	} `json:"models"`
}

// ListInstalled returns the model names currently pulled on the server.
func (b *Backend) ListInstalled(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.host+"/api/tags", nil)
	if err != nil {
		return nil, bmerr.Wrap(err, bmerr.CodeBackendUpstreamFailure, "building ollama tags request")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, bmerr.Wrapf(err, bmerr.CodeBackendUpstreamFailure,
			"ollama server unreachable at %s", b.host)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, bmerr.Errorf(bmerr.CodeBackendUpstreamFailure,
			"ollama tags request failed (HTTP %d)", resp.StatusCode)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, bmerr.Wrap(err, bmerr.CodeBackendResponseInvalid, "decoding ollama tags response")
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

func (b *Backend) Close() error { return nil }

// post sends a JSON request to the given path and decodes the JSON response.
// Ollama reports missing models as HTTP 404 with an error body.
func (b *Backend) post(ctx context.Context, path string, body, out any, model string) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return bmerr.Wrap(err, bmerr.CodeBackendUpstreamFailure, "encoding ollama request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.host+path, bytes.NewReader(payload))
	if err != nil {
		return bmerr.Wrap(err, bmerr.CodeBackendUpstreamFailure, "building ollama request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return bmerr.Wrapf(err, bmerr.CodeBackendUpstreamFailure,
			"ollama server unreachable at %s", b.host)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr apiError
		_ = json.Unmarshal(raw, &apiErr)

		if resp.StatusCode == http.StatusNotFound {
			return bmerr.With(
				bmerr.Errorf(bmerr.CodeBackendModelUnknown,
					"model %q is not pulled on the ollama server: %s", model, apiErr.Error),
				bmerr.FieldBackend(backend.NameOllama), bmerr.FieldModel(model))
		}
		return bmerr.Errorf(bmerr.CodeBackendUpstreamFailure,
			"ollama request failed (HTTP %d): %s", resp.StatusCode, apiErr.Error)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return bmerr.Wrap(err, bmerr.CodeBackendResponseInvalid, "decoding ollama response")
	}
	return nil
}

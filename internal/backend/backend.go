// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BeagleMind Contributors

// Package backend defines the LLM backend abstraction and the static model
// registry. Concrete backends live in subpackages (groq, ollama).
package backend

import (
	"context"

	bmerr "github.com/beagleboard/beaglemind/pkg/errors"
)

// Message roles accepted by Generate.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single turn in a chat exchange.
type Message struct {
	Role    string
	Content string
}

// Request describes one generation call.
type Request struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Usage reports token accounting for a completed generation.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Response is the non-streaming result of a generation call.
type Response struct {
	Content string
	Model   string
	Usage   Usage
}

// Backend is implemented by each LLM inference backend.
type Backend interface {
	// Name returns the backend identifier ("groq" or "ollama").
	Name() string

	// Available reports whether the backend can currently serve requests.
	// For remote APIs this checks credentials; for local servers it checks
	// reachability.
	Available(ctx context.Context) bool

	// Generate runs a single chat completion and returns the full response.
	Generate(ctx context.Context, req Request) (*Response, error)

	// Close releases any resources held by the backend.
	Close() error
}

// SystemMessage is a convenience constructor for a system-role message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage is a convenience constructor for a user-role message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// ValidateRequest checks the parts of a Request that every backend requires.
func ValidateRequest(req Request) error {
	if req.Model == "" {
		return bmerr.New(bmerr.CodeCLIInputInvalid, "generate: model must not be empty")
	}
	if len(req.Messages) == 0 {
		return bmerr.New(bmerr.CodeCLIInputInvalid, "generate: messages must not be empty")
	}
	if req.Temperature < 0 || req.Temperature > 1 {
		return bmerr.Errorf(bmerr.CodeCLIInputInvalid, "generate: temperature %v out of range [0, 1]", req.Temperature)
	}
	return nil
}

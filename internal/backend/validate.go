// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BeagleMind Contributors

package backend

import (
	"context"
	"io"
	"net/http"
	"strings"

	bmerr "github.com/beagleboard/beaglemind/pkg/errors"
)

// GroqBaseURL is the OpenAI-compatible endpoint of the Groq API.
const GroqBaseURL = "https://api.groq.com/openai/v1"

// ValidateGroqKey makes a lightweight HTTP call to the Groq models endpoint
// to confirm the API key is valid. baseURL overrides the live endpoint for
// testing; pass "" for the default.
func ValidateGroqKey(ctx context.Context, client *http.Client, baseURL, key string) error {
	if key == "" {
		return bmerr.New(bmerr.CodeBackendKeyMissing,
			"no Groq API key configured; set GROQ_API_KEY or run beaglemind init")
	}
	if baseURL == "" {
		baseURL = GroqBaseURL
	}

	url := strings.TrimSuffix(baseURL, "/") + "/models"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return bmerr.Wrap(err, bmerr.CodeBackendKeyCheckFailed, "building validation request")
	}
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := client.Do(req)
	if err != nil {
		return bmerr.Wrap(err, bmerr.CodeBackendKeyCheckFailed, "validating groq key")
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return bmerr.Errorf(bmerr.CodeBackendKeyInvalid, "invalid Groq API key (HTTP %d)", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return bmerr.Errorf(bmerr.CodeBackendKeyCheckFailed, "groq key validation failed (HTTP %d)", resp.StatusCode)
	}

	return nil
}

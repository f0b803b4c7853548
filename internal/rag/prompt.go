// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BeagleMind Contributors

package rag

import (
	"fmt"
	"strings"

	"github.com/beagleboard/beaglemind/internal/vectorstore"
)

const systemPrompt = `You are BeagleMind, a documentation assistant for the BeagleBoard ecosystem.
Answer using the provided documentation context. When the context does not
cover the question, say so instead of guessing. Prefer concrete commands,
pin names, and file paths from the context. Answer in Markdown.`

// buildUserPrompt renders retrieved chunks into a context block followed by
// the user's question. Chunks are numbered so the model can reference them.
func buildUserPrompt(prompt string, chunks []vectorstore.SearchResult) string {
	if len(chunks) == 0 {
		return fmt.Sprintf("No documentation context was found for this question.\n\nQuestion: %s", prompt)
	}

	var b strings.Builder
	b.WriteString("Documentation context:\n\n")
	for i, c := range chunks {
		fmt.Fprintf(&b, "[%d] %s\n%s\n\n", i+1, c.FilePath, strings.TrimSpace(c.Document))
	}
	fmt.Fprintf(&b, "Question: %s", prompt)
	return b.String()
}

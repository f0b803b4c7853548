// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BeagleMind Contributors

package ingest

import (
	"strings"
	"unicode/utf8"
)

const (
	// MaxChunkSize is the target chunk length in characters.
	MaxChunkSize = 1000

	// minChunkSize drops fragments too short to carry meaning.
	minChunkSize = 30

	// minFileSize skips files with no indexable content.
	minFileSize = 50
)

// chunkSeparators are tried in order, largest structural unit first.
var chunkSeparators = []string{"\n\n", "\n", ". ", " "}

// ChunkContent splits content into chunks of at most maxSize characters,
// preferring paragraph and sentence boundaries. Fragments shorter than
// minChunkSize are dropped.
func ChunkContent(content string, maxSize int) []string {
	if maxSize <= 0 {
		maxSize = MaxChunkSize
	}

	var chunks []string
	for _, piece := range splitRecursive(content, maxSize, 0) {
		piece = strings.TrimSpace(piece)
		if len(piece) >= minChunkSize {
			chunks = append(chunks, piece)
		}
	}
	return chunks
}

// splitRecursive splits text on the separator at depth, recursing into the
// next separator for pieces that are still too long. Adjacent short pieces
// are merged back up to maxSize.
func splitRecursive(text string, maxSize, depth int) []string {
	if len(text) <= maxSize {
		return []string{text}
	}
	if depth >= len(chunkSeparators) {
		return splitHard(text, maxSize)
	}

	sep := chunkSeparators[depth]
	parts := strings.Split(text, sep)
	if len(parts) == 1 {
		return splitRecursive(text, maxSize, depth+1)
	}

	var (
		chunks  []string
		current strings.Builder
	)
	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, part := range parts {
		if len(part) > maxSize {
			flush()
			chunks = append(chunks, splitRecursive(part, maxSize, depth+1)...)
			continue
		}
		if current.Len() > 0 && current.Len()+len(sep)+len(part) > maxSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString(sep)
		}
		current.WriteString(part)
	}
	flush()
	return chunks
}

// splitHard cuts text at fixed offsets when no separator fits. Cuts are
// backed up to the previous rune boundary so multibyte text stays valid
// UTF-8.
func splitHard(text string, maxSize int) []string {
	var chunks []string
	for len(text) > maxSize {
		cut := maxSize
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if cut == 0 {
			cut = maxSize
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

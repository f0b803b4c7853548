// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BeagleMind Contributors

package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const extractSample = `# Board Guide

![wiring diagram](images/wiring.png)
<img src="https://example.com/photo.jpg">

Download the [datasheet](files/board.pdf) before starting.

See [the manual](https://example.com/manual) and https://forum.beagleboard.org/latest
for help. Also https://example.com/manual again.
`

func TestExtractLinks(t *testing.T) {
	links := ExtractLinks(extractSample, "https://github.com/o/r/blob/main/")

	assert.Equal(t, []string{
		"https://example.com/photo.jpg",
		"https://github.com/o/r/blob/main/images/wiring.png",
	}, links.Images)
	assert.Equal(t, []string{"https://github.com/o/r/blob/main/files/board.pdf"}, links.Attachments)
	assert.Equal(t, []string{
		"https://example.com/manual",
		"https://forum.beagleboard.org/latest",
	}, links.External)
}

func TestExtractLinks_NoBase(t *testing.T) {
	links := ExtractLinks("![x](images/wiring.png)", "")
	assert.Equal(t, []string{"images/wiring.png"}, links.Images)
}

func TestExtractLinks_Empty(t *testing.T) {
	links := ExtractLinks("plain text with no links at all", "")
	assert.Empty(t, links.Images)
	assert.Empty(t, links.Attachments)
	assert.Empty(t, links.External)
}

func TestParseFrontMatter(t *testing.T) {
	meta, body := ParseFrontMatter("---\ntitle: Guide\ntags: [boards]\n---\n# Heading\n")
	require.NotNil(t, meta)
	assert.Equal(t, "Guide", meta["title"])
	assert.Equal(t, "# Heading\n", body)
}

func TestParseFrontMatter_Absent(t *testing.T) {
	meta, body := ParseFrontMatter("# Heading\n\nJust markdown.")
	assert.Nil(t, meta)
	assert.Equal(t, "# Heading\n\nJust markdown.", body)
}

func TestParseFrontMatter_Malformed(t *testing.T) {
	content := "---\ntitle: [unclosed\n---\nbody"
	meta, body := ParseFrontMatter(content)
	assert.Nil(t, meta)
	assert.Equal(t, content, body)
}

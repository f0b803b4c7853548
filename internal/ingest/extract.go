// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BeagleMind Contributors

package ingest

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	markdownImagePattern = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
	htmlImagePattern     = regexp.MustCompile(`(?i)<img[^>]+src=["']([^"']+)["']`)
	directImagePattern   = regexp.MustCompile(`(?i)https?://[^\s<>"']+\.(?:png|jpg|jpeg|gif|svg|webp)`)

	markdownAttachmentPattern = regexp.MustCompile(`(?i)\[([^\]]+)\]\(([^)]+\.(?:pdf|doc|docx|ppt|pptx|xls|xlsx|zip|tar|gz))\)`)
	htmlAttachmentPattern     = regexp.MustCompile(`(?i)href=["']([^"']+\.(?:pdf|doc|docx|ppt|pptx|xls|xlsx|zip|tar|gz))["']`)

	markdownLinkPattern = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^)]+)\)`)
	hrefPattern         = regexp.MustCompile(`href=["']([^"']+)["']`)
	bareURLPattern      = regexp.MustCompile(`https?://[^\s)\]},;"'` + "`" + `<>]+`)
)

// mediaSuffixes excludes already-captured images and attachments from the
// external link list.
var mediaSuffixes = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".pdf", ".doc"}

// Links holds the media and references found in one file.
type Links struct {
	Images      []string
	Attachments []string
	External    []string
}

// ExtractLinks finds image, attachment, and external links in markdown or
// HTML content. Relative URLs are resolved against baseURL when given.
func ExtractLinks(content, baseURL string) Links {
	var links Links

	for _, m := range markdownImagePattern.FindAllStringSubmatch(content, -1) {
		links.Images = append(links.Images, resolveURL(m[2], baseURL))
	}
	for _, m := range htmlImagePattern.FindAllStringSubmatch(content, -1) {
		links.Images = append(links.Images, resolveURL(m[1], baseURL))
	}
	links.Images = append(links.Images, directImagePattern.FindAllString(content, -1)...)

	for _, m := range markdownAttachmentPattern.FindAllStringSubmatch(content, -1) {
		links.Attachments = append(links.Attachments, resolveURL(m[2], baseURL))
	}
	for _, m := range htmlAttachmentPattern.FindAllStringSubmatch(content, -1) {
		links.Attachments = append(links.Attachments, resolveURL(m[1], baseURL))
	}

	var external []string
	for _, m := range markdownLinkPattern.FindAllStringSubmatch(content, -1) {
		external = append(external, m[2])
	}
	for _, m := range hrefPattern.FindAllStringSubmatch(content, -1) {
		external = append(external, m[1])
	}
	external = append(external, bareURLPattern.FindAllString(content, -1)...)

	for _, link := range external {
		if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
			continue
		}
		if hasMediaSuffix(link) {
			continue
		}
		links.External = append(links.External, link)
	}

	links.Images = dedupe(links.Images)
	links.Attachments = dedupe(links.Attachments)
	links.External = dedupe(links.External)
	return links
}

func hasMediaSuffix(link string) bool {
	lower := strings.ToLower(link)
	for _, suffix := range mediaSuffixes {
		if strings.Contains(lower, suffix) {
			return true
		}
	}
	return false
}

func resolveURL(link, base string) string {
	if base == "" || strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return link
	}
	ref, err := url.Parse(link)
	if err != nil {
		return link
	}
	return baseURL.ResolveReference(ref).String()
}

func dedupe(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}

var frontMatterPattern = regexp.MustCompile(`(?s)\A---\s*\n(.*?)\n---\s*\n`)

// ParseFrontMatter splits YAML front matter off markdown content. It
// returns the parsed metadata (nil when absent or malformed) and the body.
func ParseFrontMatter(content string) (map[string]any, string) {
	m := frontMatterPattern.FindStringSubmatch(content)
	if m == nil {
		return nil, content
	}

	var meta map[string]any
	if err := yaml.Unmarshal([]byte(m[1]), &meta); err != nil {
		return nil, content
	}
	return meta, content[len(m[0]):]
}

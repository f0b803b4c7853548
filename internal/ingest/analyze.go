// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BeagleMind Contributors

package ingest

import (
	"regexp"
	"sort"
	"strings"
)

// Analysis summarizes one file's content for retrieval metadata.
type Analysis struct {
	Language         string
	HasCode          bool
	HasDocumentation bool
	Functions        []string
	Classes          []string
	Imports          []string
	Keywords         []string

	ContentQualityScore   float32
	SemanticDensityScore  float32
	InformationValueScore float32
}

var extensionLanguages = map[string]string{
	".py": "python", ".js": "javascript", ".ts": "typescript",
	".java": "java", ".cpp": "cpp", ".c": "c", ".h": "c",
	".css": "css", ".html": "html", ".xml": "xml",
	".md": "markdown", ".rst": "rst", ".txt": "text",
	".json": "json", ".yaml": "yaml", ".yml": "yaml",
	".sh": "shell", ".bat": "batch", ".go": "go",
	".rs": "rust", ".rb": "ruby", ".php": "php", ".sql": "sql",
}

// contentLanguagePatterns detect a language for extension-less files.
// Two pattern hits are required to claim a language.
var contentLanguagePatterns = map[string][]*regexp.Regexp{
	"python": {
		regexp.MustCompile(`def\s+\w+`),
		regexp.MustCompile(`import\s+\w+`),
		regexp.MustCompile(`from\s+\w+\s+import`),
		regexp.MustCompile(`class\s+\w+`),
	},
	"javascript": {
		regexp.MustCompile(`function\s+\w+`),
		regexp.MustCompile(`const\s+\w+`),
		regexp.MustCompile(`let\s+\w+`),
		regexp.MustCompile(`var\s+\w+`),
	},
	"cpp": {
		regexp.MustCompile(`#include`),
		regexp.MustCompile(`std::`),
		regexp.MustCompile(`namespace\s+\w+`),
	},
	"markdown": {
		regexp.MustCompile(`(?m)^#{1,6}\s`),
		regexp.MustCompile(`\[.*\]\(.*\)`),
		regexp.MustCompile("```"),
	},
}

// DetectLanguage maps a file extension to a language, falling back to
// content patterns for extension-less files.
func DetectLanguage(content, extension string) string {
	if lang, ok := extensionLanguages[extension]; ok {
		return lang
	}

	for lang, patterns := range contentLanguagePatterns {
		hits := 0
		for _, p := range patterns {
			if p.MatchString(content) {
				hits++
			}
		}
		if hits >= 2 {
			return lang
		}
	}
	return "unknown"
}

const maxCodeElements = 20

var (
	pythonFuncPattern   = regexp.MustCompile(`def\s+(\w+)`)
	pythonClassPattern  = regexp.MustCompile(`class\s+(\w+)`)
	pythonImportPattern = regexp.MustCompile(`(?m)^(?:from\s+[\w.]+\s+)?import\s+[\w.,\s*]+`)

	jsFuncPatterns = []*regexp.Regexp{
		regexp.MustCompile(`function\s+(\w+)`),
		regexp.MustCompile(`(\w+)\s*=\s*function`),
		regexp.MustCompile(`const\s+(\w+)\s*=\s*\(`),
	}
	jsImportPattern = regexp.MustCompile(`import\s+.*?from\s+["'].*?["']`)

	goFuncPattern   = regexp.MustCompile(`func\s+(?:\([^)]+\)\s+)?(\w+)`)
	goTypePattern   = regexp.MustCompile(`type\s+(\w+)\s+(?:struct|interface)`)
	goImportPattern = regexp.MustCompile(`"[\w./-]+"`)

	codeIndicatorPatterns = []*regexp.Regexp{
		regexp.MustCompile(`def\s+\w+`),
		regexp.MustCompile(`function\s+\w+`),
		regexp.MustCompile(`class\s+\w+`),
		regexp.MustCompile(`import\s+\w+`),
		regexp.MustCompile(`#include`),
		regexp.MustCompile(`func\s+\w+`),
		regexp.MustCompile(`(?:const|var|let)\s+\w+\s*=`),
	}

	docIndicatorPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?s)""".*?"""`),
		regexp.MustCompile(`(?s)/\*\*.*?\*/`),
		regexp.MustCompile(`(?m)^#{1,6}\s+\w`),
		regexp.MustCompile(`@param|@return|@throws`),
		regexp.MustCompile(`TODO:|FIXME:|NOTE:`),
	}
)

func extractCodeElements(content, language string) (functions, classes, imports []string) {
	switch language {
	case "python":
		functions = matchGroups(pythonFuncPattern, content)
		classes = matchGroups(pythonClassPattern, content)
		imports = matchWhole(pythonImportPattern, content)
	case "javascript", "typescript":
		for _, p := range jsFuncPatterns {
			functions = append(functions, matchGroups(p, content)...)
		}
		classes = matchGroups(pythonClassPattern, content)
		imports = matchWhole(jsImportPattern, content)
	case "go":
		functions = matchGroups(goFuncPattern, content)
		classes = matchGroups(goTypePattern, content)
		imports = matchWhole(goImportPattern, content)
	}

	functions = truncate(dedupe(functions), maxCodeElements)
	classes = truncate(dedupe(classes), maxCodeElements)
	imports = truncate(dedupe(imports), maxCodeElements)
	return functions, classes, imports
}

func matchGroups(p *regexp.Regexp, content string) []string {
	var out []string
	for _, m := range p.FindAllStringSubmatch(content, -1) {
		for _, g := range m[1:] {
			if g != "" {
				out = append(out, g)
			}
		}
	}
	return out
}

func matchWhole(p *regexp.Regexp, content string) []string {
	return p.FindAllString(content, -1)
}

func truncate(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func hasCodeContent(content string) bool {
	for _, p := range codeIndicatorPatterns {
		if p.MatchString(content) {
			return true
		}
	}
	return false
}

func hasDocumentationContent(content string) bool {
	for _, p := range docIndicatorPatterns {
		if p.MatchString(content) {
			return true
		}
	}
	return false
}

const maxKeywords = 15

var (
	fencedCodePattern = regexp.MustCompile("(?s)```.*?```")
	inlineCodePattern = regexp.MustCompile("`[^`]+`")
	wordPattern       = regexp.MustCompile(`\b[a-zA-Z]{3,}\b`)
)

var keywordStopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true,
	"not": true, "you": true, "all": true, "can": true, "has": true,
	"had": true, "this": true, "that": true, "with": true, "from": true,
	"they": true, "will": true, "been": true, "have": true, "were": true,
	"said": true, "each": true, "which": true, "their": true, "time": true,
	"would": true, "about": true, "into": true, "function": true,
	"class": true, "method": true, "return": true, "value": true,
	"parameter": true, "variable": true,
}

// extractKeywords returns the most frequent content words, code blocks
// stripped first.
func extractKeywords(content string) []string {
	cleaned := fencedCodePattern.ReplaceAllString(content, "")
	cleaned = inlineCodePattern.ReplaceAllString(cleaned, "")

	freq := make(map[string]int)
	for _, w := range wordPattern.FindAllString(strings.ToLower(cleaned), -1) {
		if keywordStopwords[w] {
			continue
		}
		freq[w]++
	}

	keywords := make([]string, 0, len(freq))
	for w := range freq {
		keywords = append(keywords, w)
	}
	sort.Slice(keywords, func(i, j int) bool {
		if freq[keywords[i]] != freq[keywords[j]] {
			return freq[keywords[i]] > freq[keywords[j]]
		}
		return keywords[i] < keywords[j]
	})
	return truncate(keywords, maxKeywords)
}

var (
	sentencePattern  = regexp.MustCompile(`[.!?]`)
	urlRefPattern    = regexp.MustCompile(`https?://\S+`)
	camelCasePattern = regexp.MustCompile(`[A-Z][a-z]+(?:[A-Z][a-z]+)+`)
	anyWordPattern   = regexp.MustCompile(`\b\w+\b`)
	longWordPattern  = regexp.MustCompile(`\b\w{3,}\b`)
)

// qualityScores estimates how useful a file is as retrieval context.
// All three scores land in [0, 1].
func qualityScores(content string, functions []string, classes []string, hasDoc bool) (quality, density, information float32) {
	indicators := []bool{
		len(content) > 100,
		strings.Contains(content, "\n\n"),
		strings.Contains(content, "#"),
		hasDoc,
		len(functions) > 0,
		len(sentencePattern.FindAllString(content, -1)) > 2,
	}
	hits := 0
	for _, ok := range indicators {
		if ok {
			hits++
		}
	}
	quality = float32(hits) / float32(len(indicators))

	unique := make(map[string]bool)
	for _, w := range longWordPattern.FindAllString(strings.ToLower(content), -1) {
		unique[w] = true
	}
	total := len(anyWordPattern.FindAllString(content, -1))
	if total > 0 {
		density = float32(len(unique)) / float32(total) * 2
		if density > 1 {
			density = 1
		}
	}

	limits := []int{10, 5, 5, 20, 10}
	values := []int{
		len(functions),
		len(classes),
		len(urlRefPattern.FindAllString(content, -1)),
		len(camelCasePattern.FindAllString(content, -1)),
		strings.Count(content, "```"),
	}
	maxTotal, actual := 0, 0
	for i, limit := range limits {
		maxTotal += limit
		if values[i] < limit {
			actual += values[i]
		} else {
			actual += limit
		}
	}
	information = float32(actual) / float32(maxTotal)
	return quality, density, information
}

// Analyze runs full content analysis for one file.
func Analyze(content, extension string) Analysis {
	language := DetectLanguage(content, extension)
	functions, classes, imports := extractCodeElements(content, language)
	hasDoc := hasDocumentationContent(content)
	quality, density, information := qualityScores(content, functions, classes, hasDoc)

	return Analysis{
		Language:              language,
		HasCode:               hasCodeContent(content),
		HasDocumentation:      hasDoc,
		Functions:             functions,
		Classes:               classes,
		Imports:               imports,
		Keywords:              extractKeywords(content),
		ContentQualityScore:   quality,
		SemanticDensityScore:  density,
		InformationValueScore: information,
	}
}

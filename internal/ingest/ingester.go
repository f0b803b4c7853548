// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BeagleMind Contributors

// Package ingest pulls a GitHub repository's documentation into the vector
// store: tree listing, concurrent file fetch, content analysis, chunking,
// embedding, and batched inserts.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/beagleboard/beaglemind/internal/embedding"
	"github.com/beagleboard/beaglemind/internal/vectorstore"
	bmerr "github.com/beagleboard/beaglemind/pkg/errors"
)

const (
	// DefaultWorkers bounds concurrent file fetches.
	DefaultWorkers = 8

	embedBatchSize  = 64
	insertBatchSize = 100
)

// Options configures one ingestion run.
type Options struct {
	RepoURL string
	Branch  string // empty means main with master fallback
	Workers int
}

// Summary reports what an ingestion run accomplished.
type Summary struct {
	Repo            Repo
	FilesListed     int
	FilesProcessed  int
	ChunksGenerated int
	ImagesFound     int
	AvgQualityScore float32
	Elapsed         time.Duration
}

// Ingester runs the ingestion pipeline.
type Ingester struct {
	github   *GitHubClient
	embedder embedding.Embedder
	store    vectorstore.VectorStore
}

// New assembles an Ingester.
func New(github *GitHubClient, embedder embedding.Embedder, store vectorstore.VectorStore) *Ingester {
	return &Ingester{github: github, embedder: embedder, store: store}
}

// Run executes the full pipeline and returns a Summary.
func (ing *Ingester) Run(ctx context.Context, opts Options) (*Summary, error) {
	start := time.Now()

	repo, err := ParseRepoURL(opts.RepoURL)
	if err != nil {
		return nil, err
	}
	repo.Branch = opts.Branch

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	slog.Info("fetching repository tree", "owner", repo.Owner, "repo", repo.Name)
	files, err := ing.github.FetchTree(ctx, &repo)
	if err != nil {
		return nil, err
	}
	slog.Info("repository tree fetched", "files", len(files), "branch", repo.Branch)

	chunks, processed, err := ing.processFiles(ctx, repo, files, workers)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, bmerr.Errorf(bmerr.CodeIngestNoContent,
			"no indexable content found in %s/%s", repo.Owner, repo.Name)
	}
	slog.Info("files processed", "files", processed, "chunks", len(chunks))

	if err := ing.embedChunks(ctx, chunks); err != nil {
		return nil, err
	}

	dim := len(chunks[0].Embedding)
	if err := ing.store.EnsureCollection(ctx, dim); err != nil {
		return nil, err
	}
	if err := ing.insertChunks(ctx, chunks); err != nil {
		return nil, err
	}

	summary := &Summary{
		Repo:            repo,
		FilesListed:     len(files),
		FilesProcessed:  processed,
		ChunksGenerated: len(chunks),
		Elapsed:         time.Since(start),
	}
	var qualityTotal float32
	for _, c := range chunks {
		summary.ImagesFound += int(c.ImageCount)
		qualityTotal += c.ContentQualityScore
	}
	summary.AvgQualityScore = qualityTotal / float32(len(chunks))

	return summary, nil
}

// processFiles fetches and chunks files with a bounded worker pool.
// Individual file failures are logged and skipped.
func (ing *Ingester) processFiles(ctx context.Context, repo Repo, files []RemoteFile, workers int) ([]vectorstore.Chunk, int, error) {
	var (
		mu        sync.Mutex
		chunks    []vectorstore.Chunk
		processed int
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, file := range files {
		g.Go(func() error {
			fileChunks, err := ing.processFile(ctx, repo, file)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				slog.Warn("skipping file", "path", file.Path, "error", err)
				return nil
			}
			if fileChunks == nil {
				return nil
			}

			mu.Lock()
			chunks = append(chunks, fileChunks...)
			processed++
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, bmerr.Wrap(err, bmerr.CodeIngestFetchFailure, "processing repository files")
	}
	return chunks, processed, nil
}

// processFile turns one remote file into metadata-rich chunks. Embeddings
// are filled in later in batches.
func (ing *Ingester) processFile(ctx context.Context, repo Repo, file RemoteFile) ([]vectorstore.Chunk, error) {
	content, err := ing.github.FetchFile(ctx, file)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(content)) < minFileSize {
		return nil, nil
	}

	frontMatter, body := ParseFrontMatter(content)

	baseURL := fmt.Sprintf("https://github.com/%s/%s/blob/%s/", repo.Owner, repo.Name, repo.Branch)
	links := ExtractLinks(body, baseURL)
	analysis := Analyze(body, file.Extension)

	pieces := ChunkContent(body, MaxChunkSize)
	if len(pieces) == 0 {
		return nil, nil
	}

	created := time.Now().UTC().Format(time.RFC3339)
	out := make([]vectorstore.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		chunkImages := linksMentioned(links.Images, piece)
		chunkAttachments := linksMentioned(links.Attachments, piece)

		keywords := analysis.Keywords
		if title, ok := frontMatter["title"].(string); ok && title != "" {
			keywords = append([]string{strings.ToLower(title)}, keywords...)
		}

		out = append(out, vectorstore.Chunk{
			ID:       uuid.NewString(),
			Document: piece,

			FileName:   file.Name,
			FilePath:   file.Path,
			FileType:   file.Extension,
			FileSize:   file.Size,
			SourceLink: docsLink(file.Path),
			RawURL:     file.RawURL,
			BlobURL:    file.SourceLink,

			ChunkIndex:  int64(i),
			ChunkLength: int64(len(piece)),
			ChunkMethod: "semantic",

			HasImages:       len(chunkImages) > 0,
			ImageLinks:      jsonList(chunkImages),
			ImageCount:      int64(len(chunkImages)),
			AttachmentLinks: jsonList(chunkAttachments),

			Language:         analysis.Language,
			HasCode:          analysis.HasCode,
			HasDocumentation: analysis.HasDocumentation,
			HasLinks:         len(links.External) > 0,
			ExternalLinks:    jsonList(truncate(links.External, 10)),

			FunctionNames:    jsonList(analysis.Functions),
			ClassNames:       jsonList(analysis.Classes),
			ImportStatements: jsonList(analysis.Imports),
			Keywords:         jsonList(keywords),

			RepoName:  repo.Name,
			RepoOwner: repo.Owner,
			Branch:    repo.Branch,
			CommitSHA: "latest",

			CreatedAt:      created,
			EmbeddingModel: ing.embedder.Model(),

			ContentQualityScore:   analysis.ContentQualityScore,
			SemanticDensityScore:  analysis.SemanticDensityScore,
			InformationValueScore: analysis.InformationValueScore,
		})
	}
	return out, nil
}

// linksMentioned keeps links whose file name appears in the chunk text.
func linksMentioned(links []string, chunk string) []string {
	lower := strings.ToLower(chunk)
	var out []string
	for _, link := range links {
		name := link
		if idx := strings.LastIndex(link, "/"); idx >= 0 {
			name = link[idx+1:]
		}
		if name != "" && strings.Contains(lower, strings.ToLower(name)) {
			out = append(out, link)
		}
	}
	return out
}

// docsLink maps a docs source path to its rendered site URL, matching how
// the published BeagleBoard docs are laid out.
func docsLink(filePath string) string {
	if strings.HasSuffix(filePath, ".rst") {
		filePath = strings.TrimSuffix(filePath, ".rst") + ".html"
	}
	return "https://docs.beagle.cc/" + filePath
}

func jsonList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// embedChunks fills in chunk embeddings in batches.
func (ing *Ingester) embedChunks(ctx context.Context, chunks []vectorstore.Chunk) error {
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		texts := make([]string, end-start)
		for i := start; i < end; i++ {
			texts[i-start] = chunks[i].Document
		}

		vecs, err := ing.embedder.Embed(ctx, texts)
		if err != nil {
			return err
		}
		for i := start; i < end; i++ {
			chunks[i].Embedding = vecs[i-start]
		}

		slog.Info("embeddings generated", "done", end, "total", len(chunks))
	}
	return nil
}

// insertChunks writes chunks to the store in batches.
func (ing *Ingester) insertChunks(ctx context.Context, chunks []vectorstore.Chunk) error {
	for start := 0; start < len(chunks); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		if err := ing.store.Insert(ctx, chunks[start:end]); err != nil {
			return err
		}
		slog.Info("chunks stored", "done", end, "total", len(chunks))
	}
	return nil
}

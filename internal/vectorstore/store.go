// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BeagleMind Contributors

// Package vectorstore defines the vector database abstraction used for
// document retrieval. Concrete stores live in subpackages (milvus,
// sqlitevec).
package vectorstore

import (
	"context"

	bmerr "github.com/beagleboard/beaglemind/pkg/errors"
)

// Supported vector store backends.
const (
	BackendMilvus    = "milvus"
	BackendSQLiteVec = "sqlite"
)

// Chunk is one embedded document fragment with its full metadata record.
type Chunk struct {
	ID        string
	Document  string
	Embedding []float32

	// Source file
	FileName   string
	FilePath   string
	FileType   string
	FileSize   int64
	SourceLink string
	RawURL     string
	BlobURL    string

	// Chunking
	ChunkIndex  int64
	ChunkLength int64
	ChunkMethod string

	// Media
	HasImages       bool
	ImageLinks      string
	ImageCount      int64
	AttachmentLinks string

	// Content analysis
	Language         string
	HasCode          bool
	HasDocumentation bool
	HasLinks         bool
	ExternalLinks    string

	// Code structure
	FunctionNames    string
	ClassNames       string
	ImportStatements string
	Keywords         string

	// Repository provenance
	RepoName  string
	RepoOwner string
	Branch    string
	CommitSHA string

	// Ingestion record
	CreatedAt      string
	EmbeddingModel string

	// Quality scores in [0, 1]
	ContentQualityScore   float32
	SemanticDensityScore  float32
	InformationValueScore float32
}

// Filter restricts a search to chunks matching structured metadata.
// Zero values mean "no restriction".
type Filter struct {
	HasCode  *bool
	Language string
	FileType string
}

// IsZero reports whether the filter imposes no restrictions.
func (f Filter) IsZero() bool {
	return f.HasCode == nil && f.Language == "" && f.FileType == ""
}

// SearchQuery describes one nearest-neighbor lookup.
type SearchQuery struct {
	Vector []float32
	TopK   int
	Filter Filter
}

// SearchResult is one retrieved chunk. Score is cosine similarity in
// [0, 1] where higher is more similar.
type SearchResult struct {
	ID         string
	Document   string
	Score      float32
	FileName   string
	FilePath   string
	FileType   string
	SourceLink string
	Language   string
	HasCode    bool
	ChunkIndex int64
}

// VectorStore is implemented by each vector database backend.
type VectorStore interface {
	// Name returns the backend identifier ("milvus" or "sqlite").
	Name() string

	// EnsureCollection creates the collection with the given embedding
	// dimension if it does not already exist.
	EnsureCollection(ctx context.Context, dim int) error

	// HasCollection reports whether the collection exists.
	HasCollection(ctx context.Context) (bool, error)

	// Insert upserts chunks into the collection.
	Insert(ctx context.Context, chunks []Chunk) error

	// Search runs a nearest-neighbor query and returns results ordered by
	// descending similarity.
	Search(ctx context.Context, q SearchQuery) ([]SearchResult, error)

	// Adjacent returns the chunks immediately before and after the given
	// chunk index within the same source file.
	Adjacent(ctx context.Context, filePath string, chunkIndex int64) ([]SearchResult, error)

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int64, error)

	// Close releases the connection.
	Close() error
}

// ValidateQuery checks a SearchQuery before dispatching it to a backend.
func ValidateQuery(q SearchQuery) error {
	if len(q.Vector) == 0 {
		return bmerr.New(bmerr.CodeVectorQueryFailure, "search: query vector must not be empty")
	}
	if q.TopK <= 0 {
		return bmerr.Errorf(bmerr.CodeVectorQueryFailure, "search: top_k must be positive, got %d", q.TopK)
	}
	return nil
}

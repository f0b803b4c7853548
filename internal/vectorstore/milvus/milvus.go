// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BeagleMind Contributors

// Package milvus implements vectorstore.VectorStore against an external
// Milvus deployment.
package milvus

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/beagleboard/beaglemind/internal/vectorstore"
	bmerr "github.com/beagleboard/beaglemind/pkg/errors"
)

const (
	defaultHost = "localhost"
	defaultPort = "19530"

	vectorField  = "embedding"
	indexNlist   = 1024
	searchNprobe = 16

	connectAttempts = 3
)

// Config holds Milvus connection settings.
type Config struct {
	Address  string // host:port or full URI
	Username string
	Password string
	Token    string
}

// ConfigFromEnv builds a Config from MILVUS_* environment variables.
// MILVUS_URI takes precedence over MILVUS_HOST/MILVUS_PORT.
func ConfigFromEnv() Config {
	cfg := Config{
		Username: os.Getenv("MILVUS_USER"),
		Password: os.Getenv("MILVUS_PASSWORD"),
		Token:    os.Getenv("MILVUS_TOKEN"),
	}

	if uri := os.Getenv("MILVUS_URI"); uri != "" {
		cfg.Address = uri
		return cfg
	}

	host := os.Getenv("MILVUS_HOST")
	if host == "" {
		host = defaultHost
	}
	port := os.Getenv("MILVUS_PORT")
	if port == "" {
		port = defaultPort
	}
	cfg.Address = host + ":" + port
	return cfg
}

// Store implements vectorstore.VectorStore backed by Milvus.
type Store struct {
	client     client.Client
	collection string
}

// Compile-time interface check.
var _ vectorstore.VectorStore = (*Store)(nil)

// Connect dials Milvus with a short exponential backoff and returns a Store
// bound to the given collection name.
func Connect(ctx context.Context, cfg Config, collection string) (*Store, error) {
	if collection == "" {
		return nil, bmerr.New(bmerr.CodeVectorConnectFailure, "milvus: collection name must not be empty")
	}

	var (
		c   client.Client
		err error
	)
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		c, err = client.NewClient(ctx, client.Config{
			Address:  cfg.Address,
			Username: cfg.Username,
			Password: cfg.Password,
			APIKey:   cfg.Token,
		})
		if err == nil {
			return &Store{client: c, collection: collection}, nil
		}

		if attempt < connectAttempts {
			delay := time.Duration(1<<(attempt-1)) * time.Second
			slog.Warn("milvus connection failed, retrying",
				"address", cfg.Address,
				"attempt", attempt,
				"retry_in", delay,
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, bmerr.Wrap(ctx.Err(), bmerr.CodeVectorConnectFailure, "milvus connection cancelled")
			}
		}
	}

	return nil, bmerr.Wrapf(err, bmerr.CodeVectorConnectFailure,
		"connecting to milvus at %s after %d attempts", cfg.Address, connectAttempts)
}

func (s *Store) Name() string { return vectorstore.BackendMilvus }

// Collection returns the bound collection name.
func (s *Store) Collection() string { return s.collection }

func (s *Store) HasCollection(ctx context.Context) (bool, error) {
	ok, err := s.client.HasCollection(ctx, s.collection)
	if err != nil {
		return false, bmerr.Wrapf(err, bmerr.CodeVectorQueryFailure,
			"checking collection %s", s.collection)
	}
	return ok, nil
}

// EnsureCollection creates the collection, vector index, and scalar indexes
// if missing, then loads the collection for querying.
func (s *Store) EnsureCollection(ctx context.Context, dim int) error {
	exists, err := s.HasCollection(ctx)
	if err != nil {
		return err
	}

	if !exists {
		schema := collectionSchema(s.collection, dim)
		if err := s.client.CreateCollection(ctx, schema, 1); err != nil {
			return bmerr.Wrapf(err, bmerr.CodeVectorSchemaFailure,
				"creating collection %s", s.collection)
		}

		idx, err := entity.NewIndexIvfFlat(entity.COSINE, indexNlist)
		if err != nil {
			return bmerr.Wrap(err, bmerr.CodeVectorSchemaFailure, "building vector index")
		}
		if err := s.client.CreateIndex(ctx, s.collection, vectorField, idx, false); err != nil {
			return bmerr.Wrapf(err, bmerr.CodeVectorSchemaFailure,
				"creating vector index on %s", s.collection)
		}
	}

	if err := s.client.LoadCollection(ctx, s.collection, false); err != nil {
		return bmerr.Wrapf(err, bmerr.CodeVectorConnectFailure,
			"loading collection %s", s.collection)
	}
	return nil
}

func collectionSchema(name string, dim int) *entity.Schema {
	schema := entity.NewSchema().
		WithName(name).
		WithDescription("BeagleMind documentation chunks").
		WithField(entity.NewField().WithName("id").WithDataType(entity.FieldTypeVarChar).WithMaxLength(100).WithIsPrimaryKey(true)).
		WithField(entity.NewField().WithName("document").WithDataType(entity.FieldTypeVarChar).WithMaxLength(65535)).
		WithField(entity.NewField().WithName(vectorField).WithDataType(entity.FieldTypeFloatVector).WithDim(int64(dim)))

	for _, f := range varCharFields {
		schema = schema.WithField(entity.NewField().WithName(f.name).WithDataType(entity.FieldTypeVarChar).WithMaxLength(f.maxLen))
	}
	for _, name := range int64Fields {
		schema = schema.WithField(entity.NewField().WithName(name).WithDataType(entity.FieldTypeInt64))
	}
	for _, name := range boolFields {
		schema = schema.WithField(entity.NewField().WithName(name).WithDataType(entity.FieldTypeBool))
	}
	for _, name := range floatFields {
		schema = schema.WithField(entity.NewField().WithName(name).WithDataType(entity.FieldTypeFloat))
	}
	return schema
}

type varCharField struct {
	name   string
	maxLen int64
}

var varCharFields = []varCharField{
	{"file_name", 500},
	{"file_path", 1000},
	{"file_type", 50},
	{"source_link", 2000},
	{"raw_url", 2000},
	{"blob_url", 2000},
	{"chunk_method", 50},
	{"image_links", 5000},
	{"attachment_links", 5000},
	{"language", 50},
	{"external_links", 3000},
	{"function_names", 2000},
	{"class_names", 1000},
	{"import_statements", 2000},
	{"keywords", 2000},
	{"repo_name", 200},
	{"repo_owner", 100},
	{"branch", 100},
	{"commit_sha", 100},
	{"created_at", 50},
	{"embedding_model", 100},
}

var int64Fields = []string{"file_size", "chunk_index", "chunk_length", "image_count"}

var boolFields = []string{"has_images", "has_code", "has_documentation", "has_links"}

var floatFields = []string{"content_quality_score", "semantic_density_score", "information_value_score"}

// Insert upserts chunks and flushes so they become searchable.
func (s *Store) Insert(ctx context.Context, chunks []vectorstore.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	n := len(chunks)
	dim := len(chunks[0].Embedding)

	ids := make([]string, n)
	docs := make([]string, n)
	vectors := make([][]float32, n)
	str := make(map[string][]string, len(varCharFields))
	for _, f := range varCharFields {
		str[f.name] = make([]string, n)
	}
	i64 := make(map[string][]int64, len(int64Fields))
	for _, name := range int64Fields {
		i64[name] = make([]int64, n)
	}
	bools := make(map[string][]bool, len(boolFields))
	for _, name := range boolFields {
		bools[name] = make([]bool, n)
	}
	floats := make(map[string][]float32, len(floatFields))
	for _, name := range floatFields {
		floats[name] = make([]float32, n)
	}

	for i, ch := range chunks {
		ids[i] = ch.ID
		docs[i] = ch.Document
		vectors[i] = ch.Embedding

		str["file_name"][i] = ch.FileName
		str["file_path"][i] = ch.FilePath
		str["file_type"][i] = ch.FileType
		str["source_link"][i] = ch.SourceLink
		str["raw_url"][i] = ch.RawURL
		str["blob_url"][i] = ch.BlobURL
		str["chunk_method"][i] = ch.ChunkMethod
		str["image_links"][i] = ch.ImageLinks
		str["attachment_links"][i] = ch.AttachmentLinks
		str["language"][i] = ch.Language
		str["external_links"][i] = ch.ExternalLinks
		str["function_names"][i] = ch.FunctionNames
		str["class_names"][i] = ch.ClassNames
		str["import_statements"][i] = ch.ImportStatements
		str["keywords"][i] = ch.Keywords
		str["repo_name"][i] = ch.RepoName
		str["repo_owner"][i] = ch.RepoOwner
		str["branch"][i] = ch.Branch
		str["commit_sha"][i] = ch.CommitSHA
		str["created_at"][i] = ch.CreatedAt
		str["embedding_model"][i] = ch.EmbeddingModel

		i64["file_size"][i] = ch.FileSize
		i64["chunk_index"][i] = ch.ChunkIndex
		i64["chunk_length"][i] = ch.ChunkLength
		i64["image_count"][i] = ch.ImageCount

		bools["has_images"][i] = ch.HasImages
		bools["has_code"][i] = ch.HasCode
		bools["has_documentation"][i] = ch.HasDocumentation
		bools["has_links"][i] = ch.HasLinks

		floats["content_quality_score"][i] = ch.ContentQualityScore
		floats["semantic_density_score"][i] = ch.SemanticDensityScore
		floats["information_value_score"][i] = ch.InformationValueScore
	}

	columns := []entity.Column{
		entity.NewColumnVarChar("id", ids),
		entity.NewColumnVarChar("document", docs),
		entity.NewColumnFloatVector(vectorField, dim, vectors),
	}
	for _, f := range varCharFields {
		columns = append(columns, entity.NewColumnVarChar(f.name, str[f.name]))
	}
	for _, name := range int64Fields {
		columns = append(columns, entity.NewColumnInt64(name, i64[name]))
	}
	for _, name := range boolFields {
		columns = append(columns, entity.NewColumnBool(name, bools[name]))
	}
	for _, name := range floatFields {
		columns = append(columns, entity.NewColumnFloat(name, floats[name]))
	}

	if _, err := s.client.Upsert(ctx, s.collection, "", columns...); err != nil {
		return bmerr.Wrapf(err, bmerr.CodeVectorInsertFailure,
			"inserting %d chunks into %s", n, s.collection)
	}
	if err := s.client.Flush(ctx, s.collection, false); err != nil {
		return bmerr.Wrapf(err, bmerr.CodeVectorInsertFailure,
			"flushing collection %s", s.collection)
	}
	return nil
}

// resultFields are the scalar fields returned by Search and Adjacent.
var resultFields = []string{
	"document", "file_name", "file_path", "file_type",
	"source_link", "language", "has_code", "chunk_index",
}

// Search runs an ANN query with an optional metadata filter expression.
func (s *Store) Search(ctx context.Context, q vectorstore.SearchQuery) ([]vectorstore.SearchResult, error) {
	if err := vectorstore.ValidateQuery(q); err != nil {
		return nil, err
	}

	sp, err := entity.NewIndexIvfFlatSearchParam(searchNprobe)
	if err != nil {
		return nil, bmerr.Wrap(err, bmerr.CodeVectorQueryFailure, "building search params")
	}

	results, err := s.client.Search(ctx, s.collection, nil, filterExpr(q.Filter), resultFields,
		[]entity.Vector{entity.FloatVector(q.Vector)}, vectorField, entity.COSINE, q.TopK, sp)
	if err != nil {
		return nil, bmerr.Wrapf(err, bmerr.CodeVectorQueryFailure,
			"searching collection %s", s.collection)
	}

	var out []vectorstore.SearchResult
	for _, rs := range results {
		for i := 0; i < rs.ResultCount; i++ {
			r := vectorstore.SearchResult{Score: rs.Scores[i]}

			if idCol, ok := rs.IDs.(*entity.ColumnVarChar); ok {
				r.ID, _ = idCol.ValueByIdx(i)
			}
			fillResult(&r, rs.Fields, i)
			out = append(out, r)
		}
	}
	return out, nil
}

// Adjacent fetches the chunks at chunk_index-1 and chunk_index+1 of the
// same source file.
func (s *Store) Adjacent(ctx context.Context, filePath string, chunkIndex int64) ([]vectorstore.SearchResult, error) {
	expr := fmt.Sprintf(`file_path == %s and chunk_index in [%d, %d]`,
		quoteExpr(filePath), chunkIndex-1, chunkIndex+1)

	// Query does not surface the primary key the way Search does, so ask
	// for it explicitly. Neighbors must carry the stored ID or dedupe
	// against direct hits breaks downstream.
	fields := append([]string{"id"}, resultFields...)
	rs, err := s.client.Query(ctx, s.collection, nil, expr, fields)
	if err != nil {
		return nil, bmerr.Wrapf(err, bmerr.CodeVectorQueryFailure,
			"querying adjacent chunks of %s", filePath)
	}

	n := 0
	if len(rs) > 0 {
		n = rs[0].Len()
	}

	out := make([]vectorstore.SearchResult, 0, n)
	for i := 0; i < n; i++ {
		var r vectorstore.SearchResult
		fillResult(&r, rs, i)
		out = append(out, r)
	}
	return out, nil
}

// fillResult copies the scalar output fields at row i into r.
func fillResult(r *vectorstore.SearchResult, cols []entity.Column, i int) {
	for _, col := range cols {
		switch c := col.(type) {
		case *entity.ColumnVarChar:
			v, err := c.ValueByIdx(i)
			if err != nil {
				continue
			}
			switch c.Name() {
			case "id":
				r.ID = v
			case "document":
				r.Document = v
			case "file_name":
				r.FileName = v
			case "file_path":
				r.FilePath = v
			case "file_type":
				r.FileType = v
			case "source_link":
				r.SourceLink = v
			case "language":
				r.Language = v
			}
		case *entity.ColumnBool:
			if c.Name() == "has_code" {
				if v, err := c.ValueByIdx(i); err == nil {
					r.HasCode = v
				}
			}
		case *entity.ColumnInt64:
			if c.Name() == "chunk_index" {
				if v, err := c.ValueByIdx(i); err == nil {
					r.ChunkIndex = v
				}
			}
		}
	}
}

// filterExpr renders a vectorstore.Filter as a Milvus boolean expression.
func filterExpr(f vectorstore.Filter) string {
	var terms []string
	if f.HasCode != nil {
		terms = append(terms, fmt.Sprintf("has_code == %t", *f.HasCode))
	}
	if f.Language != "" {
		terms = append(terms, "language == "+quoteExpr(f.Language))
	}
	if f.FileType != "" {
		terms = append(terms, "file_type == "+quoteExpr(f.FileType))
	}
	return strings.Join(terms, " and ")
}

// quoteExpr renders a string literal for a Milvus expression.
func quoteExpr(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}

// Count reads the row count from collection statistics.
func (s *Store) Count(ctx context.Context) (int64, error) {
	stats, err := s.client.GetCollectionStatistics(ctx, s.collection)
	if err != nil {
		return 0, bmerr.Wrapf(err, bmerr.CodeVectorQueryFailure,
			"reading statistics of %s", s.collection)
	}
	n, err := strconv.ParseInt(stats["row_count"], 10, 64)
	if err != nil {
		return 0, bmerr.Wrap(err, bmerr.CodeVectorQueryFailure, "parsing row_count statistic")
	}
	return n, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

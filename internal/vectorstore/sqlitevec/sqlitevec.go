// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BeagleMind Contributors

// Package sqlitevec implements vectorstore.VectorStore backed by SQLite
// with the sqlite-vec extension. It serves as the local, zero-service
// alternative to Milvus.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/beagleboard/beaglemind/internal/vectorstore"
	bmerr "github.com/beagleboard/beaglemind/pkg/errors"
)

func init() {
	sqlite_vec.Auto()
}

// Compile-time interface check.
var _ vectorstore.VectorStore = (*Store)(nil)

// Store holds one collection per database file. The collection name is
// recorded in the chunks table so mismatched files are detected early.
type Store struct {
	db         *sql.DB
	collection string
}

// Open opens (or creates) the SQLite database at dbPath for the named
// collection.
func Open(dbPath, collection string) (*Store, error) {
	if collection == "" {
		return nil, bmerr.New(bmerr.CodeVectorConnectFailure, "sqlite: collection name must not be empty")
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, bmerr.Wrapf(err, bmerr.CodeVectorConnectFailure, "opening sqlite db %s", dbPath)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, bmerr.Wrapf(err, bmerr.CodeVectorConnectFailure, "pinging sqlite db %s", dbPath)
	}

	return &Store{db: db, collection: collection}, nil
}

func (s *Store) Name() string { return vectorstore.BackendSQLiteVec }

func (s *Store) HasCollection(ctx context.Context) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type IN ('table', 'view') AND name = 'chunks'`).Scan(&n)
	if err != nil {
		return false, bmerr.Wrap(err, bmerr.CodeVectorQueryFailure, "checking chunks table")
	}
	return n > 0, nil
}

// EnsureCollection creates the vec0 virtual table and the chunks table.
func (s *Store) EnsureCollection(ctx context.Context, dim int) error {
	vecDDL := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS chunk_vectors USING vec0(id TEXT PRIMARY KEY, embedding float[%d] distance_metric=cosine)`,
		dim,
	)
	if _, err := s.db.ExecContext(ctx, vecDDL); err != nil {
		return bmerr.Wrap(err, bmerr.CodeVectorSchemaFailure, "creating chunk_vectors virtual table")
	}

	const chunkDDL = `
CREATE TABLE IF NOT EXISTS chunks (
	id          TEXT PRIMARY KEY,
	collection  TEXT NOT NULL,
	document    TEXT NOT NULL,
	file_name   TEXT NOT NULL DEFAULT '',
	file_path   TEXT NOT NULL DEFAULT '',
	file_type   TEXT NOT NULL DEFAULT '',
	source_link TEXT NOT NULL DEFAULT '',
	language    TEXT NOT NULL DEFAULT '',
	has_code    INTEGER NOT NULL DEFAULT 0,
	chunk_index INTEGER NOT NULL DEFAULT 0,
	metadata    TEXT NOT NULL DEFAULT '{}'
)`
	if _, err := s.db.ExecContext(ctx, chunkDDL); err != nil {
		return bmerr.Wrap(err, bmerr.CodeVectorSchemaFailure, "creating chunks table")
	}

	const idxDDL = `CREATE INDEX IF NOT EXISTS idx_chunks_file ON chunks(file_path, chunk_index)`
	if _, err := s.db.ExecContext(ctx, idxDDL); err != nil {
		return bmerr.Wrap(err, bmerr.CodeVectorSchemaFailure, "creating chunks file index")
	}

	return nil
}

// Insert upserts chunks. vec0 does not support ON CONFLICT, so existing
// vectors are deleted first.
func (s *Store) Insert(ctx context.Context, chunks []vectorstore.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return bmerr.Wrap(err, bmerr.CodeVectorInsertFailure, "beginning insert transaction")
	}
	defer func() { _ = tx.Rollback() }()

	for _, ch := range chunks {
		blob, err := sqlite_vec.SerializeFloat32(ch.Embedding)
		if err != nil {
			return bmerr.Wrapf(err, bmerr.CodeVectorInsertFailure, "serializing embedding of chunk %s", ch.ID)
		}

		meta, err := json.Marshal(chunkMetadata(ch))
		if err != nil {
			return bmerr.Wrapf(err, bmerr.CodeVectorInsertFailure, "encoding metadata of chunk %s", ch.ID)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM chunk_vectors WHERE id = ?`, ch.ID); err != nil {
			return bmerr.Wrapf(err, bmerr.CodeVectorInsertFailure, "deleting existing vector %s", ch.ID)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO chunk_vectors(id, embedding) VALUES (?, ?)`, ch.ID, blob); err != nil {
			return bmerr.Wrapf(err, bmerr.CodeVectorInsertFailure, "inserting vector %s", ch.ID)
		}

		const chunkQ = `INSERT INTO chunks(id, collection, document, file_name, file_path, file_type, source_link, language, has_code, chunk_index, metadata)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	document = excluded.document,
	file_name = excluded.file_name,
	file_path = excluded.file_path,
	file_type = excluded.file_type,
	source_link = excluded.source_link,
	language = excluded.language,
	has_code = excluded.has_code,
	chunk_index = excluded.chunk_index,
	metadata = excluded.metadata`
		if _, err := tx.ExecContext(ctx, chunkQ,
			ch.ID, s.collection, ch.Document, ch.FileName, ch.FilePath, ch.FileType,
			ch.SourceLink, ch.Language, ch.HasCode, ch.ChunkIndex, string(meta)); err != nil {
			return bmerr.Wrapf(err, bmerr.CodeVectorInsertFailure, "upserting chunk %s", ch.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return bmerr.Wrap(err, bmerr.CodeVectorInsertFailure, "committing chunk insert")
	}
	return nil
}

// chunkMetadata collects the fields that are not first-class columns.
func chunkMetadata(ch vectorstore.Chunk) map[string]any {
	return map[string]any{
		"file_size":               ch.FileSize,
		"raw_url":                 ch.RawURL,
		"blob_url":                ch.BlobURL,
		"chunk_length":            ch.ChunkLength,
		"chunk_method":            ch.ChunkMethod,
		"has_images":              ch.HasImages,
		"image_links":             ch.ImageLinks,
		"image_count":             ch.ImageCount,
		"attachment_links":        ch.AttachmentLinks,
		"has_documentation":       ch.HasDocumentation,
		"has_links":               ch.HasLinks,
		"external_links":          ch.ExternalLinks,
		"function_names":          ch.FunctionNames,
		"class_names":             ch.ClassNames,
		"import_statements":       ch.ImportStatements,
		"keywords":                ch.Keywords,
		"repo_name":               ch.RepoName,
		"repo_owner":              ch.RepoOwner,
		"branch":                  ch.Branch,
		"commit_sha":              ch.CommitSHA,
		"created_at":              ch.CreatedAt,
		"embedding_model":         ch.EmbeddingModel,
		"content_quality_score":   ch.ContentQualityScore,
		"semantic_density_score":  ch.SemanticDensityScore,
		"information_value_score": ch.InformationValueScore,
	}
}

// Search runs a KNN query. Metadata filters are applied after the vector
// match, so the KNN fetches extra candidates when a filter is set.
func (s *Store) Search(ctx context.Context, q vectorstore.SearchQuery) ([]vectorstore.SearchResult, error) {
	if err := vectorstore.ValidateQuery(q); err != nil {
		return nil, err
	}

	blob, err := sqlite_vec.SerializeFloat32(q.Vector)
	if err != nil {
		return nil, bmerr.Wrap(err, bmerr.CodeVectorQueryFailure, "serializing query vector")
	}

	k := q.TopK
	if !q.Filter.IsZero() {
		k *= 4
	}

	const query = `SELECT v.id, v.distance, c.document, c.file_name, c.file_path, c.file_type, c.source_link, c.language, c.has_code, c.chunk_index
FROM chunk_vectors v
JOIN chunks c ON c.id = v.id
WHERE v.embedding MATCH ? AND k = ?
ORDER BY v.distance`

	rows, err := s.db.QueryContext(ctx, query, blob, k)
	if err != nil {
		return nil, bmerr.Wrap(err, bmerr.CodeVectorQueryFailure, "searching chunk vectors")
	}
	defer func() { _ = rows.Close() }()

	var results []vectorstore.SearchResult
	for rows.Next() {
		var (
			r        vectorstore.SearchResult
			distance float32
		)
		if err := rows.Scan(&r.ID, &distance, &r.Document, &r.FileName, &r.FilePath,
			&r.FileType, &r.SourceLink, &r.Language, &r.HasCode, &r.ChunkIndex); err != nil {
			return nil, bmerr.Wrap(err, bmerr.CodeVectorQueryFailure, "scanning search result")
		}
		r.Score = 1 - distance

		if !matchesFilter(r, q.Filter) {
			continue
		}
		results = append(results, r)
		if len(results) == q.TopK {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, bmerr.Wrap(err, bmerr.CodeVectorQueryFailure, "iterating search results")
	}
	return results, nil
}

func matchesFilter(r vectorstore.SearchResult, f vectorstore.Filter) bool {
	if f.HasCode != nil && r.HasCode != *f.HasCode {
		return false
	}
	if f.Language != "" && r.Language != f.Language {
		return false
	}
	if f.FileType != "" && r.FileType != f.FileType {
		return false
	}
	return true
}

// Adjacent returns the chunks at chunk_index-1 and chunk_index+1 within
// the same source file.
func (s *Store) Adjacent(ctx context.Context, filePath string, chunkIndex int64) ([]vectorstore.SearchResult, error) {
	const query = `SELECT id, document, file_name, file_path, file_type, source_link, language, has_code, chunk_index
FROM chunks
WHERE file_path = ? AND chunk_index IN (?, ?)
ORDER BY chunk_index`

	rows, err := s.db.QueryContext(ctx, query, filePath, chunkIndex-1, chunkIndex+1)
	if err != nil {
		return nil, bmerr.Wrapf(err, bmerr.CodeVectorQueryFailure, "querying adjacent chunks of %s", filePath)
	}
	defer func() { _ = rows.Close() }()

	var results []vectorstore.SearchResult
	for rows.Next() {
		var r vectorstore.SearchResult
		if err := rows.Scan(&r.ID, &r.Document, &r.FileName, &r.FilePath,
			&r.FileType, &r.SourceLink, &r.Language, &r.HasCode, &r.ChunkIndex); err != nil {
			return nil, bmerr.Wrap(err, bmerr.CodeVectorQueryFailure, "scanning adjacent chunk")
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, bmerr.Wrap(err, bmerr.CodeVectorQueryFailure, "iterating adjacent chunks")
	}
	return results, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, bmerr.Wrap(err, bmerr.CodeVectorQueryFailure, "counting chunks")
	}
	return n, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DBFileName returns the database file name used for a collection.
func DBFileName(collection string) string {
	return collection + ".db"
}

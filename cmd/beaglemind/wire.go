// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BeagleMind Contributors

package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/beagleboard/beaglemind/internal/backend"
	"github.com/beagleboard/beaglemind/internal/backend/groq"
	"github.com/beagleboard/beaglemind/internal/backend/ollama"
	"github.com/beagleboard/beaglemind/internal/config"
	"github.com/beagleboard/beaglemind/internal/embedding"
	"github.com/beagleboard/beaglemind/internal/secrets"
	"github.com/beagleboard/beaglemind/internal/vectorstore"
	"github.com/beagleboard/beaglemind/internal/vectorstore/milvus"
	"github.com/beagleboard/beaglemind/internal/vectorstore/sqlitevec"
	bmerr "github.com/beagleboard/beaglemind/pkg/errors"
)

const stateFileName = config.FileName

// configPath returns the --config override, or "" for the default location.
func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Root().PersistentFlags().GetString("config")
	return path
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(configPath(cmd))
}

// dataDir is where local state beyond the config file lives (sqlite
// databases).
func dataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", bmerr.Errorf(bmerr.CodeCLISetupFailure, "resolving home directory: %w", err)
	}
	return filepath.Join(home, ".beaglemind"), nil
}

// openStore connects to the configured vector store backend.
func openStore(ctx context.Context, cfg *config.Config) (vectorstore.VectorStore, error) {
	switch cfg.VectorBackend {
	case "", vectorstore.BackendMilvus:
		return milvus.Connect(ctx, milvus.ConfigFromEnv(), cfg.CollectionName)
	case vectorstore.BackendSQLiteVec:
		dir, err := dataDir()
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, bmerr.Errorf(bmerr.CodeCLISetupFailure, "creating data directory %s: %w", dir, err)
		}
		return sqlitevec.Open(filepath.Join(dir, sqlitevec.DBFileName(cfg.CollectionName)), cfg.CollectionName)
	default:
		return nil, bmerr.New(bmerr.CodeVectorBackendUnsupported,
			"unsupported vector backend "+cfg.VectorBackend)
	}
}

// newLLMBackend builds the chat backend by name. For groq the API key is
// resolved from the environment, then the config value (literal or
// keyring:// URI).
func newLLMBackend(name string, cfg *config.Config) (backend.Backend, error) {
	switch name {
	case backend.NameGroq:
		key, err := secrets.ResolveGroqAPIKey(secrets.NewKeyringStore(), cfg.GroqAPIKey)
		if err != nil {
			return nil, err
		}
		return groq.New(groq.Config{APIKey: key})
	case backend.NameOllama:
		return ollama.New(ollama.Config{Host: ollama.HostFromEnv()}), nil
	default:
		return nil, bmerr.New(bmerr.CodeBackendUnknown,
			"unknown backend "+name, bmerr.FieldBackend(name))
	}
}

func newEmbedder(cfg *config.Config) embedding.Embedder {
	return embedding.NewOllamaEmbedder(ollama.HostFromEnv(), cfg.EmbeddingModel)
}

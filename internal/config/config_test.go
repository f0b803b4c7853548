// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BeagleMind Contributors

package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/beagleboard/beaglemind/internal/config"
	bmerr "github.com/beagleboard/beaglemind/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsUninitialized(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), config.FileName))
	require.NoError(t, err)
	assert.False(t, cfg.Initialized)
	assert.Empty(t, cfg.CollectionName)
	assert.Equal(t, config.DefaultVectorBackend, cfg.VectorBackend)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.FileName)

	cfg := config.New()
	cfg.CollectionName = "beaglemind_col"
	cfg.DefaultBackend = "ollama"
	cfg.DefaultModel = "llama3.2:3b"
	cfg.DefaultTemperature = 0.7
	cfg.Initialized = true

	require.NoError(t, cfg.Save(path))

	got, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "beaglemind_col", got.CollectionName)
	assert.Equal(t, "ollama", got.DefaultBackend)
	assert.Equal(t, "llama3.2:3b", got.DefaultModel)
	assert.InDelta(t, 0.7, got.DefaultTemperature, 1e-9)
	assert.True(t, got.Initialized)
}

func TestSaveWritesFlatJSONWithTightPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.FileName)

	cfg := config.New()
	cfg.Initialized = true
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var flat map[string]any
	require.NoError(t, json.Unmarshal(raw, &flat))
	assert.Contains(t, flat, "collection_name")
	assert.Contains(t, flat, "default_backend")
	assert.Contains(t, flat, "default_temperature")
	assert.Equal(t, true, flat["initialized"])
}

func TestLoadRejectsInvalidBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.FileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"default_backend": "openai", "initialized": true, "collection_name": "c"}`), 0o600))

	_, err := config.Load(path)
	require.Error(t, err)
	assert.True(t, bmerr.HasCode(err, bmerr.CodeConfigValidateInvalidValue))
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.FileName)
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))

	_, err := config.Load(path)
	require.Error(t, err)
}

func TestValidateTemperatureRange(t *testing.T) {
	cfg := config.New()
	cfg.DefaultTemperature = 1.5
	errs := cfg.Validate()
	require.Len(t, errs, 1)
	assert.True(t, bmerr.HasCode(errs[0], bmerr.CodeConfigValidateInvalidValue))

	cfg.DefaultTemperature = -0.1
	errs = cfg.Validate()
	require.Len(t, errs, 1)

	cfg.DefaultTemperature = 0
	assert.Empty(t, cfg.Validate())
	cfg.DefaultTemperature = 1
	assert.Empty(t, cfg.Validate())
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := &config.Config{
		DefaultBackend:     "huggingface",
		DefaultTemperature: 2,
		VectorBackend:      "pinecone",
		Initialized:        true,
	}
	errs := cfg.Validate()
	assert.Len(t, errs, 4) // backend, temperature, vector backend, empty collection
}

func TestSaveRejectsInvalidState(t *testing.T) {
	cfg := config.New()
	cfg.DefaultTemperature = 3

	err := cfg.Save(filepath.Join(t.TempDir(), config.FileName))
	require.Error(t, err)
	assert.True(t, bmerr.HasCode(err, bmerr.CodeConfigValidateInvalidValue))
}

func TestEnvOverridesFileValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.FileName)

	cfg := config.New()
	cfg.Initialized = true
	require.NoError(t, cfg.Save(path))

	t.Setenv("BEAGLEMIND_DEFAULT_BACKEND", "ollama")

	got, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ollama", got.DefaultBackend)
}

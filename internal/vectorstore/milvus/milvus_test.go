// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BeagleMind Contributors

package milvus_test

import (
	"testing"

	"github.com/beagleboard/beaglemind/internal/vectorstore/milvus"
	"github.com/stretchr/testify/assert"
)

func clearMilvusEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"MILVUS_URI", "MILVUS_HOST", "MILVUS_PORT", "MILVUS_USER", "MILVUS_PASSWORD", "MILVUS_TOKEN"} {
		t.Setenv(k, "")
	}
}

func TestConfigFromEnv_Defaults(t *testing.T) {
	clearMilvusEnv(t)

	cfg := milvus.ConfigFromEnv()
	assert.Equal(t, "localhost:19530", cfg.Address)
	assert.Empty(t, cfg.Username)
	assert.Empty(t, cfg.Token)
}

func TestConfigFromEnv_HostPort(t *testing.T) {
	clearMilvusEnv(t)
	t.Setenv("MILVUS_HOST", "milvus.internal")
	t.Setenv("MILVUS_PORT", "29530")
	t.Setenv("MILVUS_USER", "reader")
	t.Setenv("MILVUS_PASSWORD", "hunter2")

	cfg := milvus.ConfigFromEnv()
	assert.Equal(t, "milvus.internal:29530", cfg.Address)
	assert.Equal(t, "reader", cfg.Username)
	assert.Equal(t, "hunter2", cfg.Password)
}

func TestConfigFromEnv_URIWins(t *testing.T) {
	clearMilvusEnv(t)
	t.Setenv("MILVUS_HOST", "ignored")
	t.Setenv("MILVUS_URI", "https://cluster.zillizcloud.com:443")
	t.Setenv("MILVUS_TOKEN", "api-token")

	cfg := milvus.ConfigFromEnv()
	assert.Equal(t, "https://cluster.zillizcloud.com:443", cfg.Address)
	assert.Equal(t, "api-token", cfg.Token)
}

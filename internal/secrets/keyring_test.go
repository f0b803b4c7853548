// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BeagleMind Contributors

package secrets_test

import (
	"testing"

	"github.com/beagleboard/beaglemind/internal/secrets"
	bmerr "github.com/beagleboard/beaglemind/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func init() {
	// Use the mock keyring for all tests so they don't touch the real OS keyring.
	keyring.MockInit()
}

func TestKeyringStore_StoreAndRetrieve(t *testing.T) {
	ks := secrets.NewKeyringStore()
	svc := "test-store-retrieve"

	err := ks.Store(svc, "groq-api-key", "gsk_secret_123")
	require.NoError(t, err)

	val, err := ks.Retrieve(svc, "groq-api-key")
	require.NoError(t, err)
	assert.Equal(t, "gsk_secret_123", val)
}

func TestKeyringStore_RetrieveNotFound(t *testing.T) {
	ks := secrets.NewKeyringStore()

	_, err := ks.Retrieve("no-such-service", "no-key")
	require.Error(t, err)
	assert.True(t, bmerr.HasCode(err, bmerr.CodeSecretNotFound), "expected CodeSecretNotFound, got: %v", err)
}

func TestKeyringStore_Delete(t *testing.T) {
	ks := secrets.NewKeyringStore()
	svc := "test-delete"

	err := ks.Store(svc, "temp-key", "temp-value")
	require.NoError(t, err)

	err = ks.Delete(svc, "temp-key")
	require.NoError(t, err)

	_, err = ks.Retrieve(svc, "temp-key")
	require.Error(t, err)
	assert.True(t, bmerr.HasCode(err, bmerr.CodeSecretNotFound))
}

func TestKeyringStore_DeleteNotFound(t *testing.T) {
	ks := secrets.NewKeyringStore()

	err := ks.Delete("no-such-service", "no-key")
	require.Error(t, err)
	assert.True(t, bmerr.HasCode(err, bmerr.CodeSecretNotFound))
}

func TestKeyringStore_List(t *testing.T) {
	ks := secrets.NewKeyringStore()
	svc := "test-list"

	keys, err := ks.List(svc)
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, ks.Store(svc, "key-a", "a"))
	require.NoError(t, ks.Store(svc, "key-b", "b"))

	keys, err = ks.List(svc)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"key-a", "key-b"}, keys)

	require.NoError(t, ks.Delete(svc, "key-a"))

	keys, err = ks.List(svc)
	require.NoError(t, err)
	assert.Equal(t, []string{"key-b"}, keys)
}

func TestKeyringStore_StoreIsIdempotentInIndex(t *testing.T) {
	ks := secrets.NewKeyringStore()
	svc := "test-idempotent"

	require.NoError(t, ks.Store(svc, "key", "v1"))
	require.NoError(t, ks.Store(svc, "key", "v2"))

	keys, err := ks.List(svc)
	require.NoError(t, err)
	assert.Equal(t, []string{"key"}, keys)

	val, err := ks.Retrieve(svc, "key")
	require.NoError(t, err)
	assert.Equal(t, "v2", val)
}

func TestKeyringStore_EmptyInputRejected(t *testing.T) {
	ks := secrets.NewKeyringStore()

	err := ks.Store("", "key", "v")
	assert.True(t, bmerr.HasCode(err, bmerr.CodeSecretInvalidInput))

	err = ks.Store("svc", "", "v")
	assert.True(t, bmerr.HasCode(err, bmerr.CodeSecretInvalidInput))

	_, err = ks.Retrieve("", "key")
	assert.True(t, bmerr.HasCode(err, bmerr.CodeSecretInvalidInput))

	err = ks.Delete("svc", "")
	assert.True(t, bmerr.HasCode(err, bmerr.CodeSecretInvalidInput))
}

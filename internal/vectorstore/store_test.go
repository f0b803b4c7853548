// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BeagleMind Contributors

package vectorstore_test

import (
	"testing"

	"github.com/beagleboard/beaglemind/internal/vectorstore"
	bmerr "github.com/beagleboard/beaglemind/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateQuery(t *testing.T) {
	valid := vectorstore.SearchQuery{Vector: []float32{0.1, 0.2}, TopK: 5}
	assert.NoError(t, vectorstore.ValidateQuery(valid))

	noVec := valid
	noVec.Vector = nil
	err := vectorstore.ValidateQuery(noVec)
	require.Error(t, err)
	assert.True(t, bmerr.HasCode(err, bmerr.CodeVectorQueryFailure))

	badK := valid
	badK.TopK = 0
	assert.Error(t, vectorstore.ValidateQuery(badK))
}

func TestFilterIsZero(t *testing.T) {
	assert.True(t, vectorstore.Filter{}.IsZero())

	hasCode := true
	assert.False(t, vectorstore.Filter{HasCode: &hasCode}.IsZero())
	assert.False(t, vectorstore.Filter{Language: "python"}.IsZero())
	assert.False(t, vectorstore.Filter{FileType: ".md"}.IsZero())
}

// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package model_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/jaycherian/gcp-go-label-search/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideoIDAlphabet(t *testing.T) {
	assert.Len(t, model.VideoIDAlphabet, 63)
	for i := 0; i < len(model.VideoIDAlphabet); i++ {
		assert.Equal(t, 1, strings.Count(model.VideoIDAlphabet, model.VideoIDAlphabet[i:i+1]))
	}
}

func TestNewVideoIDIsValid(t *testing.T) {
	seen := make(map[string]struct{})
	symbols := make(map[rune]int)
	for i := 0; i < 500; i++ {
		id, err := model.NewVideoID()
		require.NoError(t, err)
		assert.Len(t, id, model.VideoIDLength)
		assert.True(t, model.IsValidVideoID(id), id)
		seen[id] = struct{}{}
		for _, r := range id {
			symbols[r]++
		}
	}
	assert.Len(t, seen, 500)
	// 11000 draws over 63 symbols: every symbol shows up.
	assert.Len(t, symbols, len(model.VideoIDAlphabet))
}

func TestIsValidVideoIDMutations(t *testing.T) {
	id, err := model.NewVideoID()
	require.NoError(t, err)

	for i := 0; i < len(id); i++ {
		for _, bad := range []byte{'-', '.', '/', ' ', '%', '~'} {
			mutated := []byte(id)
			mutated[i] = bad
			assert.False(t, model.IsValidVideoID(string(mutated)), "position %d with %q", i, bad)
		}
	}

	assert.False(t, model.IsValidVideoID(id[:len(id)-1]))
	assert.False(t, model.IsValidVideoID(id+"a"))
	assert.False(t, model.IsValidVideoID(""))
	assert.False(t, model.IsValidVideoID(strings.Repeat("é", model.VideoIDLength/2)))
	assert.True(t, model.IsValidVideoID(strings.Repeat("_", model.VideoIDLength)))
}

func TestValidateVideoID(t *testing.T) {
	err := model.ValidateVideoID("not-valid")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidVideoID))
	assert.True(t, model.IsValidationError(err))

	assert.NoError(t, model.ValidateVideoID("abcdefghijABCDEFGHIJ_9"))
}

func TestIndexRequestValidate(t *testing.T) {
	req := &model.IndexRequest{VideoID: "abcdefghijABCDEFGHIJ_9", Bucket: "thumbnails"}
	require.NoError(t, req.Validate())
	assert.Equal(t, "abcdefghijABCDEFGHIJ_9.png", req.ObjectName())

	req.ThumbnailKey = "custom/key.png"
	assert.Equal(t, "custom/key.png", req.ObjectName())

	req.Bucket = ""
	assert.True(t, model.IsValidationError(req.Validate()))

	req = &model.IndexRequest{VideoID: "../etc", Bucket: "thumbnails"}
	assert.ErrorIs(t, req.Validate(), model.ErrInvalidVideoID)
}

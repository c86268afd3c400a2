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

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-label-search/internal/cloud"
	"github.com/jaycherian/gcp-go-label-search/internal/core/model"
	"github.com/jaycherian/gcp-go-label-search/internal/labelstore"
)

const videoOne = "aaaaaaaaaaaaaaaaaaaaa1"

// memoryApp returns an app whose commands share one in-memory store.
func memoryApp(t *testing.T) (*app, *int) {
	t.Helper()
	store := labelstore.NewMemory()
	opened := 0
	a := newApp(cloud.NewConfig())
	a.openStore = func(_ context.Context, cfg labelstore.Config) (labelstore.Store, func() error, error) {
		opened++
		return store, func() error { return nil }, nil
	}
	return a, &opened
}

func run(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := a.rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestIndexAndSearch(t *testing.T) {
	a, opened := memoryApp(t)

	out, err := run(t, a, "index", videoOne, "Golden Retriever", "dog")
	require.NoError(t, err)
	var labels model.Labels
	require.NoError(t, json.Unmarshal([]byte(out), &labels))
	assert.Equal(t, []string{"dog", "golden", "retriever"}, labels.Labels)

	out, err = run(t, a, "search", "DOG", "cat")
	require.NoError(t, err)
	var result model.SearchResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Videos, 1)
	assert.Equal(t, videoOne, result.Videos[0].VideoID)
	assert.Equal(t, []string{"dog"}, result.Videos[0].Labels)
	assert.Equal(t, 2, *opened)
}

func TestIndexRejectsInvalidID(t *testing.T) {
	a, _ := memoryApp(t)
	_, err := run(t, a, "index", "nope", "dog")
	assert.ErrorIs(t, err, model.ErrInvalidVideoID)
}

func TestGenAndValidateID(t *testing.T) {
	a, opened := memoryApp(t)

	out, err := run(t, a, "gen-id")
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	assert.True(t, model.IsValidVideoID(id))

	_, err = run(t, a, "validate-id", id)
	assert.NoError(t, err)

	_, err = run(t, a, "validate-id", "too-short")
	assert.Error(t, err)
	assert.Equal(t, 0, *opened)
}

func TestStoreConfigOverrides(t *testing.T) {
	a, _ := memoryApp(t)
	a.backend = labelstore.BackendMemory
	a.path = "/tmp/labels"

	cfg := a.storeConfig()
	assert.Equal(t, labelstore.BackendMemory, cfg.Backend)
	assert.Equal(t, "/tmp/labels", cfg.BadgerPath)
}

func TestOpenConfiguredMemoryStore(t *testing.T) {
	open := openConfiguredStore(cloud.NewConfig())
	store, release, err := open(context.Background(), labelstore.Config{Backend: labelstore.BackendMemory})
	require.NoError(t, err)
	assert.NotNil(t, store)
	assert.NoError(t, release())
}

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

package services_test

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/jaycherian/gcp-go-label-search/internal/core/model"
	"github.com/jaycherian/gcp-go-label-search/internal/core/services"
	"github.com/jaycherian/gcp-go-label-search/internal/labelstore"
	"github.com/zeebo/assert"
)

// indexedServices indexes videoOne under {cat, pet} and videoTwo under {cat}.
func indexedServices(t *testing.T) (*services.LabelSearchService, *recordingStore) {
	t.Helper()
	store := newRecordingStore()
	writer := &services.LabelIndexService{Store: store}
	assert.NoError(t, writer.Index(context.Background(), videoOne, []string{"cat", "pet"}))
	assert.NoError(t, writer.Index(context.Background(), videoTwo, []string{"cat"}))
	return &services.LabelSearchService{Store: store, Locations: model.DefaultMediaLocations()}, store
}

func videoIDs(records []*model.SearchResultRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.VideoID)
	}
	sort.Strings(out)
	return out
}

func TestSearchRoundTrip(t *testing.T) {
	svc, _ := indexedServices(t)

	out, err := svc.Search(context.Background(), []string{"cat"})
	assert.NoError(t, err)
	assert.DeepEqual(t, videoIDs(out), []string{videoOne, videoTwo})
	for _, r := range out {
		assert.DeepEqual(t, r.Labels, []string{"cat"})
		assert.Equal(t, r.VideoURL, model.DefaultMediaLocations().VideoURL(r.VideoID))
	}

	out, err = svc.Search(context.Background(), []string{"pet"})
	assert.NoError(t, err)
	assert.DeepEqual(t, videoIDs(out), []string{videoOne})
}

func TestSearchAccumulatesLabelsPerVideo(t *testing.T) {
	svc, _ := indexedServices(t)

	out, err := svc.Search(context.Background(), []string{"pet", "cat", "cat"})
	assert.NoError(t, err)
	assert.Equal(t, len(out), 2)
	for _, r := range out {
		switch r.VideoID {
		case videoOne:
			assert.DeepEqual(t, r.Labels, []string{"cat", "pet"})
		case videoTwo:
			assert.DeepEqual(t, r.Labels, []string{"cat"})
		default:
			t.Fatalf("unexpected video %s", r.VideoID)
		}
	}
}

func TestSearchCaseInsensitive(t *testing.T) {
	svc, store := indexedServices(t)

	upper, err := svc.Search(context.Background(), []string{"Cat"})
	assert.NoError(t, err)
	lower, err := svc.Search(context.Background(), []string{"cat"})
	assert.NoError(t, err)
	assert.DeepEqual(t, videoIDs(upper), videoIDs(lower))
	assert.DeepEqual(t, store.reads[0], []string{"cat"})
}

func TestSearchNoMatches(t *testing.T) {
	svc, _ := indexedServices(t)

	out, err := svc.Search(context.Background(), []string{"giraffe"})
	assert.NoError(t, err)
	assert.NotNil(t, out)
	assert.Equal(t, len(out), 0)
}

func TestSearchText(t *testing.T) {
	svc, store := indexedServices(t)

	out, err := svc.SearchText(context.Background(), "  PET  pet ")
	assert.NoError(t, err)
	assert.DeepEqual(t, videoIDs(out), []string{videoOne})
	assert.DeepEqual(t, store.reads[len(store.reads)-1], []string{"pet"})
}

func TestSearchValidation(t *testing.T) {
	svc, store := indexedServices(t)

	_, err := svc.Search(context.Background(), nil)
	assert.That(t, errors.Is(err, model.ErrNoTokens))
	_, err = svc.SearchText(context.Background(), "   ")
	assert.That(t, errors.Is(err, model.ErrNoTokens))
	assert.Equal(t, len(store.reads), 0)
}

func TestSearchStoreError(t *testing.T) {
	svc, store := indexedServices(t)
	store.readErr = labelstore.ErrStore

	_, err := svc.Search(context.Background(), []string{"cat"})
	assert.Error(t, err)
	assert.That(t, errors.Is(err, labelstore.ErrStore))
	assert.That(t, !model.IsValidationError(err))
}

func TestInvertLabelRows(t *testing.T) {
	rows := []labelstore.Row{
		{Key: "cat", Values: []string{videoOne, videoTwo}},
		{Key: "pet", Values: []string{videoOne}},
		{Key: "legacy"},
		{Key: "", Values: []string{videoTwo}},
		{Key: "cat", Values: []string{videoOne}},
	}

	out := services.InvertLabelRows(rows)
	assert.DeepEqual(t, out, map[string][]string{
		videoOne: {"cat", "pet"},
		videoTwo: {"cat"},
	})

	assert.Equal(t, len(services.InvertLabelRows(nil)), 0)
}

func TestSearchSkipsMalformedIDs(t *testing.T) {
	store := labelstore.NewMemory()
	assert.NoError(t, store.TransactAddToSet(context.Background(), []labelstore.AddToSet{
		{Key: "cat", Values: []string{"../../etc/passwd", videoOne}},
	}))
	svc := &services.LabelSearchService{Store: store, Locations: model.DefaultMediaLocations()}

	out, err := svc.Search(context.Background(), []string{"cat"})
	assert.NoError(t, err)
	assert.DeepEqual(t, videoIDs(out), []string{videoOne})
}

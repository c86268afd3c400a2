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

package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/jaycherian/gcp-go-label-search/internal/core/model"
	"github.com/jaycherian/gcp-go-label-search/internal/labelstore"
)

// LabelSearchService answers label queries by inverting the stored
// label -> videos rows into video -> labels records.
type LabelSearchService struct {
	Store     labelstore.Store     // Store holding the label index.
	Locations model.MediaLocations // Where the derived media URLs point to.
}

// Search returns one record per video indexed under at least one of tokens.
//
// Inputs:
//   - ctx: The context for the request.
//   - tokens: The query tokens. They are lowercased and deduplicated first.
//
// Outputs:
//   - []*model.SearchResultRecord: The matching videos in no particular order;
//     an empty (non-nil) list when nothing matched.
//   - error: model.ErrNoTokens when no usable token remains, or a store error.
func (s *LabelSearchService) Search(ctx context.Context, tokens []string) ([]*model.SearchResultRecord, error) {
	query := model.NormalizeQuery(tokens)
	if len(query) == 0 {
		return nil, model.ErrNoTokens
	}

	rows, err := s.Store.BatchGet(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read label rows: %w", err)
	}

	videos := InvertLabelRows(rows)
	out := make([]*model.SearchResultRecord, 0, len(videos))
	for videoID, labels := range videos {
		// Never format a malformed id into a URL.
		if !model.IsValidVideoID(videoID) {
			slog.WarnContext(ctx, "skipping malformed video id in label index", "labels", labels)
			continue
		}
		out = append(out, model.NewSearchResultRecord(videoID, labels, s.Locations))
	}

	slog.InfoContext(ctx, "label search", "tokens", len(query), "rows", len(rows), "videos", len(out))
	return out, nil
}

// SearchText splits a free-text query on whitespace and runs Search.
func (s *LabelSearchService) SearchText(ctx context.Context, q string) ([]*model.SearchResultRecord, error) {
	return s.Search(ctx, model.SplitQuery(q))
}

// InvertLabelRows turns label -> posting set rows into a video -> labels
// mapping. Rows without a label or with an empty posting set are skipped.
// Every label list is sorted and free of duplicates, even when the same row
// was returned twice.
func InvertLabelRows(rows []labelstore.Row) map[string][]string {
	out := make(map[string][]string)
	for _, row := range rows {
		if len(row.Key) == 0 || len(row.Values) == 0 {
			continue
		}
		for _, videoID := range row.Values {
			out[videoID] = append(out[videoID], row.Key)
		}
	}
	for videoID, labels := range out {
		slices.Sort(labels)
		out[videoID] = slices.Compact(labels)
	}
	return out
}

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

// Package services contains the business logic for interacting with data sources.
// This file, `label_index.go`, defines the LabelIndexService, the write side of
// the label index.
//
// Logic Flow:
//  1. The video identifier and the token set are validated before any I/O:
//     the set must be non-empty and every token canonical (non-empty,
//     lowercase, no whitespace).
//  2. The tokens are partitioned into consecutive chunks of at most
//     `labelstore.MaxTransactItems` tokens.
//  3. Each chunk becomes one atomic transaction holding one add-to-set item per
//     token, adding the video identifier to the token's posting set.
//  4. Chunks are submitted strictly in order. The first failing chunk stops the
//     run and is returned to the caller; earlier chunks stay committed.
//
// Re-running an index operation is always safe because adding an identifier
// that is already present in a posting set changes nothing.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-label-search/internal/core/model"
	"github.com/jaycherian/gcp-go-label-search/internal/labelstore"
)

// LabelIndexService adds videos to the posting sets of their label tokens.
type LabelIndexService struct {
	Store labelstore.Store // Transactional store holding the label index.
}

// Index adds videoID to the posting set of every token.
//
// Inputs:
//   - ctx: The context for the request, used for cancellation and tracing.
//   - videoID: A valid video identifier.
//   - tokens: A non-empty set of canonical tokens, normally the output of
//     model.NormalizeLabels. Tokens failing model.IsValidToken are rejected.
//
// Outputs:
//   - error: A validation error (model.ErrValidation) for bad input, or the
//     store error of the first failing chunk, wrapped with its position.
func (s *LabelIndexService) Index(ctx context.Context, videoID string, tokens []string) error {
	if err := model.ValidateVideoID(videoID); err != nil {
		return err
	}
	if err := model.ValidateTokens(tokens); err != nil {
		return err
	}

	chunks := ChunkTokens(tokens, labelstore.MaxTransactItems)
	slog.DebugContext(ctx, "indexing video", "video_id", videoID, "tokens", len(tokens), "chunks", len(chunks))

	for i, chunk := range chunks {
		items := make([]labelstore.AddToSet, 0, len(chunk))
		for _, token := range chunk {
			items = append(items, labelstore.AddToSet{Key: token, Values: []string{videoID}})
		}
		if err := s.Store.TransactAddToSet(ctx, items); err != nil {
			slog.ErrorContext(ctx, "index chunk failed", "video_id", videoID, "chunk", i+1, "chunks", len(chunks), "error", err)
			return fmt.Errorf("index chunk %d/%d for video %s: %w", i+1, len(chunks), videoID, err)
		}
	}

	slog.InfoContext(ctx, "video indexed", "video_id", videoID, "tokens", len(tokens), "chunks", len(chunks))
	return nil
}

// ChunkTokens partitions tokens into consecutive chunks of at most size
// elements. The chunks share the backing array of tokens.
func ChunkTokens(tokens []string, size int) [][]string {
	if size <= 0 {
		size = 1
	}
	chunks := make([][]string, 0, (len(tokens)+size-1)/size)
	for start := 0; start < len(tokens); start += size {
		end := min(start+size, len(tokens))
		chunks = append(chunks, tokens[start:end:end])
	}
	return chunks
}

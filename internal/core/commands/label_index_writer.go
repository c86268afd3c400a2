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

package commands

import (
	"context"
	"log/slog"

	"github.com/jaycherian/gcp-go-label-search/internal/core/cor"
	"github.com/jaycherian/gcp-go-label-search/internal/core/model"
)

// LabelIndexer stores a video id under each of its tokens.
// services.LabelIndexService is the production implementation.
type LabelIndexer interface {
	Index(ctx context.Context, videoID string, tokens []string) error
}

// LabelIndexWriter writes the *model.Labels input to the label index under the
// video id of the run's IndexRequest, then outputs the same labels.
type LabelIndexWriter struct {
	cor.BaseCommand
	indexer LabelIndexer
}

// NewLabelIndexWriter is the constructor for the LabelIndexWriter command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - indexer: The label index service.
//
// Outputs:
//   - *LabelIndexWriter: A pointer to the newly instantiated command.
func NewLabelIndexWriter(name string, indexer LabelIndexer) *LabelIndexWriter {
	return &LabelIndexWriter{BaseCommand: *cor.NewBaseCommand(name), indexer: indexer}
}

// Execute writes the labels. A run that produced no tokens completes with
// empty labels and leaves the store untouched.
func (c *LabelIndexWriter) Execute(context cor.Context) {
	labels, ok := cor.Get[*model.Labels](context, c.GetInputParam())
	if !ok || labels == nil {
		c.Fail(context, model.NewValidationError("labels are required"))
		return
	}
	request, ok := cor.Get[*model.IndexRequest](context, IndexRequestParam)
	if !ok || request == nil {
		c.Fail(context, model.NewValidationError("index request is missing from the context"))
		return
	}

	if labels.Len() == 0 {
		slog.InfoContext(context.GetContext(), "no labels detected, nothing to index", "video_id", request.VideoID)
		c.Succeed(context, labels)
		return
	}

	if err := c.indexer.Index(context.GetContext(), request.VideoID, labels.Labels); err != nil {
		c.Fail(context, err)
		return
	}
	c.Succeed(context, labels)
}

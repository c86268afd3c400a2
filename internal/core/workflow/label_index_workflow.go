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

// Package workflow combines commands into the label indexing pipelines. This
// file implements the synchronous indexing entry point.
package workflow

import (
	"context"
	"fmt"

	"github.com/jaycherian/gcp-go-label-search/internal/cloud"
	"github.com/jaycherian/gcp-go-label-search/internal/core/commands"
	"github.com/jaycherian/gcp-go-label-search/internal/core/cor"
	"github.com/jaycherian/gcp-go-label-search/internal/core/model"
)

// LabelIndexWorkflow detects, normalizes and indexes the labels of one
// thumbnail. Its input is a *model.IndexRequest and its output the
// *model.Labels that were indexed.
type LabelIndexWorkflow struct {
	cor.BaseCommand
	detector      cloud.LabelDetector
	indexer       commands.LabelIndexer
	minConfidence float32
	chain         cor.Chain
}

// Execute runs the underlying chain.
func (w *LabelIndexWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

func (w *LabelIndexWorkflow) initializeChain() {
	out := cor.NewBaseChain(w.GetName())

	// Step 1: Ask the detection capability for the labels of the thumbnail.
	out.AddCommand(commands.NewLabelDetection("label-detection", w.detector))

	// Step 2: Flatten labels and parents into the canonical token set.
	out.AddCommand(commands.NewLabelNormalizer("label-normalizer", w.minConfidence))

	// Step 3: Add the video to the posting set of every token, in chunks.
	out.AddCommand(commands.NewLabelIndexWriter("label-index-writer", w.indexer))

	w.chain = out
}

// NewLabelIndexWorkflow is the constructor for the LabelIndexWorkflow.
//
// Inputs:
//   - detector: The detection capability.
//   - indexer: The label index service.
//   - minConfidence: Labels detected below this confidence are dropped.
//
// Returns:
//   - A pointer to a fully initialized LabelIndexWorkflow.
func NewLabelIndexWorkflow(detector cloud.LabelDetector, indexer commands.LabelIndexer, minConfidence float32) *LabelIndexWorkflow {
	w := &LabelIndexWorkflow{
		BaseCommand:   *cor.NewBaseCommand("label-index-workflow"),
		detector:      detector,
		indexer:       indexer,
		minConfidence: minConfidence,
	}
	w.initializeChain()
	return w
}

// Index runs the workflow for request and returns the indexed labels.
func (w *LabelIndexWorkflow) Index(ctx context.Context, request *model.IndexRequest) (*model.Labels, error) {
	chCtx := cor.NewContextWithInput(ctx, request)
	defer chCtx.Close()

	w.Execute(chCtx)
	if err := chCtx.Err(); err != nil {
		return nil, err
	}
	labels, ok := cor.Get[*model.Labels](chCtx, w.chain.GetOutputParam())
	if !ok {
		return nil, fmt.Errorf("%s produced no labels", w.GetName())
	}
	return labels, nil
}

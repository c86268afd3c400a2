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

package workflow

import (
	"github.com/jaycherian/gcp-go-label-search/internal/core/commands"
	"github.com/jaycherian/gcp-go-label-search/internal/core/cor"
)

// ThumbnailIndexWorkflow is the asynchronous write path. It is attached to the
// thumbnail bucket's Pub/Sub subscription: its input is the raw GCS
// notification and its output the *model.Labels indexed for the video.
type ThumbnailIndexWorkflow struct {
	cor.BaseCommand
	labelIndex *LabelIndexWorkflow
	chain      cor.Chain
}

// Execute runs the underlying chain.
func (w *ThumbnailIndexWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

func (w *ThumbnailIndexWorkflow) initializeChain() {
	out := cor.NewBaseChain(w.GetName())

	// Step 1: Parse the notification and derive the video id from the object name.
	out.AddCommand(commands.NewThumbnailTriggerToIndexRequest("thumbnail-trigger-to-index-request"))

	// Step 2: Detect, normalize and index.
	out.AddCommand(w.labelIndex)

	w.chain = out
}

// NewThumbnailIndexWorkflow wraps labelIndex with the notification parser.
func NewThumbnailIndexWorkflow(labelIndex *LabelIndexWorkflow) *ThumbnailIndexWorkflow {
	w := &ThumbnailIndexWorkflow{
		BaseCommand: *cor.NewBaseCommand("thumbnail-index-workflow"),
		labelIndex:  labelIndex,
	}
	w.initializeChain()
	return w
}

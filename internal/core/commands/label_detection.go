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
	"log/slog"

	"github.com/jaycherian/gcp-go-label-search/internal/cloud"
	"github.com/jaycherian/gcp-go-label-search/internal/core/cor"
	"github.com/jaycherian/gcp-go-label-search/internal/core/model"
)

// IndexRequestParam is the context key holding the *model.IndexRequest of the
// current run. LabelDetection sets it; LabelIndexWriter reads the video id from it.
const IndexRequestParam = "__INDEX_REQUEST__"

// LabelDetection runs the detection capability against the thumbnail named by
// the input *model.IndexRequest and outputs []model.DetectedLabel.
type LabelDetection struct {
	cor.BaseCommand
	detector cloud.LabelDetector
}

// NewLabelDetection is the constructor for the LabelDetection command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - detector: The detection capability, usually a cloud.GeminiLabelDetector.
//
// Outputs:
//   - *LabelDetection: A pointer to the newly instantiated command.
func NewLabelDetection(name string, detector cloud.LabelDetector) *LabelDetection {
	return &LabelDetection{BaseCommand: *cor.NewBaseCommand(name), detector: detector}
}

// Execute validates the request and calls the detector. Detector errors are
// recorded unchanged.
func (c *LabelDetection) Execute(context cor.Context) {
	request, ok := cor.Get[*model.IndexRequest](context, c.GetInputParam())
	if !ok || request == nil {
		c.Fail(context, model.NewValidationError("index request is required"))
		return
	}
	if err := request.Validate(); err != nil {
		c.Fail(context, err)
		return
	}
	context.Add(IndexRequestParam, request)

	object := cloud.GCSObject{Bucket: request.Bucket, Name: request.ObjectName()}
	if trigger, ok := cor.Get[*cloud.GCSObject](context, cloud.GetGCSObjectName()); ok && trigger.Name == object.Name {
		object.MIMEType = trigger.MIMEType
	}

	detected, err := c.detector.DetectLabels(context.GetContext(), object)
	if err != nil {
		c.Fail(context, err)
		return
	}
	slog.DebugContext(context.GetContext(), "labels detected", "video_id", request.VideoID, "object", object.URI(), "count", len(detected))
	if detected == nil {
		detected = []model.DetectedLabel{}
	}
	c.Succeed(context, detected)
}

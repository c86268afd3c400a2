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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface used by the label
// indexing workflows. This file defines the entry command of the
// asynchronous write path.
//
// Logic Flow:
// The thumbnail bucket publishes a notification to Pub/Sub for every new
// object. This command turns that notification into an IndexRequest.
//
//  1. The raw Pub/Sub message data is read from the context as a JSON string.
//  2. It is decoded into a `cloud.GCSPubSubNotification`.
//  3. The video id is derived from the object name: every '/' is removed and
//     the extension is stripped.
//  4. The derived id is validated. Objects whose name is not a valid id are
//     rejected here, before any detection or store call.
//  5. The simplified `cloud.GCSObject` is stored under its well-known key and
//     the `*model.IndexRequest` becomes the output.
package commands

import (
	"encoding/json"
	"fmt"

	"github.com/jaycherian/gcp-go-label-search/internal/cloud"
	"github.com/jaycherian/gcp-go-label-search/internal/core/cor"
	"github.com/jaycherian/gcp-go-label-search/internal/core/model"
)

// ThumbnailTriggerToIndexRequest parses a GCS Pub/Sub notification into an IndexRequest.
type ThumbnailTriggerToIndexRequest struct {
	cor.BaseCommand
}

// NewThumbnailTriggerToIndexRequest is the constructor for the ThumbnailTriggerToIndexRequest command.
//
// Inputs:
//   - name: A string name for this command instance.
//
// Outputs:
//   - *ThumbnailTriggerToIndexRequest: A pointer to the newly instantiated command.
func NewThumbnailTriggerToIndexRequest(name string) *ThumbnailTriggerToIndexRequest {
	return &ThumbnailTriggerToIndexRequest{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute decodes the notification held in the input parameter.
func (c *ThumbnailTriggerToIndexRequest) Execute(context cor.Context) {
	in, ok := cor.Get[string](context, c.GetInputParam())
	if !ok {
		c.Fail(context, model.NewValidationError("notification must be a JSON string"))
		return
	}

	var notification cloud.GCSPubSubNotification
	if err := json.Unmarshal([]byte(in), &notification); err != nil {
		c.Fail(context, fmt.Errorf("%w: failed to unmarshal GCS notification: %w", model.ErrValidation, err))
		return
	}

	request := &model.IndexRequest{
		VideoID:      cloud.VideoIDFromObjectName(notification.Name),
		Bucket:       notification.Bucket,
		ThumbnailKey: notification.Name,
	}
	if err := request.Validate(); err != nil {
		c.Fail(context, fmt.Errorf("object %s: %w", notification.Name, err))
		return
	}

	context.Add(cloud.GetGCSObjectName(), &cloud.GCSObject{
		Bucket:   notification.Bucket,
		Name:     notification.Name,
		MIMEType: notification.ContentType,
	})
	c.Succeed(context, request)
}

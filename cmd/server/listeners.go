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
	"context"
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-label-search/internal/cloud"
	"github.com/jaycherian/gcp-go-label-search/internal/core/workflow"
)

// SetupListeners attaches the thumbnail indexing workflow to the listener of
// the thumbnail bucket notifications and starts it. Messages keep being
// received until ctx is cancelled.
func SetupListeners(ctx context.Context, cloudClients *cloud.ServiceClients, labelIndex *workflow.LabelIndexWorkflow) error {
	listener, ok := cloudClients.PubSubListeners[cloud.ThumbnailTopicName]
	if !ok {
		return fmt.Errorf("topic subscription %q is not configured", cloud.ThumbnailTopicName)
	}
	listener.SetCommand(workflow.NewThumbnailIndexWorkflow(labelIndex))
	listener.Listen(ctx)
	slog.InfoContext(ctx, "listening for thumbnail notifications", "topic", cloud.ThumbnailTopicName)
	return nil
}

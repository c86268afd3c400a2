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

// This file implements a rate limiting decorator around the Generative AI
// models client. Vertex AI enforces per-minute quotas; requests wait for a
// limiter token instead of failing with quota errors.
//
// Structs:
//   - QuotaAwareGenerativeAIModel: Wraps genai.Models with a model name, a
//     generation config and a rate limiter.
//
// Functions:
//   - NewQuotaAwareModel: A constructor to create a new instance of the wrapped model.
//   - GenerateContent: Waits on the limiter and forwards the call.

package cloud

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// ContentGenerator is the subset of the GenAI API the label detector uses.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, content []*genai.Content) (*genai.GenerateContentResponse, error)
}

// QuotaAwareGenerativeAIModel is a decorator that adds rate limiting to a
// genai.Models handle bound to one model name and configuration.
type QuotaAwareGenerativeAIModel struct {
	GenerativeContentConfig *genai.GenerateContentConfig
	ModelName               string
	ModelHandle             *genai.Models
	RateLimit               *rate.Limiter
}

// NewQuotaAwareModel creates a QuotaAwareGenerativeAIModel allowing a burst of
// requestsPerSecond calls, replenished at requestsPerSecond per second.
//
// Inputs:
//   - config: The generation config applied to every request.
//   - name: The model name, e.g. "gemini-2.0-flash".
//   - models: The models handle of a genai.Client.
//   - requestsPerSecond: The maximum number of API calls allowed per second.
//     Values below one are treated as one.
//
// Outputs:
//   - *QuotaAwareGenerativeAIModel: A pointer to the newly created wrapper.
func NewQuotaAwareModel(config *genai.GenerateContentConfig, name string, models *genai.Models, requestsPerSecond int) *QuotaAwareGenerativeAIModel {
	requestsPerSecond = max(requestsPerSecond, 1)
	return &QuotaAwareGenerativeAIModel{
		GenerativeContentConfig: config,
		ModelName:               name,
		ModelHandle:             models,
		RateLimit:               rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}
}

// GenerateContent blocks until the limiter admits the request or ctx ends,
// then calls the model. Retries are left to GenerateMultiModalResponse.
func (q *QuotaAwareGenerativeAIModel) GenerateContent(ctx context.Context, content []*genai.Content) (*genai.GenerateContentResponse, error) {
	if err := q.RateLimit.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for model quota: %w", err)
	}
	return q.ModelHandle.GenerateContent(ctx, q.ModelName, content, q.GenerativeContentConfig)
}

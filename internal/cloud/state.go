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

// This file initializes and holds every client needed to talk to Google
// Cloud, acting as the dependency injection container of the server.
//
// Logic Flow:
//  1. NewCloudServiceClients is called at application startup with the loaded Config.
//  2. Storage, Pub/Sub and GenAI clients are always created. The BigQuery
//     client is only created for the bigquery label index backend, and the
//     IAM credentials client only when a URL signer account is configured.
//  3. One PubSubListener is created per configured subscription, without a
//     command; the server attaches the workflows later.
//  4. Every configured agent model is wrapped in a QuotaAwareGenerativeAIModel.

package cloud

import (
	"context"
	"errors"
	"log/slog"

	"cloud.google.com/go/bigquery"
	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-label-search/internal/labelstore"
)

// ServiceClients is a central container for the Google Cloud clients.
type ServiceClients struct {
	StorageClient   *storage.Client                         // Client for Google Cloud Storage (GCS).
	PubsubClient    *pubsub.Client                          // Client for Google Cloud Pub/Sub.
	GenAIClient     *genai.Client                           // Client for Vertex AI.
	BigQueryClient  *bigquery.Client                        // Nil unless the label index lives in BigQuery.
	IAMClient       *credentials.IamCredentialsClient       // Nil unless signed URLs are configured.
	PubSubListeners map[string]*PubSubListener              // Keyed by the logical name from the config.
	AgentModels     map[string]*QuotaAwareGenerativeAIModel // Keyed by the logical name from the config.
}

// Close releases every client that was created.
func (c *ServiceClients) Close() error {
	var errs []error
	if c.StorageClient != nil {
		errs = append(errs, c.StorageClient.Close())
	}
	if c.PubsubClient != nil {
		errs = append(errs, c.PubsubClient.Close())
	}
	if c.BigQueryClient != nil {
		errs = append(errs, c.BigQueryClient.Close())
	}
	if c.IAMClient != nil {
		errs = append(errs, c.IAMClient.Close())
	}
	return errors.Join(errs...)
}

// NewGenerateContentConfig turns a model configuration into a genai generation config.
func NewGenerateContentConfig(values VertexAiLLMModel) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](values.Temperature),
		TopP:             genai.Ptr[float32](values.TopP),
		TopK:             genai.Ptr[float32](values.TopK),
		MaxOutputTokens:  values.MaxTokens,
		SafetySettings:   DefaultSafetySettings,
		ResponseMIMEType: values.OutputFormat,
	}
	if len(values.SystemInstructions) > 0 {
		config.SystemInstruction = genai.NewContentFromText(values.SystemInstructions, genai.RoleUser)
	}
	return config
}

// NewCloudServiceClients creates the Google Cloud clients described by config.
//
// Inputs:
//   - ctx: The root context.Context for the application.
//   - config: A pointer to the loaded application configuration.
//
// Outputs:
//   - *ServiceClients: The initialized clients. On error every client created
//     so far has been closed.
//   - error: An error if any of the clients fail to initialize.
func NewCloudServiceClients(ctx context.Context, config *Config) (cloud *ServiceClients, err error) {
	cloud = &ServiceClients{
		PubSubListeners: make(map[string]*PubSubListener),
		AgentModels:     make(map[string]*QuotaAwareGenerativeAIModel),
	}
	defer func() {
		if err != nil {
			_ = cloud.Close()
			cloud = nil
		}
	}()

	if cloud.StorageClient, err = storage.NewClient(ctx); err != nil {
		return cloud, err
	}

	if cloud.PubsubClient, err = pubsub.NewClient(ctx, config.Application.GoogleProjectId); err != nil {
		return cloud, err
	}

	slog.InfoContext(ctx, "creating genai client", "project", config.Application.GoogleProjectId, "location", config.Application.GoogleLocation)
	if cloud.GenAIClient, err = genai.NewClient(ctx, &genai.ClientConfig{
		Project:  config.Application.GoogleProjectId,
		Location: config.Application.GoogleLocation,
		Backend:  genai.BackendVertexAI,
	}); err != nil {
		return cloud, err
	}

	if config.LabelIndex.Backend == labelstore.BackendBigQuery {
		if cloud.BigQueryClient, err = bigquery.NewClient(ctx, config.Application.GoogleProjectId); err != nil {
			return cloud, err
		}
	}

	if len(config.Application.SignerServiceAccountEmail) > 0 {
		if cloud.IAMClient, err = credentials.NewIamCredentialsClient(ctx); err != nil {
			return cloud, err
		}
	}

	for subKey, values := range config.TopicSubscriptions {
		listener, err := NewPubSubListener(cloud.PubsubClient, values, nil)
		if err != nil {
			return cloud, err
		}
		cloud.PubSubListeners[subKey] = listener
	}

	for amKey, values := range config.AgentModels {
		cloud.AgentModels[amKey] = NewQuotaAwareModel(NewGenerateContentConfig(values), values.Model, cloud.GenAIClient.Models, values.RateLimit)
	}

	return cloud, nil
}

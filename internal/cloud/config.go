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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files, and the clients used to reach Google Cloud.
//
// This file centralizes all configuration-related structs.
//
// Structs:
//   - Application: Project, location, listen port and URL signer.
//   - Storage: Public media locations and the upload limit.
//   - Telemetry: Log level and exporter toggle.
//   - PromptTemplates: Holds the text templates for prompts sent to GenAI models.
//   - VertexAiLLMModel: Configuration for a Vertex AI Large Language Model (LLM).
//   - TopicSubscription: Configuration for a single Pub/Sub topic subscription.
//   - Config: The top-level struct that aggregates all other configuration structs.
package cloud

import (
	"github.com/jaycherian/gcp-go-label-search/internal/core/model"
	"github.com/jaycherian/gcp-go-label-search/internal/labelstore"
	"google.golang.org/genai"
)

// Logical names of the configured models and subscriptions.
const (
	LabelModelName      = "label-flash"
	ThumbnailTopicName  = "ThumbnailTopic"
	DefaultPort         = "8080"
	DefaultMaxUploadMiB = 512
)

// DefaultSafetySettings defines the default content safety thresholds for GenAI models.
// Thumbnails are user uploads, so every category is passed through and the
// labels are filtered downstream instead.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

// Application holds general application settings.
type Application struct {
	Name                      string `toml:"name"`                         // The name of the application.
	GoogleProjectId           string `toml:"google_project_id"`            // The Google Cloud project ID.
	GoogleLocation            string `toml:"location"`                     // The Google Cloud location.
	Port                      string `toml:"port"`                         // The HTTP listen port.
	SignerServiceAccountEmail string `toml:"signer_service_account_email"` // The service account email used for signing GCS URLs.
}

// Storage represents the configuration of the media buckets.
type Storage struct {
	model.MediaLocations
	MaxUploadMiB int64 `toml:"max_upload_mib"` // The largest accepted upload body.
}

// Telemetry controls logging and the Cloud exporters.
type Telemetry struct {
	LogLevel      string `toml:"log_level"`      // debug, info, warn or error.
	ExportEnabled bool   `toml:"export_enabled"` // Whether traces and metrics are shipped to Google Cloud.
}

// PromptTemplates holds the templates for different types of prompts.
type PromptTemplates struct {
	LabelDetection string `toml:"label_detection"` // The template for detecting labels in a thumbnail.
}

// VertexAiLLMModel represents the configuration for a Vertex AI large language model (LLM).
type VertexAiLLMModel struct {
	Model              string  `toml:"model"`               // The name of the Vertex AI LLM.
	SystemInstructions string  `toml:"system_instructions"` // The system instructions for the LLM.
	Temperature        float32 `toml:"temperature"`         // The temperature parameter for the LLM.
	TopP               float32 `toml:"top_p"`               // The top_p parameter for the LLM.
	TopK               float32 `toml:"top_k"`               // The top_k parameter for the LLM.
	MaxTokens          int32   `toml:"max_tokens"`          // The maximum number of tokens for the LLM output.
	OutputFormat       string  `toml:"output_format"`       // The desired output format for the LLM.
	RateLimit          int     `toml:"rate_limit"`          // The rate limit for the LLM in requests per second.
}

// TopicSubscription represents the configuration for a Pub/Sub topic subscription.
type TopicSubscription struct {
	Name             string `toml:"name"`               // The name of the Pub/Sub subscription.
	DeadLetterTopic  string `toml:"dead_letter_topic"`  // The name of the dead-letter topic for the subscription.
	TimeoutInSeconds int    `toml:"timeout_in_seconds"` // The timeout for the subscription in seconds.
}

// Config represents the overall configuration for the application, loaded from TOML files.
type Config struct {
	Application        Application                  `toml:"application"`
	Storage            Storage                      `toml:"storage"`
	LabelIndex         labelstore.Config            `toml:"label_index"`
	Telemetry          Telemetry                    `toml:"telemetry"`
	PromptTemplates    PromptTemplates              `toml:"prompt_templates"`
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"` // Keyed by a logical name (e.g., "ThumbnailTopic").
	AgentModels        map[string]VertexAiLLMModel  `toml:"agent_models"`        // Keyed by a logical name (e.g., "label-flash").
}

// NewConfig creates a Config with its maps initialized and every setting that
// has a sensible default filled in, so a partial TOML file still yields a
// runnable configuration.
//
// Outputs:
//   - *Config: A pointer to a new Config struct.
func NewConfig() *Config {
	return &Config{
		Application: Application{
			Name: "label-search",
			Port: DefaultPort,
		},
		Storage: Storage{
			MediaLocations: model.DefaultMediaLocations(),
			MaxUploadMiB:   DefaultMaxUploadMiB,
		},
		LabelIndex: labelstore.Config{
			Backend:     labelstore.BackendBadger,
			TableName:   "video_labels",
			DatasetName: "label_search",
		},
		Telemetry: Telemetry{
			LogLevel: "info",
		},
		PromptTemplates: PromptTemplates{
			LabelDetection: DefaultLabelDetectionPrompt,
		},
		TopicSubscriptions: make(map[string]TopicSubscription),
		AgentModels:        make(map[string]VertexAiLLMModel),
	}
}

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

// This file contains general-purpose helpers of the cloud package: the
// hierarchical configuration loader and the GenAI response helper.
//
// Functions:
//   - LoadConfig: Reads a base configuration file and then overwrites values
//     with a second, environment-specific file (e.g., .env.local.toml,
//     .env.test.toml). The environment is determined by an environment variable.
//   - GenerateMultiModalResponse: Calls the GenAI model with retries and
//     records token usage metrics.
//   - NewTextPart, NewFileDataPart: Factories for genai.Part values.

package cloud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/genai"
)

// Cloud Constants define key strings and values used throughout the package,
// primarily for configuration loading and API interaction policies.
const (
	ConfigFileBaseName  = ".env"              // The base name for configuration files (e.g., ".env.toml").
	ConfigFileExtension = ".toml"             // The file extension for configuration files.
	ConfigSeparator     = "."                 // The separator used in config file names (e.g., ".env.local.toml").
	EnvConfigFilePrefix = "GCP_CONFIG_PREFIX" // The environment variable for specifying the config directory.
	EnvConfigRuntime    = "GCP_RUNTIME"       // The environment variable for specifying the runtime context (e.g., "local", "test", "prod").
	MaxRetries          = 3                   // The maximum number of times to retry a failed API call.
)

func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// ConfigFileNames returns the base and runtime-specific configuration paths
// derived from GCP_CONFIG_PREFIX and GCP_RUNTIME. The runtime defaults to "test".
func ConfigFileNames() (base string, runtime string) {
	prefix := os.Getenv(EnvConfigFilePrefix)
	if len(prefix) > 0 && !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix = prefix + string(os.PathSeparator)
	}

	runtimeEnvironment := os.Getenv(EnvConfigRuntime)
	if runtimeEnvironment == "" {
		runtimeEnvironment = "test"
	}

	base = prefix + ConfigFileBaseName + ConfigFileExtension
	runtime = prefix + ConfigFileBaseName + ConfigSeparator + runtimeEnvironment + ConfigFileExtension
	return base, runtime
}

// LoadConfig provides a hierarchical configuration loading mechanism. It first loads a
// base configuration file and then merges or overwrites its values with an environment-specific
// configuration file. Missing files are skipped.
//
// Inputs:
//   - baseConfig: A pointer to the target configuration struct.
//
// Outputs:
//   - error: The first decode failure, naming the offending file.
func LoadConfig(baseConfig interface{}) error {
	baseConfigFileName, envConfigFileName := ConfigFileNames()
	slog.Debug("loading configuration", "base", baseConfigFileName, "runtime", envConfigFileName)

	for _, fileName := range []string{baseConfigFileName, envConfigFileName} {
		if !fileExists(fileName) {
			continue
		}
		if _, err := toml.DecodeFile(fileName, baseConfig); err != nil {
			return fmt.Errorf("failed to decode configuration file %s: %w", fileName, err)
		}
	}
	return nil
}

// GenerateMultiModalResponse is a helper function for executing multi-modal requests
// against a Generative AI model. It includes logic for retries and telemetry.
//
// Inputs:
//   - ctx: The context for the request, which controls cancellation and tracing.
//   - inputTokenCounter: An OpenTelemetry counter for prompt tokens used.
//   - outputTokenCounter: An OpenTelemetry counter for response tokens generated.
//   - retryCounter: An OpenTelemetry counter for tracking the number of retries.
//   - tryCount: The current attempt number for this request (starts at 0).
//   - model: The content generator, usually a rate-limited QuotaAwareGenerativeAIModel.
//   - content: The prompt contents.
//
// Outputs:
//   - string: The concatenated text content from the model's response, with
//     any markdown code fence removed.
//   - error: An error if the request fails after all retries.
func GenerateMultiModalResponse(
	ctx context.Context,
	inputTokenCounter metric.Int64Counter,
	outputTokenCounter metric.Int64Counter,
	retryCounter metric.Int64Counter,
	tryCount int,
	model ContentGenerator,
	content []*genai.Content) (value string, err error) {
	resp, err := model.GenerateContent(ctx, content)
	if err != nil {
		if tryCount < MaxRetries && ctx.Err() == nil {
			retryCounter.Add(ctx, 1)
			return GenerateMultiModalResponse(ctx, inputTokenCounter, outputTokenCounter, retryCounter, tryCount+1, model, content)
		}
		return "", err
	}
	if resp.UsageMetadata != nil {
		inputTokenCounter.Add(ctx, int64(resp.UsageMetadata.PromptTokenCount))
		outputTokenCounter.Add(ctx, int64(resp.UsageMetadata.CandidatesTokenCount))
	}

	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				sb.WriteString(part.Text)
			}
		}
	}
	return StripCodeFence(sb.String()), nil
}

// StripCodeFence removes a surrounding ```json ... ``` fence.
func StripCodeFence(in string) string {
	value := strings.TrimSpace(in)
	value = strings.TrimPrefix(value, "```json")
	value = strings.TrimPrefix(value, "```")
	value = strings.TrimSuffix(value, "```")
	return strings.TrimSpace(value)
}

// NewTextPart creates a text part.
func NewTextPart(in string) *genai.Part {
	return genai.NewPartFromText(in)
}

// NewFileDataPart creates a part referencing a file by URI (e.g., a gs:// path).
func NewFileDataPart(uri string, mimeType string) *genai.Part {
	return genai.NewPartFromURI(uri, mimeType)
}

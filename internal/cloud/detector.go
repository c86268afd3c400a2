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

// This file defines the label detection capability and its Gemini backed
// implementation.
//
// Logic Flow:
//  1. The prompt template is rendered with a few-shot JSON example of the
//     expected output.
//  2. The thumbnail is referenced by its gs:// URI, so the image bytes never
//     pass through this process.
//  3. The model answers with a JSON array of detected labels which is decoded
//     into []model.DetectedLabel.

package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"path"
	"text/template"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-label-search/internal/core/model"
)

// DefaultLabelDetectionPrompt is used when no prompt_templates.label_detection is configured.
const DefaultLabelDetectionPrompt = `Identify the objects, scenes and concepts visible in the attached video thumbnail.
Return a JSON array only. Each element has a "name", a "confidence" between 0 and 100,
and a "parents" array of broader categories, each with a "name".
Example output:
{{ .EXAMPLE_JSON }}`

// LabelDetector returns the labels found in an image stored in Cloud Storage.
type LabelDetector interface {
	DetectLabels(ctx context.Context, object GCSObject) ([]model.DetectedLabel, error)
}

// GeminiLabelDetector detects labels by prompting a Gemini model.
type GeminiLabelDetector struct {
	Model    ContentGenerator
	Template *template.Template

	inputTokenCounter  metric.Int64Counter
	outputTokenCounter metric.Int64Counter
	retryCounter       metric.Int64Counter
}

// NewGeminiLabelDetector parses promptTemplate and creates the token counters.
//
// Inputs:
//   - generator: Usually a QuotaAwareGenerativeAIModel.
//   - promptTemplate: A text/template with an EXAMPLE_JSON parameter. Empty
//     selects DefaultLabelDetectionPrompt.
//
// Outputs:
//   - *GeminiLabelDetector: The detector.
//   - error: If the template does not parse.
func NewGeminiLabelDetector(generator ContentGenerator, promptTemplate string) (*GeminiLabelDetector, error) {
	if promptTemplate == "" {
		promptTemplate = DefaultLabelDetectionPrompt
	}
	tmpl, err := template.New("label_detection").Parse(promptTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing label detection prompt: %w", err)
	}

	meter := otel.Meter("github.com/jaycherian/gcp-go-label-search/cloud")
	out := &GeminiLabelDetector{Model: generator, Template: tmpl}
	out.inputTokenCounter, _ = meter.Int64Counter("label_detection.gemini.token.input")
	out.outputTokenCounter, _ = meter.Int64Counter("label_detection.gemini.token.output")
	out.retryCounter, _ = meter.Int64Counter("label_detection.gemini.token.retry")
	return out, nil
}

// Prompt renders the prompt text.
func (d *GeminiLabelDetector) Prompt() (string, error) {
	var buffer bytes.Buffer
	params := map[string]interface{}{
		"EXAMPLE_JSON": model.GetExampleDetectedLabelsJSON(),
	}
	if err := d.Template.Execute(&buffer, params); err != nil {
		return "", fmt.Errorf("executing label detection prompt: %w", err)
	}
	return buffer.String(), nil
}

// DetectLabels asks the model for the labels of object. Every failure wraps
// model.ErrDetection.
func (d *GeminiLabelDetector) DetectLabels(ctx context.Context, object GCSObject) ([]model.DetectedLabel, error) {
	prompt, err := d.Prompt()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrDetection, err)
	}

	mimeType := object.MIMEType
	if mimeType == "" {
		mimeType = ImageMIMEType(object.Name)
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			NewTextPart(prompt),
			NewFileDataPart(object.URI(), mimeType),
		}, genai.RoleUser),
	}

	out, err := GenerateMultiModalResponse(ctx, d.inputTokenCounter, d.outputTokenCounter, d.retryCounter, 0, d.Model, contents)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", model.ErrDetection, object.URI(), err)
	}
	return ParseDetectedLabels(out)
}

// ParseDetectedLabels decodes a model response into detected labels.
func ParseDetectedLabels(response string) ([]model.DetectedLabel, error) {
	var labels []model.DetectedLabel
	if err := json.Unmarshal([]byte(StripCodeFence(response)), &labels); err != nil {
		return nil, fmt.Errorf("%w: decoding model response: %w", model.ErrDetection, err)
	}
	return labels, nil
}

// ImageMIMEType guesses the MIME type of an image object from its extension,
// defaulting to image/png.
func ImageMIMEType(name string) string {
	if t := mime.TypeByExtension(path.Ext(name)); t != "" {
		return t
	}
	return "image/png"
}

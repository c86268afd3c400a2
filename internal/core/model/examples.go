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

package model

import "encoding/json"

// GetExampleDetectedLabels returns a hardcoded detection result. It is embedded
// in the label detection prompt as a "few-shot" example so the generative model
// answers with the JSON structure DetectedLabel expects.
//
// Outputs:
//   - []DetectedLabel: two labels, the first one with a parent.
func GetExampleDetectedLabels() []DetectedLabel {
	confidence := func(v float32) *float32 { return &v }
	return []DetectedLabel{
		{
			Name:       NewLabelName("Golden Retriever"),
			Confidence: confidence(97.5),
			Parents: []ParentLabel{
				{Name: NewLabelName("Dog")},
				{Name: NewLabelName("Animal")},
			},
		},
		{
			Name:       NewLabelName("Grass"),
			Confidence: confidence(81.2),
			Parents:    []ParentLabel{{Name: NewLabelName("Plant")}},
		},
	}
}

// GetExampleDetectedLabelsJSON renders GetExampleDetectedLabels as indented JSON
// for use inside prompt templates.
func GetExampleDetectedLabelsJSON() string {
	out, err := json.MarshalIndent(GetExampleDetectedLabels(), "", "  ")
	if err != nil {
		return "[]"
	}
	return string(out)
}

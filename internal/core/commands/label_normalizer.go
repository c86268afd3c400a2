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
	"fmt"

	"github.com/jaycherian/gcp-go-label-search/internal/core/cor"
	"github.com/jaycherian/gcp-go-label-search/internal/core/model"
)

// LabelNormalizer turns the []model.DetectedLabel input into the canonical
// *model.Labels token set.
type LabelNormalizer struct {
	cor.BaseCommand
	minConfidence float32
}

// NewLabelNormalizer creates the command. Labels whose confidence is below
// minConfidence contribute no tokens; zero keeps every label.
func NewLabelNormalizer(name string, minConfidence float32) *LabelNormalizer {
	return &LabelNormalizer{BaseCommand: *cor.NewBaseCommand(name), minConfidence: minConfidence}
}

func (c *LabelNormalizer) Execute(context cor.Context) {
	detected, ok := cor.Get[[]model.DetectedLabel](context, c.GetInputParam())
	if !ok {
		c.Fail(context, fmt.Errorf("%w: expected detected labels, got %T", model.ErrValidation, context.Get(c.GetInputParam())))
		return
	}
	c.Succeed(context, model.NewLabels(detected, model.WithMinConfidence(c.minConfidence)))
}

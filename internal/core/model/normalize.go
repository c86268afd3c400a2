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

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
)

type normalizeOptions struct {
	minConfidence float32
}

// NormalizeOption customizes NormalizeLabels.
type NormalizeOption func(*normalizeOptions)

// WithMinConfidence drops every detected label whose confidence is present and
// lower than minConfidence. The parents of a dropped label are dropped with it.
// Labels without a confidence always pass.
func WithMinConfidence(minConfidence float32) NormalizeOption {
	return func(o *normalizeOptions) {
		o.minConfidence = minConfidence
	}
}

// NormalizeLabels converts a raw detection result into the canonical token set.
//
// Every label name and every parent name is split on whitespace and lowercased.
// The tokens of all labels are collected into one flat list which is then
// sorted and deduplicated. The function never fails; an empty input yields an
// empty (non-nil) list.
//
// Inputs:
//   - detected: the labels returned by the detection capability.
//   - opts: optional filters such as WithMinConfidence.
//
// Outputs:
//   - []string: sorted, duplicate free, lowercase tokens.
func NormalizeLabels(detected []DetectedLabel, opts ...NormalizeOption) []string {
	o := normalizeOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	tokens := make([]string, 0, len(detected)*2)
	for _, label := range detected {
		if label.Confidence != nil && *label.Confidence < o.minConfidence {
			continue
		}
		if label.Name != nil {
			tokens = append(tokens, Tokenize(*label.Name)...)
		}
		for _, parent := range label.Parents {
			if parent.Name != nil {
				tokens = append(tokens, Tokenize(*parent.Name)...)
			}
		}
	}

	slices.Sort(tokens)
	return slices.Compact(tokens)
}

// NewLabels wraps NormalizeLabels in the Labels response shape.
func NewLabels(detected []DetectedLabel, opts ...NormalizeOption) *Labels {
	return &Labels{Labels: NormalizeLabels(detected, opts...)}
}

// Tokenize splits a label name on whitespace and lowercases every fragment.
// Empty fragments never appear in the output.
func Tokenize(name string) []string {
	fields := strings.Fields(name)
	for i, f := range fields {
		fields[i] = strings.ToLower(f)
	}
	return fields
}

// NormalizeQuery applies the search-side normalization: tokens are trimmed and
// lowercased, blanks are dropped and duplicates removed. It agrees with the
// write side on the lowercase convention so "Cat" and "cat" hit the same row.
func NormalizeQuery(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = strings.ToLower(strings.TrimSpace(t))
		if len(t) > 0 {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// IsValidToken reports whether t is a canonical label token: non-empty,
// lowercase and free of whitespace. Every token produced by Tokenize is valid.
func IsValidToken(t string) bool {
	return len(t) > 0 && t == strings.ToLower(t) && !strings.ContainsFunc(t, unicode.IsSpace)
}

// ValidateTokens rejects an empty token set and any token failing IsValidToken.
func ValidateTokens(tokens []string) error {
	if len(tokens) == 0 {
		return ErrNoTokens
	}
	for i, t := range tokens {
		if !IsValidToken(t) {
			return fmt.Errorf("%w: token %d (%q) must be non-empty, lowercase and without whitespace", ErrInvalidToken, i, t)
		}
	}
	return nil
}

// SplitQuery turns a free-text query into tokens, splitting on whitespace.
func SplitQuery(q string) []string {
	return NormalizeQuery(strings.Fields(q))
}

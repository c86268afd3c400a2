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

// Package model defines the data shapes shared by the indexing (write) and
// search (read) paths, together with the pure functions that operate on them.
//
// Logic Flow:
//  1. A detection capability produces a list of `DetectedLabel` values for a
//     thumbnail image.
//  2. `NormalizeLabels` flattens the labels and their parents into a canonical,
//     sorted and deduplicated token set wrapped as `Labels`.
//  3. The index writer stores the video identifier under every token.
//  4. At query time the search path builds a `SearchResultRecord` per matched
//     video, deriving the resource URLs from `MediaLocations`.
package model

// ParentLabel is an ancestor of a detected label (e.g. "Animal" for "Cat").
type ParentLabel struct {
	Name *string `json:"name,omitempty"`
}

// DetectedLabel is one entry of a label detection result. Name and Confidence
// are optional because detection providers may omit either of them.
type DetectedLabel struct {
	Name       *string       `json:"name,omitempty"`
	Confidence *float32      `json:"confidence,omitempty"` // 0-100, provider scale.
	Parents    []ParentLabel `json:"parents,omitempty"`
}

// Labels is the canonical token set produced for a single thumbnail. It is also
// the response body of the indexing entry point.
type Labels struct {
	Labels []string `json:"labels"`
}

// Len returns the number of tokens.
func (l *Labels) Len() int {
	return len(l.Labels)
}

// IndexRequest identifies the thumbnail that should be labelled and the video
// the resulting tokens are indexed under.
type IndexRequest struct {
	VideoID      string `json:"video_id"`
	Bucket       string `json:"bucket"`
	ThumbnailKey string `json:"thumbnail_key,omitempty"`
}

// ObjectName returns the thumbnail object key, defaulting to the conventional
// `<video id>.png` name when no explicit key was given.
func (r *IndexRequest) ObjectName() string {
	if len(r.ThumbnailKey) > 0 {
		return r.ThumbnailKey
	}
	return ThumbnailObjectName(r.VideoID)
}

// Validate rejects requests that must not reach the store or the detector.
func (r *IndexRequest) Validate() error {
	if err := ValidateVideoID(r.VideoID); err != nil {
		return err
	}
	if len(r.Bucket) == 0 {
		return NewValidationError("bucket is required")
	}
	return nil
}

// NewLabelName is a small helper for building detection results in code.
func NewLabelName(name string) *string {
	return &name
}

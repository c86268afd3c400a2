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

import "strings"

const (
	VideoExtension     = ".mp4"
	PreviewExtension   = ".gif"
	ThumbnailExtension = ".png"
)

// MediaLocations describes where the media objects of a video are published.
// The derived URLs have the form `<BaseURL>/<bucket>/<video id><extension>`.
type MediaLocations struct {
	BaseURL         string `toml:"public_base_url"`
	VideoBucket     string `toml:"video_bucket"`
	PreviewBucket   string `toml:"preview_bucket"`
	ThumbnailBucket string `toml:"thumbnail_bucket"`
}

// DefaultMediaLocations returns the locations used when nothing is configured.
func DefaultMediaLocations() MediaLocations {
	return MediaLocations{
		BaseURL:         "https://s3.amazonaws.com",
		VideoBucket:     "minitube.videos",
		PreviewBucket:   "minitube.previews",
		ThumbnailBucket: "minitube.thumbnails",
	}
}

// WithDefaults fills every empty field from DefaultMediaLocations.
func (l MediaLocations) WithDefaults() MediaLocations {
	d := DefaultMediaLocations()
	if len(l.BaseURL) == 0 {
		l.BaseURL = d.BaseURL
	}
	if len(l.VideoBucket) == 0 {
		l.VideoBucket = d.VideoBucket
	}
	if len(l.PreviewBucket) == 0 {
		l.PreviewBucket = d.PreviewBucket
	}
	if len(l.ThumbnailBucket) == 0 {
		l.ThumbnailBucket = d.ThumbnailBucket
	}
	return l
}

func (l MediaLocations) objectURL(bucket string, objectName string) string {
	return strings.TrimSuffix(l.BaseURL, "/") + "/" + bucket + "/" + objectName
}

// VideoURL returns the public URL of the video file.
func (l MediaLocations) VideoURL(videoID string) string {
	return l.objectURL(l.VideoBucket, VideoObjectName(videoID))
}

// PreviewURL returns the public URL of the animated preview.
func (l MediaLocations) PreviewURL(videoID string) string {
	return l.objectURL(l.PreviewBucket, videoID+PreviewExtension)
}

// ThumbnailURL returns the public URL of the still thumbnail.
func (l MediaLocations) ThumbnailURL(videoID string) string {
	return l.objectURL(l.ThumbnailBucket, ThumbnailObjectName(videoID))
}

// VideoObjectName is the object key a video is stored under.
func VideoObjectName(videoID string) string {
	return videoID + VideoExtension
}

// ThumbnailObjectName is the object key a thumbnail is stored under.
func ThumbnailObjectName(videoID string) string {
	return videoID + ThumbnailExtension
}

// SearchResultRecord is derived per query and never persisted. Labels holds
// the tokens the video matched, the URLs are computed from the identifier.
type SearchResultRecord struct {
	VideoID      string   `json:"video_id"`
	Labels       []string `json:"labels"`
	VideoURL     string   `json:"video_url"`
	PreviewURL   string   `json:"preview_url"`
	ThumbnailURL string   `json:"thumbnail_url"`
}

// NewSearchResultRecord builds the record for videoID. A nil label list is
// replaced by an empty one so it serializes as `[]`.
func NewSearchResultRecord(videoID string, labels []string, locations MediaLocations) *SearchResultRecord {
	if labels == nil {
		labels = []string{}
	}
	return &SearchResultRecord{
		VideoID:      videoID,
		Labels:       labels,
		VideoURL:     locations.VideoURL(videoID),
		PreviewURL:   locations.PreviewURL(videoID),
		ThumbnailURL: locations.ThumbnailURL(videoID),
	}
}

// SearchResult is the response body of the search entry point.
type SearchResult struct {
	Videos []*SearchResultRecord `json:"videos"`
}

// NewSearchResult wraps records, never producing a nil list.
func NewSearchResult(records []*SearchResultRecord) *SearchResult {
	if records == nil {
		records = make([]*SearchResultRecord, 0)
	}
	return &SearchResult{Videos: records}
}

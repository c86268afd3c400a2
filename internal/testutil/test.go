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

// Package testutil provides helpers and fixtures shared by the test suites:
// the test configuration, sample GCS notifications and a scripted label
// detector.
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/jaycherian/gcp-go-label-search/internal/cloud"
	"github.com/jaycherian/gcp-go-label-search/internal/core/model"
)

// Valid video ids used across tests.
const (
	VideoOne = "aaaaaaaaaaaaaaaaaaaaa1"
	VideoTwo = "bbbbbbbbbbbbbbbbbbbbb2"
)

// ThumbnailBucket is the bucket named by the sample notifications.
const ThumbnailBucket = "minitube.thumbnails"

var (
	configOnce sync.Once
	config     *cloud.Config
	configErr  error
)

// HandleErr fails the test when err is not nil.
func HandleErr(err error, t *testing.T) {
	t.Helper()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// ConfigDir returns the absolute path of the repository's configs directory.
func ConfigDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "configs")
}

// SetupOS points the configuration loader at configs/.env.toml with the
// "test" runtime overrides.
func SetupOS(t *testing.T) {
	t.Setenv(cloud.EnvConfigFilePrefix, ConfigDir())
	t.Setenv(cloud.EnvConfigRuntime, "test")
}

// GetConfig loads the test configuration once per test binary.
func GetConfig(t *testing.T) *cloud.Config {
	t.Helper()
	configOnce.Do(func() {
		SetupOS(t)
		c := cloud.NewConfig()
		configErr = cloud.LoadConfig(c)
		config = c
	})
	if configErr != nil {
		t.Fatalf("failed to load test configuration: %v", configErr)
	}
	return config
}

// GetTestThumbnailMessageText returns a GCS notification for objectName
// finalized in the thumbnail bucket.
func GetTestThumbnailMessageText(objectName string) string {
	return fmt.Sprintf(`{
  "kind": "storage#object",
  "id": "%[2]s/%[1]s/1728615848664286",
  "selfLink": "https://www.googleapis.com/storage/v1/b/%[2]s/o/%[1]s",
  "name": "%[1]s",
  "bucket": "%[2]s",
  "generation": "1728615848664286",
  "metageneration": "1",
  "contentType": "image/png",
  "timeCreated": "2024-10-11T03:04:08.672Z",
  "updated": "2024-10-11T03:04:08.672Z",
  "storageClass": "STANDARD",
  "timeStorageClassUpdated": "2024-10-11T03:04:08.672Z",
  "size": "48213",
  "md5Hash": "67c1rAU+1RYZzK5zp8iBkA==",
  "mediaLink": "https://storage.googleapis.com/download/storage/v1/b/%[2]s/o/%[1]s?generation=1728615848664286&alt=media",
  "metadata": { "touch": "18" },
  "crc32c": "IYeSTw==",
  "etag": "CN658+yrhYkDEAE="
}`, objectName, ThumbnailBucket)
}

// FakeDetector is a cloud.LabelDetector answering from a map of object names.
// Objects without an entry yield Err, or no labels when Err is nil.
type FakeDetector struct {
	mu      sync.Mutex
	Results map[string][]model.DetectedLabel
	Err     error
	Calls   []cloud.GCSObject
}

// NewFakeDetector creates an empty FakeDetector.
func NewFakeDetector() *FakeDetector {
	return &FakeDetector{Results: make(map[string][]model.DetectedLabel)}
}

// With registers the labels returned for objectName.
func (f *FakeDetector) With(objectName string, labels ...model.DetectedLabel) *FakeDetector {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Results[objectName] = labels
	return f
}

func (f *FakeDetector) DetectLabels(ctx context.Context, object cloud.GCSObject) ([]model.DetectedLabel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, object)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if labels, ok := f.Results[object.Name]; ok {
		return labels, nil
	}
	return nil, f.Err
}

// CallCount returns the number of DetectLabels calls so far.
func (f *FakeDetector) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

// Label builds a DetectedLabel with optional parents.
func Label(name string, parents ...string) model.DetectedLabel {
	out := model.DetectedLabel{Name: model.NewLabelName(name)}
	for _, p := range parents {
		out.Parents = append(out.Parents, model.ParentLabel{Name: model.NewLabelName(p)})
	}
	return out
}

// LabelWithConfidence builds a DetectedLabel with a confidence.
func LabelWithConfidence(name string, confidence float32, parents ...string) model.DetectedLabel {
	out := Label(name, parents...)
	out.Confidence = &confidence
	return out
}

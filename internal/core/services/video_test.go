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

package services_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/jaycherian/gcp-go-label-search/internal/core/model"
	"github.com/jaycherian/gcp-go-label-search/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mp4Header is the start of an ISO base media file ("ftypisom").
var mp4Header = []byte{
	0x00, 0x00, 0x00, 0x20, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm',
	0x00, 0x00, 0x02, 0x00, 'i', 's', 'o', 'm', 'i', 's', 'o', '2',
	'a', 'v', 'c', '1', 'm', 'p', '4', '1',
}

// pngHeader is the PNG signature followed by an IHDR chunk header.
var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d, 'I', 'H', 'D', 'R'}

func newVideoService() (*services.VideoService, *memoryObjects) {
	objects := &memoryObjects{}
	return &services.VideoService{Objects: objects, Locations: model.DefaultMediaLocations()}, objects
}

func TestUploadVideo(t *testing.T) {
	svc, objects := newVideoService()
	content := append(append([]byte{}, mp4Header...), bytes.Repeat([]byte{0x42}, 1024)...)

	videoID, err := svc.UploadVideo(context.Background(), bytes.NewReader(content))
	require.NoError(t, err)
	assert.True(t, model.IsValidVideoID(videoID))

	require.Len(t, objects.objects, 1)
	obj := objects.objects[0]
	assert.Equal(t, "minitube.videos", obj.bucket)
	assert.Equal(t, videoID+".mp4", obj.name)
	assert.Equal(t, "video/mp4", obj.contentType)
	assert.Equal(t, content, obj.data)
}

func TestUploadVideoRejectsNonVideo(t *testing.T) {
	svc, objects := newVideoService()

	_, err := svc.UploadVideo(context.Background(), bytes.NewReader([]byte("just some text")))
	assert.True(t, model.IsValidationError(err))
	assert.Empty(t, objects.objects)
}

func TestUploadVideoStorageError(t *testing.T) {
	svc, objects := newVideoService()
	objects.err = errors.New("bucket unavailable")

	_, err := svc.UploadVideo(context.Background(), bytes.NewReader(mp4Header))
	require.Error(t, err)
	assert.False(t, model.IsValidationError(err))
}

func TestUploadThumbnail(t *testing.T) {
	svc, objects := newVideoService()

	require.NoError(t, svc.UploadThumbnail(context.Background(), videoOne, pngHeader))
	require.Len(t, objects.objects, 1)
	assert.Equal(t, "minitube.thumbnails", objects.objects[0].bucket)
	assert.Equal(t, videoOne+".png", objects.objects[0].name)
	assert.Equal(t, "image/png", objects.objects[0].contentType)

	assert.ErrorIs(t, svc.UploadThumbnail(context.Background(), "bad/id", pngHeader), model.ErrInvalidVideoID)
	assert.True(t, model.IsValidationError(svc.UploadThumbnail(context.Background(), videoOne, mp4Header)))
}

func TestRecord(t *testing.T) {
	svc, _ := newVideoService()

	r, err := svc.Record(videoOne)
	require.NoError(t, err)
	assert.Equal(t, videoOne, r.VideoID)
	assert.Empty(t, r.Labels)
	assert.Equal(t, "https://s3.amazonaws.com/minitube.thumbnails/"+videoOne+".png", r.ThumbnailURL)

	_, err = svc.Record("nope")
	assert.ErrorIs(t, err, model.ErrInvalidVideoID)
}

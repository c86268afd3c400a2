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

package api_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-label-search/internal/api"
	"github.com/jaycherian/gcp-go-label-search/internal/core/model"
	"github.com/jaycherian/gcp-go-label-search/internal/core/services"
	"github.com/jaycherian/gcp-go-label-search/internal/core/workflow"
	"github.com/jaycherian/gcp-go-label-search/internal/labelstore"
	"github.com/jaycherian/gcp-go-label-search/internal/testutil"
)

var mp4Header = []byte{
	0x00, 0x00, 0x00, 0x20, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm',
	0x00, 0x00, 0x02, 0x00, 'i', 's', 'o', 'm', 'i', 's', 'o', '2',
	'a', 'v', 'c', '1', 'm', 'p', '4', '1',
}

var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d, 'I', 'H', 'D', 'R'}

type putCall struct {
	bucket string
	name   string
}

type memoryObjects struct {
	puts []putCall
}

func (m *memoryObjects) Put(_ context.Context, bucket string, name string, _ string, r io.Reader) error {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return err
	}
	m.puts = append(m.puts, putCall{bucket: bucket, name: name})
	return nil
}

type server struct {
	router   *gin.Engine
	detector *testutil.FakeDetector
	objects  *memoryObjects
}

func newServer() *server {
	return newServerWithLimit(0)
}

func newServerWithLimit(maxUploadBytes int64) *server {
	gin.SetMode(gin.TestMode)
	store := labelstore.NewMemory()
	detector := testutil.NewFakeDetector()
	objects := &memoryObjects{}
	locations := model.DefaultMediaLocations()
	router := api.NewRouter(api.Dependencies{
		Search:         &services.LabelSearchService{Store: store, Locations: locations},
		Videos:         &services.VideoService{Objects: objects, Locations: locations},
		Index:          workflow.NewLabelIndexWorkflow(detector, &services.LabelIndexService{Store: store}, 0),
		MaxUploadBytes: maxUploadBytes,
	})
	return &server{router: router, detector: detector, objects: objects}
}

func (s *server) do(method string, target string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	var out api.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	w := newServer().do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestNoRoute(t *testing.T) {
	w := newServer().do(http.MethodGet, "/api/v1/nothing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, api.ErrorTypeInvalidRoute, decodeError(t, w).ErrorType)
}

func TestIndexThenSearch(t *testing.T) {
	s := newServer()
	s.detector.With(model.ThumbnailObjectName(testutil.VideoOne),
		testutil.Label("Golden Retriever", "Dog"))
	s.detector.With(model.ThumbnailObjectName(testutil.VideoTwo),
		testutil.Label("Cat"))

	for _, id := range []string{testutil.VideoOne, testutil.VideoTwo} {
		w := s.do(http.MethodPost, "/api/v1/index", `{"video_id":"`+id+`","bucket":"`+testutil.ThumbnailBucket+`"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := s.do(http.MethodGet, "/api/v1/search?q=dog+CAT", "")
	require.Equal(t, http.StatusOK, w.Code)
	var result model.SearchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Len(t, result.Videos, 2)
	byID := map[string][]string{}
	for _, v := range result.Videos {
		byID[v.VideoID] = v.Labels
	}
	assert.Equal(t, []string{"dog"}, byID[testutil.VideoOne])
	assert.Equal(t, []string{"cat"}, byID[testutil.VideoTwo])

	w = s.do(http.MethodPost, "/api/v1/search", `{"labels":["retriever"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	result = model.SearchResult{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Len(t, result.Videos, 1)
	assert.Equal(t, testutil.VideoOne, result.Videos[0].VideoID)
}

func TestIndexResponse(t *testing.T) {
	s := newServer()
	s.detector.With(model.ThumbnailObjectName(testutil.VideoOne), testutil.Label("Grass"))

	w := s.do(http.MethodPost, "/api/v1/index", `{"video_id":"`+testutil.VideoOne+`","bucket":"b"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"labels":["grass"]}`, w.Body.String())
}

func TestSearchNoMatches(t *testing.T) {
	w := newServer().do(http.MethodGet, "/api/v1/search?q=unicorn", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"videos":[]}`, w.Body.String())
}

func TestInvalidRequests(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		body   string
	}{
		{"unknown field", http.MethodPost, "/api/v1/index", `{"video_id":"` + testutil.VideoOne + `","bucket":"b","extra":1}`},
		{"bad video id", http.MethodPost, "/api/v1/index", `{"video_id":"short","bucket":"b"}`},
		{"missing bucket", http.MethodPost, "/api/v1/index", `{"video_id":"` + testutil.VideoOne + `"}`},
		{"missing labels", http.MethodPost, "/api/v1/search", `{}`},
		{"malformed json", http.MethodPost, "/api/v1/search", `{"labels":`},
		{"bad record id", http.MethodGet, "/api/v1/videos/not-an-id", ""},
		{"bad thumbnail data", http.MethodPost, "/api/v1/thumbnails", `{"video_id":"` + testutil.VideoOne + `","thumbnail_data":"***"}`},
		{"thumbnail not an image", http.MethodPost, "/api/v1/thumbnails",
			`{"video_id":"` + testutil.VideoOne + `","thumbnail_data":"` + base64.StdEncoding.EncodeToString([]byte("plain text body")) + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newServer().do(tt.method, tt.target, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, api.ErrorTypeInvalidRequest, decodeError(t, w).ErrorType)
		})
	}
}

func TestDetectionFailureIsInternal(t *testing.T) {
	s := newServer()
	s.detector.Err = errors.New("provider down")

	w := s.do(http.MethodPost, "/api/v1/index", `{"video_id":"`+testutil.VideoOne+`","bucket":"b"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	out := decodeError(t, w)
	assert.Equal(t, api.ErrorTypeInternal, out.ErrorType)
	assert.NotContains(t, out.Info, "provider down")
	assert.Contains(t, out.Info, w.Header().Get(api.RequestIDHeader))
}

func TestGetVideo(t *testing.T) {
	w := newServer().do(http.MethodGet, "/api/v1/videos/"+testutil.VideoOne, "")
	require.Equal(t, http.StatusOK, w.Code)
	var record model.SearchResultRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	assert.Equal(t, testutil.VideoOne, record.VideoID)
	assert.Empty(t, record.Labels)
	assert.Equal(t, "https://s3.amazonaws.com/minitube.videos/"+testutil.VideoOne+".mp4", record.VideoURL)
}

func TestStreamWithoutSigner(t *testing.T) {
	w := newServer().do(http.MethodGet, "/api/v1/videos/"+testutil.VideoOne+"/stream", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, api.ErrorTypeInternal, decodeError(t, w).ErrorType)
}

func multipartVideo(t *testing.T, size int) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile(api.UploadFormField, "clip.mp4")
	require.NoError(t, err)
	_, err = part.Write(append(append([]byte{}, mp4Header...), bytes.Repeat([]byte{0x42}, size)...))
	require.NoError(t, err)
	require.NoError(t, form.Close())
	return &body, form.FormDataContentType()
}

func (s *server) upload(body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestUploadVideo(t *testing.T) {
	s := newServer()
	w := s.upload(multipartVideo(t, 1024))

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var out api.VideoIDResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.True(t, model.IsValidVideoID(out.VideoID))
	require.Len(t, s.objects.puts, 1)
	assert.Equal(t, "minitube.videos", s.objects.puts[0].bucket)
	assert.Equal(t, out.VideoID+".mp4", s.objects.puts[0].name)
}

func TestUploadTooLarge(t *testing.T) {
	s := newServerWithLimit(512)

	w := s.upload(multipartVideo(t, 4096))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code, w.Body.String())
	assert.Equal(t, api.ErrorTypeInvalidRequest, decodeError(t, w).ErrorType)
	assert.Empty(t, s.objects.puts)

	data := base64.StdEncoding.EncodeToString(append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0x42}, 4096)...))
	w = s.do(http.MethodPost, "/api/v1/thumbnails", `{"video_id":"`+testutil.VideoOne+`","thumbnail_data":"`+data+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code, w.Body.String())
	assert.Equal(t, api.ErrorTypeInvalidRequest, decodeError(t, w).ErrorType)

	w = s.upload(multipartVideo(t, 64))
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestUploadVideoMissingFile(t *testing.T) {
	w := newServer().do(http.MethodPost, "/api/v1/videos", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, api.ErrorTypeInvalidRequest, decodeError(t, w).ErrorType)
}

func TestUploadThumbnail(t *testing.T) {
	s := newServer()
	data := base64.StdEncoding.EncodeToString(pngHeader)
	w := s.do(http.MethodPost, "/api/v1/thumbnails", `{"video_id":"`+testutil.VideoTwo+`","thumbnail_data":"`+data+`"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.JSONEq(t, `{"video_id":"`+testutil.VideoTwo+`"}`, w.Body.String())
	require.Len(t, s.objects.puts, 1)
	assert.Equal(t, testutil.ThumbnailBucket, s.objects.puts[0].bucket)
	assert.Equal(t, testutil.VideoTwo+".png", s.objects.puts[0].name)
}

func TestRequestID(t *testing.T) {
	s := newServer()

	w := s.do(http.MethodGet, "/healthz", "")
	_, err := uuid.Parse(w.Header().Get(api.RequestIDHeader))
	assert.NoError(t, err)

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(api.RequestIDHeader, id)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, id, w.Header().Get(api.RequestIDHeader))
}

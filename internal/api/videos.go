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

package api

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-label-search/internal/core/model"
)

// UploadFormField is the multipart field holding an uploaded video.
const UploadFormField = "file"

// ThumbnailRequest is the body of POST /thumbnails.
type ThumbnailRequest struct {
	VideoID       string `json:"video_id" binding:"required,videoid"`
	ThumbnailData string `json:"thumbnail_data" binding:"required,base64"`
}

// VideoIDResponse is returned by the upload routes.
type VideoIDResponse struct {
	VideoID string `json:"video_id"`
}

// StreamResponse holds a signed stream URL.
type StreamResponse struct {
	URL string `json:"url"`
}

// VideoRouter registers the video and thumbnail routes.
//
// This function defines the following endpoints:
//   - POST /videos: Stores the multipart "file" under a new video id.
//   - GET /videos/:id: The derived record of a video, with empty labels.
//   - GET /videos/:id/stream: A signed URL valid for StreamURLTTL. Without a
//     configured signer this is an internal_error.
//   - POST /thumbnails: Stores a base64 encoded thumbnail of an existing video.
func VideoRouter(r *gin.RouterGroup, h *handlers) {
	videos := r.Group("/videos")
	{
		videos.POST("", LimitBody(h.deps.MaxUploadBytes), h.uploadVideo)
		videos.GET("/:id", h.getVideo)
		videos.GET("/:id/stream", h.streamVideo)
	}
	r.POST("/thumbnails", LimitBody(h.deps.MaxUploadBytes), h.uploadThumbnail)
}

func (h *handlers) uploadVideo(c *gin.Context) {
	header, err := c.FormFile(UploadFormField)
	if err != nil {
		respondError(c, fmt.Errorf("%w: multipart field %q is required: %w", model.ErrValidation, UploadFormField, err))
		return
	}
	file, err := header.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	videoID, err := h.deps.Videos.UploadVideo(c.Request.Context(), file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, VideoIDResponse{VideoID: videoID})
}

func (h *handlers) uploadThumbnail(c *gin.Context) {
	var request ThumbnailRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondError(c, bindingError(err))
		return
	}
	data, err := base64.StdEncoding.DecodeString(request.ThumbnailData)
	if err != nil {
		respondError(c, bindingError(err))
		return
	}
	if err := h.deps.Videos.UploadThumbnail(c.Request.Context(), request.VideoID, data); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, VideoIDResponse{VideoID: request.VideoID})
}

func (h *handlers) getVideo(c *gin.Context) {
	record, err := h.deps.Videos.Record(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *handlers) streamVideo(c *gin.Context) {
	url, err := h.deps.Videos.SignedVideoURL(c.Request.Context(), c.Param("id"), h.deps.StreamURLTTL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, StreamResponse{URL: url})
}

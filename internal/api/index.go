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
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-label-search/internal/core/model"
)

// IndexRequest is the body of POST /index.
type IndexRequest struct {
	VideoID      string `json:"video_id" binding:"required,videoid"`
	Bucket       string `json:"bucket" binding:"required"`
	ThumbnailKey string `json:"thumbnail_key"`
}

// IndexRouter registers POST /index, which runs detection, normalization and
// indexing synchronously and answers {"labels": [...]}. A failed run may
// have committed some chunks; retrying the same request is safe.
func IndexRouter(r *gin.RouterGroup, h *handlers) {
	r.POST("/index", h.index)
}

func (h *handlers) index(c *gin.Context) {
	var request IndexRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondError(c, bindingError(err))
		return
	}
	labels, err := h.deps.Index.Index(c.Request.Context(), &model.IndexRequest{
		VideoID:      request.VideoID,
		Bucket:       request.Bucket,
		ThumbnailKey: request.ThumbnailKey,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, labels)
}

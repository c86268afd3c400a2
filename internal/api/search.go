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

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Labels []string `json:"labels" binding:"required"`
}

// SearchRouter registers the search routes.
//
//   - GET /search?q=cat+dog: The query is split on whitespace.
//   - POST /search with {"labels": ["cat", "dog"]}.
//
// Both answer {"videos": [...]}, an empty list when nothing matched.
func SearchRouter(r *gin.RouterGroup, h *handlers) {
	search := r.Group("/search")
	{
		search.GET("", h.searchText)
		search.POST("", h.searchLabels)
	}
}

func (h *handlers) searchText(c *gin.Context) {
	videos, err := h.deps.Search.SearchText(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSearchResult(videos))
}

func (h *handlers) searchLabels(c *gin.Context) {
	var request SearchRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondError(c, bindingError(err))
		return
	}
	videos, err := h.deps.Search.Search(c.Request.Context(), request.Labels)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSearchResult(videos))
}

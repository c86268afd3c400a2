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

// Package api contains the HTTP surface of the label search server.
//
// Routes (all under /api/v1):
//   - POST /videos: Multipart upload (field "file") of a video; returns its generated id.
//   - GET /videos/:id: The derived record of a video.
//   - GET /videos/:id/stream: A time-limited signed URL for the video object.
//   - POST /thumbnails: Stores a base64 thumbnail; the bucket notification indexes it.
//   - POST /index: Detects, normalizes and indexes the labels of a stored thumbnail.
//   - GET /search?q=: Free text label search.
//   - POST /search: Label list search.
//
// Failures are rendered as {"error_type": ..., "info": ...}; see errors.go.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jaycherian/gcp-go-label-search/internal/core/model"
	"github.com/jaycherian/gcp-go-label-search/internal/core/services"
)

// DefaultStreamURLTTL is the lifetime of signed stream URLs.
const DefaultStreamURLTTL = 15 * time.Minute

// IndexWorkflow runs the synchronous indexing entry point.
// workflow.LabelIndexWorkflow implements it.
type IndexWorkflow interface {
	Index(ctx context.Context, request *model.IndexRequest) (*model.Labels, error)
}

// Dependencies are the services the handlers call.
type Dependencies struct {
	ServiceName    string
	Search         *services.LabelSearchService
	Videos         *services.VideoService
	Index          IndexWorkflow
	MaxUploadBytes int64         // Zero means unlimited.
	StreamURLTTL   time.Duration // Zero means DefaultStreamURLTTL.
}

// NewRouter builds the gin engine with tracing, CORS, request ids, access
// logging and every route registered.
func NewRouter(deps Dependencies) *gin.Engine {
	if deps.StreamURLTTL == 0 {
		deps.StreamURLTTL = DefaultStreamURLTTL
	}
	if len(deps.ServiceName) == 0 {
		deps.ServiceName = "label-search-server"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(deps.ServiceName))
	r.Use(cors.Default())
	r.Use(RequestID())
	r.Use(AccessLog())

	r.NoRoute(func(c *gin.Context) {
		abortWithError(c, http.StatusNotFound, ErrorTypeInvalidRoute, "no route for "+c.Request.Method+" "+c.Request.URL.Path)
	})

	Health(r)

	h := &handlers{deps: deps}
	apiV1 := r.Group("/api/v1")
	{
		VideoRouter(apiV1, h)
		SearchRouter(apiV1, h)
		IndexRouter(apiV1, h)
	}
	return r
}

type handlers struct {
	deps Dependencies
}

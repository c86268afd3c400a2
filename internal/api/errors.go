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
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-label-search/internal/core/model"
)

// Error types of the JSON error body.
const (
	ErrorTypeInvalidRoute   = "invalid_route"
	ErrorTypeInvalidRequest = "invalid_request"
	ErrorTypeInternal       = "internal_error"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	ErrorType string `json:"error_type"`
	Info      string `json:"info"`
}

func abortWithError(c *gin.Context, status int, errorType string, info string) {
	c.AbortWithStatusJSON(status, ErrorResponse{ErrorType: errorType, Info: info})
}

// respondError maps err onto the error taxonomy: a body over the upload limit
// becomes 413 invalid_request, other client faults 400 invalid_request and
// everything else 500 internal_error. Internal details are logged, not
// returned.
func respondError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		abortWithError(c, http.StatusRequestEntityTooLarge, ErrorTypeInvalidRequest,
			fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		return
	}
	if model.IsValidationError(err) {
		abortWithError(c, http.StatusBadRequest, ErrorTypeInvalidRequest, err.Error())
		return
	}
	slog.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "request_id", c.GetString(RequestIDKey), "error", err)
	abortWithError(c, http.StatusInternalServerError, ErrorTypeInternal, "internal error, request id "+c.GetString(RequestIDKey))
}

// bindingError turns a gin binding failure into a validation error.
func bindingError(err error) error {
	if errors.Is(err, model.ErrValidation) {
		return err
	}
	return fmt.Errorf("%w: %w", model.ErrValidation, err)
}

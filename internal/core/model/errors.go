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

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks client faults detected before any I/O happens.
	ErrValidation = errors.New("invalid request")
	// ErrInvalidVideoID is returned for identifiers failing IsValidVideoID.
	ErrInvalidVideoID = fmt.Errorf("%w: invalid video id", ErrValidation)
	// ErrNoTokens is returned when an operation requires at least one token.
	ErrNoTokens = fmt.Errorf("%w: at least one label token is required", ErrValidation)
	// ErrInvalidToken is returned for tokens that are empty, not lowercase or
	// contain whitespace.
	ErrInvalidToken = fmt.Errorf("%w: invalid label token", ErrValidation)
	// ErrDetection wraps failures of the label detection provider.
	ErrDetection = errors.New("label detection failed")
)

// NewValidationError builds an error that matches ErrValidation.
func NewValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// IsValidationError reports whether err is a client fault.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

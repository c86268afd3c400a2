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
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// VideoIDLength is the fixed length of every generated video identifier.
	VideoIDLength = 22
	// VideoIDAlphabet holds the 63 symbols identifiers are drawn from.
	VideoIDAlphabet = "_0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// IsValidVideoID reports whether id has the identifier length and consists only
// of alphabet symbols. It must be checked before an identifier taken from
// untrusted input is used as a store key or formatted into a URL.
func IsValidVideoID(id string) bool {
	if len(id) != VideoIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if !isVideoIDSymbol(id[i]) {
			return false
		}
	}
	return true
}

// ValidateVideoID is IsValidVideoID expressed as a validation error.
func ValidateVideoID(id string) error {
	if !IsValidVideoID(id) {
		return fmt.Errorf("%w: expected %d characters from [_0-9a-zA-Z]", ErrInvalidVideoID, VideoIDLength)
	}
	return nil
}

func isVideoIDSymbol(c byte) bool {
	return c == '_' ||
		('0' <= c && c <= '9') ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z')
}

// NewVideoID generates a random identifier of VideoIDLength symbols drawn
// uniformly from VideoIDAlphabet.
func NewVideoID() (string, error) {
	id, err := gonanoid.Generate(VideoIDAlphabet, VideoIDLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate video id: %w", err)
	}
	return id, nil
}

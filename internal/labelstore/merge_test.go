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

package labelstore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeItems(t *testing.T) {
	out := mergeItems([]AddToSet{
		{Key: "cat", Values: []string{"v1", "v1"}},
		{Key: "dog", Values: []string{"v2"}},
		{Key: "cat", Values: []string{"v3", "v1"}},
	})

	assert.Equal(t, []AddToSet{
		{Key: "cat", Values: []string{"v1", "v3"}},
		{Key: "dog", Values: []string{"v2"}},
	}, out)
}

func TestToPostingSetParams(t *testing.T) {
	out := toPostingSetParams([]AddToSet{
		{Key: "cat", Values: []string{"v1"}},
		{Key: "cat", Values: []string{"v2"}},
		{Key: "empty"},
	})

	assert.Equal(t, []postingSetParam{
		{Label: "cat", Videos: []string{"v1", "v2"}},
		{Label: "empty", Videos: []string{}},
	}, out)
}

func TestStoreError(t *testing.T) {
	assert.Nil(t, storeError("op", nil))

	base := errors.New("boom")
	err := storeError("transact", base)
	assert.ErrorIs(t, err, ErrStore)
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "label store error: transact: boom", err.Error())

	assert.Same(t, ErrTooManyItems, storeError("transact", ErrTooManyItems))
}

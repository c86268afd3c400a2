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

package labelstore_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/jaycherian/gcp-go-label-search/internal/labelstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends returns a fresh instance of every embedded backend.
func backends(t *testing.T) map[string]labelstore.Store {
	t.Helper()
	b, err := labelstore.OpenBadger("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	return map[string]labelstore.Store{
		"memory": labelstore.NewMemory(),
		"badger": b,
	}
}

func rowsByKey(rows []labelstore.Row) map[string][]string {
	out := make(map[string][]string, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Values
	}
	return out
}

func TestTransactAddToSet(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.TransactAddToSet(ctx, []labelstore.AddToSet{
				{Key: "cat", Values: []string{"v1"}},
				{Key: "pet", Values: []string{"v1"}},
			}))
			require.NoError(t, s.TransactAddToSet(ctx, []labelstore.AddToSet{
				{Key: "cat", Values: []string{"v2"}},
			}))

			rows, err := s.BatchGet(ctx, []string{"cat", "pet", "dog"})
			require.NoError(t, err)
			got := rowsByKey(rows)
			assert.Len(t, got, 2)
			assert.ElementsMatch(t, []string{"v1", "v2"}, got["cat"])
			assert.ElementsMatch(t, []string{"v1"}, got["pet"])
		})
	}
}

func TestTransactAddToSetIdempotent(t *testing.T) {
	ctx := context.Background()
	items := []labelstore.AddToSet{
		{Key: "cat", Values: []string{"v1"}},
		{Key: "cat", Values: []string{"v1"}},
	}
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.TransactAddToSet(ctx, items))
			first, err := s.BatchGet(ctx, []string{"cat"})
			require.NoError(t, err)

			require.NoError(t, s.TransactAddToSet(ctx, items))
			second, err := s.BatchGet(ctx, []string{"cat"})
			require.NoError(t, err)

			assert.Equal(t, first, second)
			assert.Equal(t, []string{"v1"}, rowsByKey(second)["cat"])
		})
	}
}

func TestTransactAddToSetTooManyItems(t *testing.T) {
	ctx := context.Background()
	items := make([]labelstore.AddToSet, labelstore.MaxTransactItems+1)
	for i := range items {
		items[i] = labelstore.AddToSet{Key: fmt.Sprintf("t%02d", i), Values: []string{"v1"}}
	}
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := s.TransactAddToSet(ctx, items)
			require.Error(t, err)
			assert.True(t, errors.Is(err, labelstore.ErrTooManyItems))
			assert.True(t, errors.Is(err, labelstore.ErrStore))

			rows, err := s.BatchGet(ctx, []string{"t00"})
			require.NoError(t, err)
			assert.Empty(t, rows)

			require.NoError(t, s.TransactAddToSet(ctx, items[:labelstore.MaxTransactItems]))
		})
	}
}

func TestBatchGetDuplicateKeys(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.TransactAddToSet(ctx, []labelstore.AddToSet{{Key: "cat", Values: []string{"v1"}}}))
			rows, err := s.BatchGet(ctx, []string{"cat", "cat"})
			require.NoError(t, err)
			assert.Len(t, rows, 1)
		})
	}
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := s.TransactAddToSet(ctx, []labelstore.AddToSet{{Key: "cat", Values: []string{"v1"}}})
			assert.ErrorIs(t, err, labelstore.ErrStore)
			assert.ErrorIs(t, err, context.Canceled)

			_, err = s.BatchGet(ctx, []string{"cat"})
			assert.ErrorIs(t, err, labelstore.ErrStore)
		})
	}
}

func TestConcurrentWritersNoLostUpdates(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			errs := make(chan error, 16)
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					errs <- s.TransactAddToSet(ctx, []labelstore.AddToSet{
						{Key: "shared", Values: []string{fmt.Sprintf("v%02d", i)}},
					})
				}(i)
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				require.NoError(t, err)
			}

			rows, err := s.BatchGet(ctx, []string{"shared"})
			require.NoError(t, err)
			assert.Len(t, rowsByKey(rows)["shared"], 16)
		})
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := labelstore.Open(ctx, labelstore.Config{Backend: labelstore.BackendMemory}, nil)
	require.NoError(t, err)
	assert.IsType(t, &labelstore.Memory{}, s)

	s, err = labelstore.Open(ctx, labelstore.Config{Backend: labelstore.BackendBadger}, nil)
	require.NoError(t, err)
	assert.IsType(t, &labelstore.Badger{}, s)
	assert.NoError(t, s.Close())

	_, err = labelstore.Open(ctx, labelstore.Config{Backend: labelstore.BackendBigQuery}, nil)
	assert.ErrorIs(t, err, labelstore.ErrStore)

	_, err = labelstore.Open(ctx, labelstore.Config{Backend: "dynamo"}, nil)
	assert.ErrorIs(t, err, labelstore.ErrStore)
}

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
	"context"
	"slices"
	"sync"
)

// Memory is an in-process Store. A single mutex makes every transaction atomic.
type Memory struct {
	mu   sync.RWMutex
	rows map[string]map[string]struct{}
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{rows: make(map[string]map[string]struct{})}
}

// TransactAddToSet implements Store.
func (m *Memory) TransactAddToSet(ctx context.Context, items []AddToSet) error {
	if err := checkItems(items); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return storeError("transact", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range items {
		set, ok := m.rows[item.Key]
		if !ok {
			set = make(map[string]struct{}, len(item.Values))
			m.rows[item.Key] = set
		}
		for _, v := range item.Values {
			set[v] = struct{}{}
		}
	}
	return nil
}

// BatchGet implements Store.
func (m *Memory) BatchGet(ctx context.Context, keys []string) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, storeError("batch get", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := make([]Row, 0, len(keys))
	for _, key := range slices.Compact(slices.Sorted(slices.Values(keys))) {
		set, ok := m.rows[key]
		if !ok {
			continue
		}
		values := make([]string, 0, len(set))
		for v := range set {
			values = append(values, v)
		}
		slices.Sort(values)
		rows = append(rows, Row{Key: key, Values: values})
	}
	return rows, nil
}

// Close implements Store.
func (m *Memory) Close() error {
	return nil
}

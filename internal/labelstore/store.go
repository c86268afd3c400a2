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

// Package labelstore holds the persistent label index: rows keyed by label
// token, each carrying the set of video identifiers indexed under that token.
//
// The package exposes two primitives only. TransactAddToSet applies up to
// MaxTransactItems "upsert and add values to the set" operations atomically,
// and BatchGet reads a list of rows in one request. Three backends implement
// them: Badger (embedded, local), BigQuery (managed) and Memory (tests, CLI
// dry runs).
package labelstore

import (
	"context"
	"errors"
	"fmt"
)

// MaxTransactItems is the item ceiling of a single atomic transaction.
const MaxTransactItems = 25

var (
	// ErrStore wraps every backend failure.
	ErrStore = errors.New("label store error")
	// ErrTooManyItems is returned for transactions above MaxTransactItems.
	ErrTooManyItems = fmt.Errorf("%w: transaction exceeds %d items", ErrStore, MaxTransactItems)
)

// AddToSet adds Values to the posting set of the row keyed by Key, creating the
// row when it does not exist yet.
type AddToSet struct {
	Key    string
	Values []string
}

// Row is a label index row as returned by BatchGet. Values is nil when the row
// has no posting-set attribute.
type Row struct {
	Key    string
	Values []string
}

// Store is the transactional key/string-set capability the index is built on.
type Store interface {
	// TransactAddToSet applies all items atomically: either every posting set
	// is updated or none is.
	TransactAddToSet(ctx context.Context, items []AddToSet) error
	// BatchGet returns the existing rows among keys. Missing keys produce no row.
	BatchGet(ctx context.Context, keys []string) ([]Row, error)
	// Close releases the backend.
	Close() error
}

func checkItems(items []AddToSet) error {
	if len(items) > MaxTransactItems {
		return fmt.Errorf("%w (got %d)", ErrTooManyItems, len(items))
	}
	return nil
}

// storeError wraps a backend error so that errors.Is(err, ErrStore) holds
// while keeping the original error reachable.
func storeError(op string, err error) error {
	if err == nil || errors.Is(err, ErrStore) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}

// mergeItems folds items sharing a key into one, preserving first-seen order.
func mergeItems(items []AddToSet) []AddToSet {
	out := make([]AddToSet, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		if i, ok := index[item.Key]; ok {
			out[i].Values = unionValues(out[i].Values, item.Values)
			continue
		}
		index[item.Key] = len(out)
		out = append(out, AddToSet{Key: item.Key, Values: unionValues(nil, item.Values)})
	}
	return out
}

// unionValues appends every value of add missing from set. It returns a new
// slice when set is nil.
func unionValues(set []string, add []string) []string {
	present := make(map[string]struct{}, len(set)+len(add))
	for _, v := range set {
		present[v] = struct{}{}
	}
	for _, v := range add {
		if _, ok := present[v]; ok {
			continue
		}
		present[v] = struct{}{}
		set = append(set, v)
	}
	return set
}

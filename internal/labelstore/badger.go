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
	"encoding/json"
	"errors"
	"slices"

	badger "github.com/dgraph-io/badger/v4"
)

const (
	labelKeyPrefix = "label:"
	// DefaultConflictRetries bounds the retries of a transaction that lost an
	// optimistic concurrency check against a concurrent writer.
	DefaultConflictRetries = 32
)

// Badger is a Store backed by an embedded badger database. Each label row is a
// key `label:<token>` whose value is the JSON encoded, sorted posting set.
//
// Badger transactions are serializable, so the read-merge-write of a posting
// set inside one db.Update is the store's add-to-set primitive. A transaction
// that conflicts with a concurrent writer is retried here, never above.
type Badger struct {
	db              *badger.DB
	ConflictRetries int
}

// OpenBadger opens (or creates) the database in dir. An empty dir opens a
// purely in-memory database.
func OpenBadger(dir string) (*Badger, error) {
	opts := badger.DefaultOptions(dir).WithLoggingLevel(badger.ERROR)
	if len(dir) == 0 {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, storeError("open", err)
	}
	return &Badger{db: db, ConflictRetries: DefaultConflictRetries}, nil
}

func rowKey(label string) []byte {
	return []byte(labelKeyPrefix + label)
}

func readPostingSet(txn *badger.Txn, key []byte) ([]string, bool, error) {
	item, err := txn.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var set []string
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &set)
	})
	if err != nil {
		return nil, false, err
	}
	return set, true, nil
}

// TransactAddToSet implements Store.
func (b *Badger) TransactAddToSet(ctx context.Context, items []AddToSet) error {
	if err := checkItems(items); err != nil {
		return err
	}
	merged := mergeItems(items)

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return storeError("transact", err)
		}
		err := b.db.Update(func(txn *badger.Txn) error {
			for _, item := range merged {
				key := rowKey(item.Key)
				current, exists, err := readPostingSet(txn, key)
				if err != nil {
					return err
				}
				next := unionValues(current, item.Values)
				if exists && len(next) == len(current) {
					continue
				}
				slices.Sort(next)
				data, err := json.Marshal(next)
				if err != nil {
					return err
				}
				if err := txn.Set(key, data); err != nil {
					return err
				}
			}
			return nil
		})
		if errors.Is(err, badger.ErrConflict) && attempt < b.ConflictRetries {
			continue
		}
		return storeError("transact", err)
	}
}

// BatchGet implements Store.
func (b *Badger) BatchGet(ctx context.Context, keys []string) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, storeError("batch get", err)
	}

	rows := make([]Row, 0, len(keys))
	err := b.db.View(func(txn *badger.Txn) error {
		for _, key := range slices.Compact(slices.Sorted(slices.Values(keys))) {
			set, exists, err := readPostingSet(txn, rowKey(key))
			if err != nil {
				return err
			}
			if exists {
				rows = append(rows, Row{Key: key, Values: set})
			}
		}
		return nil
	})
	if err != nil {
		return nil, storeError("batch get", err)
	}
	return rows, nil
}

// Close implements Store.
func (b *Badger) Close() error {
	return storeError("close", b.db.Close())
}

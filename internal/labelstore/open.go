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
	"fmt"

	"cloud.google.com/go/bigquery"
)

const (
	BackendBadger   = "badger"
	BackendBigQuery = "bigquery"
	BackendMemory   = "memory"
)

// Config selects and parameterizes the label index backend.
type Config struct {
	Backend       string  `toml:"backend"`        // One of badger, bigquery, memory.
	BadgerPath    string  `toml:"badger_path"`    // Database directory; empty means in-memory badger.
	DatasetName   string  `toml:"dataset"`        // BigQuery dataset holding the label table.
	TableName     string  `toml:"table"`          // BigQuery label table.
	CreateTable   bool    `toml:"create_table"`   // Run the DDL on start-up (BigQuery only).
	MinConfidence float32 `toml:"min_confidence"` // Labels detected below this confidence are not indexed.
}

// Open builds the Store described by cfg. The BigQuery client is only used by
// the bigquery backend and may be nil otherwise.
func Open(ctx context.Context, cfg Config, bq *bigquery.Client) (Store, error) {
	switch cfg.Backend {
	case BackendBadger, "":
		return OpenBadger(cfg.BadgerPath)
	case BackendMemory:
		return NewMemory(), nil
	case BackendBigQuery:
		if bq == nil {
			return nil, fmt.Errorf("%w: bigquery backend requires a bigquery client", ErrStore)
		}
		s := &BigQuery{Client: bq, DatasetName: cfg.DatasetName, TableName: cfg.TableName}
		if cfg.CreateTable {
			if err := s.EnsureTable(ctx); err != nil {
				return nil, err
			}
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrStore, cfg.Backend)
	}
}

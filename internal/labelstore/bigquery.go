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
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// BigQuery is a Store backed by a BigQuery table with the schema
// `(label STRING, videos ARRAY<STRING>)`. Each transaction is one MERGE
// statement, which BigQuery applies atomically.
type BigQuery struct {
	Client      *bigquery.Client // Owned by the caller; Close does not close it.
	DatasetName string
	TableName   string
}

// postingSetParam is the STRUCT element type of the @items parameter.
type postingSetParam struct {
	Label  string   `bigquery:"label"`
	Videos []string `bigquery:"videos"`
}

// labelRow is the result row shape of QryGetPostingSets.
type labelRow struct {
	Label  string   `bigquery:"label"`
	Videos []string `bigquery:"videos"`
}

// GetFQN returns the table name in the `project.dataset.table` form used in SQL.
func (s *BigQuery) GetFQN() string {
	fqn := s.Client.Dataset(s.DatasetName).Table(s.TableName).FullyQualifiedName()
	return strings.Replace(fqn, ":", ".", -1)
}

// EnsureTable creates the label table if it does not exist.
func (s *BigQuery) EnsureTable(ctx context.Context) error {
	return s.exec(ctx, "ensure table", s.Client.Query(fmt.Sprintf(DDLCreateLabelTable, s.GetFQN())))
}

// TransactAddToSet implements Store.
func (s *BigQuery) TransactAddToSet(ctx context.Context, items []AddToSet) error {
	if err := checkItems(items); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	q := s.Client.Query(fmt.Sprintf(QryMergePostingSets, s.GetFQN()))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "items", Value: toPostingSetParams(items)},
	}
	return s.exec(ctx, "transact", q)
}

// BatchGet implements Store.
func (s *BigQuery) BatchGet(ctx context.Context, keys []string) ([]Row, error) {
	q := s.Client.Query(fmt.Sprintf(QryGetPostingSets, s.GetFQN()))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "labels", Value: keys},
	}
	it, err := q.Read(ctx)
	if err != nil {
		return nil, storeError("batch get", err)
	}
	rows := make([]Row, 0, len(keys))
	for {
		var r labelRow
		err := it.Next(&r)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, storeError("batch get", err)
		}
		rows = append(rows, Row{Key: r.Label, Values: r.Videos})
	}
	return rows, nil
}

// Close implements Store.
func (s *BigQuery) Close() error {
	return nil
}

func (s *BigQuery) exec(ctx context.Context, op string, q *bigquery.Query) error {
	job, err := q.Run(ctx)
	if err != nil {
		return storeError(op, err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return storeError(op, err)
	}
	return storeError(op, status.Err())
}

// toPostingSetParams merges duplicate labels, since MERGE rejects a target
// row matched by more than one source row.
func toPostingSetParams(items []AddToSet) []postingSetParam {
	merged := mergeItems(items)
	out := make([]postingSetParam, 0, len(merged))
	for _, item := range merged {
		values := item.Values
		if values == nil {
			values = []string{}
		}
		out = append(out, postingSetParam{Label: item.Key, Videos: values})
	}
	return out
}

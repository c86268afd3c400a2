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

// This file centralizes the BigQuery statements used by the BigQuery backend.
// Table names are injected with `fmt.Sprintf`; every value coming from callers
// travels as a named query parameter.

package labelstore

const (
	// DDLCreateLabelTable creates the label index table when it is missing.
	//
	// Placeholders:
	// - `%s`: The fully qualified name of the label table.
	DDLCreateLabelTable = "CREATE TABLE IF NOT EXISTS `%s` (label STRING NOT NULL, videos ARRAY<STRING>) CLUSTER BY label"

	// QryMergePostingSets upserts a batch of posting sets in one statement.
	//
	// How it works:
	// - `UNNEST(@items)`: flattens the ARRAY<STRUCT<label, videos>> parameter into rows.
	// - `WHEN MATCHED`: concatenates the stored and incoming ids and keeps the distinct ones,
	//   so adding an id that is already present changes nothing.
	// - `WHEN NOT MATCHED`: creates the row for a label seen for the first time.
	//
	// A single DML statement is atomic in BigQuery, so either all rows of the batch are
	// updated or none is. Labels must be unique inside @items.
	//
	// Placeholders:
	// - `%s`: The fully qualified name of the label table.
	QryMergePostingSets = "MERGE `%s` AS t " +
		"USING (SELECT item.label AS label, item.videos AS videos FROM UNNEST(@items) AS item) AS s " +
		"ON t.label = s.label " +
		"WHEN MATCHED THEN UPDATE SET videos = ARRAY(SELECT DISTINCT v FROM UNNEST(ARRAY_CONCAT(IFNULL(t.videos, []), s.videos)) AS v ORDER BY v) " +
		"WHEN NOT MATCHED THEN INSERT (label, videos) VALUES (s.label, ARRAY(SELECT DISTINCT v FROM UNNEST(s.videos) AS v ORDER BY v))"

	// QryGetPostingSets reads the rows of the requested labels.
	//
	// Placeholders:
	// - `%s`: The fully qualified name of the label table.
	QryGetPostingSets = "SELECT label, videos FROM `%s` WHERE label IN UNNEST(@labels)"
)

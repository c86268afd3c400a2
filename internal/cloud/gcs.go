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

// This file defines the Google Cloud Storage (GCS) models: the Pub/Sub
// notification payload, a simplified object reference, and the object writer
// used by the upload routes.
//
// Structs:
//   - GCSPubSubNotification: Maps to the JSON payload from GCS event notifications.
//   - GCSObject: A simplified internal model for GCS objects used in processing workflows.
//   - GCSObjectStore: Writes objects with a storage.Client.
//
// Functions:
//   - VideoIDFromObjectName: Derives the video id from a thumbnail object name.

package cloud

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
)

// GetGCSObjectName returns the chain context key holding the GCSObject being processed.
func GetGCSObjectName() string {
	return "__GCS__OBJ__"
}

// GCSPubSubNotification is the structure that maps to the JSON message payload
// received from a Google Cloud Storage (GCS) Pub/Sub notification.
type GCSPubSubNotification struct {
	Kind                    string                 `json:"kind"`                    // The kind of the object, typically "storage#object".
	ID                      string                 `json:"id"`                      // The full ID of the object, including bucket and generation.
	SelfLink                string                 `json:"selfLink"`                // The URI for this object.
	Name                    string                 `json:"name"`                    // The name of the object within the bucket.
	Bucket                  string                 `json:"bucket"`                  // The name of the bucket containing the object.
	Generation              string                 `json:"generation"`              // The generation number of the object's content.
	MetaGeneration          string                 `json:"metageneration"`          // The generation number of the object's metadata.
	ContentType             string                 `json:"contentType"`             // The MIME type of the object's content.
	TimeCreated             string                 `json:"timeCreated"`             // The creation time of the object.
	Updated                 string                 `json:"updated"`                 // The last modification time of the object.
	StorageClass            string                 `json:"storageClass"`            // The storage class of the object.
	TimeStorageClassUpdated string                 `json:"timeStorageClassUpdated"` // The time the storage class was last updated.
	Size                    string                 `json:"size"`                    // The size of the object in bytes.
	MD5Hash                 string                 `json:"md5Hash"`                 // The MD5 hash of the object's content.
	MediaLink               string                 `json:"mediaLink"`               // A link to download the object's content.
	MetaData                map[string]interface{} `json:"metadata"`                // User-provided metadata, if any.
	Crc32c                  string                 `json:"crc32c"`                  // The CRC32C checksum of the object's content.
	ETag                    string                 `json:"etag"`                    // The HTTP ETag of the object.
}

// GCSObject is a simplified reference to a GCS object.
type GCSObject struct {
	Bucket   string // The name of the GCS bucket.
	Name     string // The name of the object.
	MIMEType string // The MIME type of the object (e.g., "image/jpeg").
}

// URI returns the gs:// form of the object reference.
func (o GCSObject) URI() string {
	return fmt.Sprintf("gs://%s/%s", o.Bucket, o.Name)
}

// VideoIDFromObjectName derives a video id from a thumbnail object name by
// removing every '/' and the file extension, so "thumbs/abc.jpg" yields
// "thumbsabc". The result still has to pass model.ValidateVideoID.
func VideoIDFromObjectName(name string) string {
	base := strings.TrimSuffix(name, path.Ext(name))
	return strings.ReplaceAll(base, "/", "")
}

// GCSObjectStore writes uploads to Cloud Storage.
type GCSObjectStore struct {
	Client *storage.Client
}

// Put streams r into gs://bucket/name with the given content type.
func (s *GCSObjectStore) Put(ctx context.Context, bucket string, name string, contentType string, r io.Reader) error {
	w := s.Client.Bucket(bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("writing gs://%s/%s: %w", bucket, name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing gs://%s/%s: %w", bucket, name, err)
	}
	return nil
}

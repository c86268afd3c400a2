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

// This file, `video.go`, defines the VideoService, which stores uploaded videos
// and thumbnails under generated identifiers and produces the URLs clients use
// to reach them.

package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"
	"github.com/h2non/filetype"

	"github.com/jaycherian/gcp-go-label-search/internal/core/model"
)

// sniffLen is the number of leading bytes filetype needs to match any type.
const sniffLen = 262

// ErrSigningUnavailable is returned by SignedVideoURL when no signer is configured.
var ErrSigningUnavailable = errors.New("signed urls are not configured")

// ObjectStore writes objects into buckets. cloud.GCSObjectStore implements it
// on Google Cloud Storage.
type ObjectStore interface {
	Put(ctx context.Context, bucket string, name string, contentType string, r io.Reader) error
}

// VideoService handles the media objects of a video.
type VideoService struct {
	Objects       ObjectStore                       // Destination of uploaded videos and thumbnails.
	StorageClient *storage.Client                   // Used for signing URLs.
	IAMClient     *credentials.IamCredentialsClient // Signs URLs through the IAM Credentials API.
	SignerEmail   string                            // The service account email used to sign URLs.
	Locations     model.MediaLocations              // Buckets and public base URL.
}

// sniff reads the leading bytes of r, detects the MIME type and returns a
// reader replaying the full stream.
func sniff(r io.Reader) (mime string, isVideo bool, isImage bool, replay io.Reader, err error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", false, false, nil, fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]
	kind, _ := filetype.Match(head)
	return kind.MIME.Value, filetype.IsVideo(head), filetype.IsImage(head), io.MultiReader(bytes.NewReader(head), r), nil
}

// UploadVideo stores a video under a freshly generated identifier.
//
// Inputs:
//   - ctx: The context for the request.
//   - r: The video content. It must be recognizable as a video container.
//
// Outputs:
//   - string: The generated video identifier.
//   - error: A validation error when the content is not a video, or a storage error.
func (s *VideoService) UploadVideo(ctx context.Context, r io.Reader) (string, error) {
	mime, isVideo, _, content, err := sniff(r)
	if err != nil {
		return "", err
	}
	if !isVideo {
		return "", model.NewValidationError("uploaded content is not a video")
	}

	videoID, err := model.NewVideoID()
	if err != nil {
		return "", err
	}
	if err := s.Objects.Put(ctx, s.Locations.VideoBucket, model.VideoObjectName(videoID), mime, content); err != nil {
		return "", fmt.Errorf("failed to store video %s: %w", videoID, err)
	}
	slog.InfoContext(ctx, "video uploaded", "video_id", videoID, "mime", mime)
	return videoID, nil
}

// UploadThumbnail stores the thumbnail of an existing video. Storing it in the
// thumbnail bucket triggers label indexing through the bucket notification.
func (s *VideoService) UploadThumbnail(ctx context.Context, videoID string, data []byte) error {
	if err := model.ValidateVideoID(videoID); err != nil {
		return err
	}
	mime, _, isImage, content, err := sniff(bytes.NewReader(data))
	if err != nil {
		return err
	}
	if !isImage {
		return model.NewValidationError("thumbnail is not an image")
	}
	if err := s.Objects.Put(ctx, s.Locations.ThumbnailBucket, model.ThumbnailObjectName(videoID), mime, content); err != nil {
		return fmt.Errorf("failed to store thumbnail for %s: %w", videoID, err)
	}
	slog.InfoContext(ctx, "thumbnail uploaded", "video_id", videoID, "mime", mime)
	return nil
}

// Record returns the derived record of a single video, without labels.
func (s *VideoService) Record(videoID string) (*model.SearchResultRecord, error) {
	if err := model.ValidateVideoID(videoID); err != nil {
		return nil, err
	}
	return model.NewSearchResultRecord(videoID, nil, s.Locations), nil
}

// SignedVideoURL creates a time-limited URL to stream a private video object.
// The URL is signed by the IAM Credentials API on behalf of SignerEmail, so no
// service account key is needed locally.
//
// Inputs:
//   - ctx: The context for the request.
//   - videoID: The identifier of the video.
//   - expires: The duration for which the URL will be valid.
//
// Outputs:
//   - string: The generated signed URL.
//   - error: A validation error for a bad identifier, or a signing error.
func (s *VideoService) SignedVideoURL(ctx context.Context, videoID string, expires time.Duration) (string, error) {
	if err := model.ValidateVideoID(videoID); err != nil {
		return "", err
	}
	if s.StorageClient == nil || s.IAMClient == nil || len(s.SignerEmail) == 0 {
		return "", ErrSigningUnavailable
	}
	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "GET",
		Expires:        time.Now().Add(expires),
		GoogleAccessID: s.SignerEmail,
		SignBytes: func(b []byte) ([]byte, error) {
			resp, err := s.IAMClient.SignBlob(ctx, &credentialspb.SignBlobRequest{
				Name:    fmt.Sprintf("projects/-/serviceAccounts/%s", s.SignerEmail),
				Payload: b,
			})
			if err != nil {
				return nil, fmt.Errorf("IAMClient.SignBlob: %w", err)
			}
			return resp.SignedBlob, nil
		},
	}
	bucket := s.Locations.VideoBucket
	object := model.VideoObjectName(videoID)
	u, err := s.StorageClient.Bucket(bucket).SignedURL(object, opts)
	if err != nil {
		return "", fmt.Errorf("Bucket(%q).SignedURL(%q): %w", bucket, object, err)
	}
	return u, nil
}

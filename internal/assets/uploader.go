// Package assets uploads photo and document content to the blob bucket.
//
// The pipeline is idempotent: destination paths are computed from stable
// identifiers only, uploads use overwrite semantics, and an asset that
// already carries a storage path is never uploaded again. Failures are soft -
// they are logged and reported as an empty path so one bad asset never aborts
// the rest of a batch.
package assets

import (
	"bytes"
	"context"
	"encoding/base64"
	"log"
	"os"
	"path"
	"strings"

	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/blob"
	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/model"
)

// BinaryCache resolves asset IDs to local binary content.
// (nil, nil) means the ID is not cached.
type BinaryCache interface {
	Get(id string) ([]byte, error)
}

// Uploader resolves asset content and pushes it to the blob store.
type Uploader struct {
	blobs  blob.Store
	cache  BinaryCache
	logger *log.Logger
}

// NewUploader creates an Uploader.
// If logger is nil, a default logger writing to stderr is used.
func NewUploader(blobs blob.Store, cache BinaryCache, logger *log.Logger) *Uploader {
	if logger == nil {
		logger = log.New(os.Stderr, "[assets] ", log.LstdFlags)
	}
	return &Uploader{
		blobs:  blobs,
		cache:  cache,
		logger: logger,
	}
}

// Upload ensures the asset's content exists at destPath and returns the
// storage path, or "" when the asset could not be uploaded.
//
// Resolution order:
//  1. If the asset already carries a storage path, return it without any I/O.
//  2. Look the asset ID up in the local binary cache.
//  3. Fall back to the asset's inline-encoded content.
//  4. Neither resolves: log and return "" (soft failure).
//
// Upload failures are likewise soft. The caller records the returned path;
// this function never mutates the asset or any other local state.
func (u *Uploader) Upload(ctx context.Context, destPath string, asset *model.Asset) string {
	if asset == nil {
		return ""
	}
	if asset.StoragePath != "" {
		return asset.StoragePath
	}

	content := u.resolve(asset)
	if content == nil {
		u.logger.Printf("WARNING: no content for asset %s, skipping upload", asset.ID)
		return ""
	}

	contentType := blob.ContentTypeForPath(destPath)
	if err := u.blobs.Upload(ctx, destPath, contentType, bytes.NewReader(content)); err != nil {
		u.logger.Printf("WARNING: failed to upload asset %s to %s: %v", asset.ID, destPath, err)
		return ""
	}

	return destPath
}

// resolve returns the asset's binary content from the cache or the inline
// fallback, or nil if neither is available.
func (u *Uploader) resolve(asset *model.Asset) []byte {
	if u.cache != nil {
		data, err := u.cache.Get(asset.ID)
		if err != nil {
			u.logger.Printf("WARNING: cache lookup failed for asset %s: %v", asset.ID, err)
		} else if data != nil {
			return data
		}
	}

	if asset.InlineData == "" {
		return nil
	}

	// Inline content may arrive as a bare base64 string or a data URI.
	encoded := asset.InlineData
	if i := strings.Index(encoded, ","); i >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		u.logger.Printf("WARNING: failed to decode inline content for asset %s: %v", asset.ID, err)
		return nil
	}
	return data
}

// Destination paths are built from stable identifiers only, so re-running an
// upload with the same inputs always targets the same object.

// CapturePhotoPath is the destination for a scene-capture photo.
func CapturePhotoPath(projectID, captureID, photoID string) string {
	return path.Join("projects", projectID, "captures", captureID, photoID+".jpg")
}

// LookPhotoPath is the destination for a look's master reference photo.
func LookPhotoPath(projectID, lookID, photoID string) string {
	return path.Join("projects", projectID, "looks", lookID, "master", photoID+".jpg")
}

// SchedulePath is the destination for a schedule-day PDF.
func SchedulePath(projectID, entryID string) string {
	return path.Join("projects", projectID, "schedule", entryID+".pdf")
}

// CallSheetPath is the destination for a call-sheet PDF.
func CallSheetPath(projectID, sheetID string) string {
	return path.Join("projects", projectID, "callsheets", sheetID+".pdf")
}

// ScriptPath is the destination for a script PDF.
func ScriptPath(projectID, scriptID string) string {
	return path.Join("projects", projectID, "script", scriptID+".pdf")
}

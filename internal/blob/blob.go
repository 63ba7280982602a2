// Package blob provides the remote blob bucket used for out-of-band binary
// assets: continuity photos and schedule/call-sheet/script PDFs.
package blob

import (
	"context"
	"errors"
	"io"
)

// Store is the write surface the asset upload pipeline needs. Uploads use
// overwrite-allowed semantics: re-uploading to the same path replaces the
// object, which is what makes retries safe.
type Store interface {
	Upload(ctx context.Context, path, contentType string, content io.Reader) error
}

// Disabled is the Store used when no bucket is configured. Every upload
// fails, which the pipeline treats as a soft failure: row data still syncs,
// binary assets wait until storage is configured.
type Disabled struct{}

func (Disabled) Upload(ctx context.Context, path, contentType string, content io.Reader) error {
	return errors.New("blob storage not configured")
}

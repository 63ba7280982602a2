package assets

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/model"
)

// fakeBlobStore records uploads and can be told to fail.
type fakeBlobStore struct {
	uploads map[string][]byte
	fail    bool
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{uploads: make(map[string][]byte)}
}

func (f *fakeBlobStore) Upload(ctx context.Context, path, contentType string, content io.Reader) error {
	if f.fail {
		return errors.New("bucket unavailable")
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	f.uploads[path] = data
	return nil
}

// fakeCache maps asset IDs to content.
type fakeCache struct {
	entries map[string][]byte
	err     error
}

func (f *fakeCache) Get(id string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.entries[id], nil
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestUploadFromCache(t *testing.T) {
	blobs := newFakeBlobStore()
	cache := &fakeCache{entries: map[string][]byte{"photo-1": []byte("jpeg-bytes")}}
	u := NewUploader(blobs, cache, testLogger())

	dest := CapturePhotoPath("proj-1", "cap-1", "photo-1")
	got := u.Upload(context.Background(), dest, &model.Asset{ID: "photo-1"})

	if got != dest {
		t.Fatalf("Upload returned %q, want %q", got, dest)
	}
	if string(blobs.uploads[dest]) != "jpeg-bytes" {
		t.Errorf("uploaded content = %q, want %q", blobs.uploads[dest], "jpeg-bytes")
	}
}

func TestUploadShortCircuitsOnExistingPath(t *testing.T) {
	blobs := newFakeBlobStore()
	u := NewUploader(blobs, &fakeCache{}, testLogger())

	asset := &model.Asset{ID: "photo-1", StoragePath: "projects/p/captures/c/photo-1.jpg"}
	got := u.Upload(context.Background(), "projects/other/dest.jpg", asset)

	if got != asset.StoragePath {
		t.Fatalf("Upload returned %q, want existing path %q", got, asset.StoragePath)
	}
	if len(blobs.uploads) != 0 {
		t.Errorf("expected no network upload, got %d", len(blobs.uploads))
	}
}

func TestUploadIdempotent(t *testing.T) {
	blobs := newFakeBlobStore()
	cache := &fakeCache{entries: map[string][]byte{"photo-1": []byte("x")}}
	u := NewUploader(blobs, cache, testLogger())

	dest := CapturePhotoPath("proj-1", "cap-1", "photo-1")
	first := u.Upload(context.Background(), dest, &model.Asset{ID: "photo-1"})

	// Second call carries the path recorded from the first; it must
	// short-circuit without another upload.
	second := u.Upload(context.Background(), dest, &model.Asset{ID: "photo-1", StoragePath: first})

	if first != second {
		t.Errorf("paths differ across calls: %q vs %q", first, second)
	}
	if len(blobs.uploads) != 1 {
		t.Errorf("expected exactly 1 upload, got %d", len(blobs.uploads))
	}
}

func TestUploadInlineFallback(t *testing.T) {
	blobs := newFakeBlobStore()
	u := NewUploader(blobs, &fakeCache{}, testLogger())

	content := []byte("pdf-bytes")

	tests := []struct {
		name   string
		inline string
	}{
		{name: "bare base64", inline: base64.StdEncoding.EncodeToString(content)},
		{name: "data URI", inline: "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(content)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest := SchedulePath("proj-1", "day-"+tt.name)
			got := u.Upload(context.Background(), dest, &model.Asset{ID: "doc-1", InlineData: tt.inline})
			if got != dest {
				t.Fatalf("Upload returned %q, want %q", got, dest)
			}
			if string(blobs.uploads[dest]) != string(content) {
				t.Errorf("uploaded content = %q, want %q", blobs.uploads[dest], content)
			}
		})
	}
}

func TestUploadSoftFailures(t *testing.T) {
	tests := []struct {
		name  string
		blobs *fakeBlobStore
		cache *fakeCache
		asset *model.Asset
	}{
		{
			name:  "no content anywhere",
			blobs: newFakeBlobStore(),
			cache: &fakeCache{},
			asset: &model.Asset{ID: "missing"},
		},
		{
			name:  "cache error and no inline",
			blobs: newFakeBlobStore(),
			cache: &fakeCache{err: errors.New("disk gone")},
			asset: &model.Asset{ID: "photo-1"},
		},
		{
			name:  "bucket failure",
			blobs: &fakeBlobStore{uploads: map[string][]byte{}, fail: true},
			cache: &fakeCache{entries: map[string][]byte{"photo-1": []byte("x")}},
			asset: &model.Asset{ID: "photo-1"},
		},
		{
			name:  "corrupt inline data",
			blobs: newFakeBlobStore(),
			cache: &fakeCache{},
			asset: &model.Asset{ID: "photo-1", InlineData: "%%%not-base64%%%"},
		},
		{
			name:  "nil asset",
			blobs: newFakeBlobStore(),
			cache: &fakeCache{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := NewUploader(tt.blobs, tt.cache, testLogger())
			if got := u.Upload(context.Background(), "projects/p/x.jpg", tt.asset); got != "" {
				t.Errorf("Upload = %q, want empty path on soft failure", got)
			}
		})
	}
}

func TestDeterministicPaths(t *testing.T) {
	if a, b := CapturePhotoPath("p", "c", "ph"), CapturePhotoPath("p", "c", "ph"); a != b {
		t.Errorf("CapturePhotoPath not deterministic: %q vs %q", a, b)
	}
	if got, want := CapturePhotoPath("p1", "c1", "ph1"), "projects/p1/captures/c1/ph1.jpg"; got != want {
		t.Errorf("CapturePhotoPath = %q, want %q", got, want)
	}
	if got, want := ScriptPath("p1", "s1"), "projects/p1/script/s1.pdf"; got != want {
		t.Errorf("ScriptPath = %q, want %q", got, want)
	}
}

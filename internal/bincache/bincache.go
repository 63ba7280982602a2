// Package bincache is the local binary content cache. Photo and document
// bytes are stored as flat files keyed by asset ID under the data directory;
// the sync engine resolves upload content from here before falling back to an
// asset's inline-encoded representation.
package bincache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Cache is a directory of content files, one per asset ID.
type Cache struct {
	dir string
}

// Open creates the cache directory if needed and returns a Cache over it.
func Open(dir string) (*Cache, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache directory path.
func (c *Cache) Dir() string {
	return c.dir
}

// Get returns the cached content for the given asset ID, or (nil, nil) if the
// ID is not cached. Asset IDs containing path separators are rejected.
func (c *Cache) Get(id string) ([]byte, error) {
	path, err := c.path(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cached content %s: %w", id, err)
	}
	return data, nil
}

// Put stores content under the given asset ID, replacing any existing entry.
func (c *Cache) Put(id string, data []byte) error {
	path, err := c.path(id)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cached content %s: %w", id, err)
	}
	return nil
}

// Has reports whether content for the given asset ID is cached.
func (c *Cache) Has(id string) bool {
	path, err := c.path(id)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

func (c *Cache) path(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("asset id cannot be empty")
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("invalid asset id %q", id)
	}
	return filepath.Join(c.dir, id), nil
}

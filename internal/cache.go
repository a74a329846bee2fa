package internal

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// ErrCacheEmpty is returned by a CacheStore that holds no vectors yet.
var ErrCacheEmpty = errors.New("embedding cache is empty")

// CacheStore persists the vector sequence of a corpus. Position i of the
// stored sequence belongs to corpus position i; nothing else ties them.
type CacheStore interface {
	Load(ctx context.Context) ([][]float32, error)
	Save(ctx context.Context, vectors [][]float32) error
	Close() error
}

var _ CacheStore = (*FileCache)(nil)

// FileCache stores vectors as a zstd-compressed gob stream.
type FileCache struct {
	path string
}

func NewFileCache(path string) *FileCache {
	return &FileCache{path: path}
}

func (c *FileCache) Path() string {
	return c.path
}

func (c *FileCache) Load(_ context.Context) ([][]float32, error) {
	f, err := os.Open(c.path)
	if os.IsNotExist(err) {
		return nil, ErrCacheEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("open cache stream: %w", err)
	}
	defer zr.Close()

	var vectors [][]float32
	if err := gob.NewDecoder(zr).Decode(&vectors); err != nil {
		return nil, fmt.Errorf("decode cache: %w", err)
	}
	return vectors, nil
}

// Save replaces the cache file atomically.
func (c *FileCache) Save(_ context.Context, vectors [][]float32) error {
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".cache-*")
	if err != nil {
		return fmt.Errorf("create temp cache: %w", err)
	}
	defer os.Remove(tmp.Name())

	zw, err := zstd.NewWriter(tmp)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("open cache stream: %w", err)
	}
	if err := gob.NewEncoder(zw).Encode(vectors); err != nil {
		zw.Close()
		tmp.Close()
		return fmt.Errorf("encode cache: %w", err)
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cache: %w", err)
	}

	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("replace cache: %w", err)
	}
	return nil
}

func (c *FileCache) Close() error {
	return nil
}

// ABOUTME: Diskv-backed KV implementation (default local backend)
// ABOUTME: One file per key under the data directory, written atomically via a temp dir

package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/peterbourgon/diskv/v3"
)

// DiskvKV implements KV on top of diskv.
type DiskvKV struct {
	d *diskv.Diskv
}

// NewDiskvKV opens (creating if needed) a diskv store rooted at basePath.
func NewDiskvKV(basePath string) (*DiskvKV, error) {
	if basePath == "" {
		return nil, errors.New("diskv: base path required")
	}
	tmp := filepath.Join(basePath, ".tmp")
	if err := os.MkdirAll(tmp, 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	d := diskv.New(diskv.Options{
		BasePath:     basePath,
		TempDir:      tmp,
		CacheSizeMax: 1024 * 1024, // 1MB
		FilePerm:     0o600,
		PathPerm:     0o700,
	})
	return &DiskvKV{d: d}, nil
}

// Get implements KV.
func (s *DiskvKV) Get(key string) ([]byte, error) {
	val, err := s.d.Read(key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return val, nil
}

// Set implements KV.
func (s *DiskvKV) Set(key string, value []byte) error {
	if err := s.d.Write(key, value); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Delete implements KV.
func (s *DiskvKV) Delete(key string) error {
	if !s.d.Has(key) {
		return nil
	}
	if err := s.d.Erase(key); err != nil {
		return fmt.Errorf("erase %s: %w", key, err)
	}
	return nil
}

// Close implements KV. Diskv holds no open handles.
func (s *DiskvKV) Close() error {
	return nil
}

// Package originals persists uploaded image bytes on disk, one file per
// upload attempt named by upload ID.
package originals

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store writes original image files beneath a media directory.
type Store struct {
	dir string
}

// New returns a Store rooted at dir. The directory must already exist.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the originals directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes data to <dir>/<uploadID><ext> and syncs it to disk before
// returning, so a ledger row never points at a file that could vanish on
// power loss. Returns the absolute path of the stored file.
func (s *Store) Save(uploadID, ext string, data []byte) (string, error) {
	if uploadID == "" {
		return "", fmt.Errorf("upload id is required")
	}
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	path := filepath.Join(s.dir, uploadID+ext)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create original %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write original %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("sync original %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close original %s: %w", path, err)
	}
	return path, nil
}

// Remove deletes a stored original. Missing files are not an error.
func (s *Store) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove original %s: %w", path, err)
	}
	return nil
}

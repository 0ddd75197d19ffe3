package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DiskStore persists blobs as files under a base directory. Each blob is
// written to its own file named by a fresh UUID so concurrent uploads of
// identically named documents never collide.
type DiskStore struct {
	baseDir string
}

// NewDiskStore creates the base directory if needed and returns a store
// writing into it. The directory is resolved to an absolute path so refs
// issued by Store always pass Destroy's containment check, even when the
// configured directory is relative.
func NewDiskStore(baseDir string) (*DiskStore, error) {
	if baseDir == "" {
		baseDir = filepath.Join(os.TempDir(), "pdfchat-uploads")
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve base dir %s: %w", baseDir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create base dir %s: %w", abs, err)
	}
	return &DiskStore{baseDir: abs}, nil
}

// Store writes data to a new file and returns its absolute path.
func (d *DiskStore) Store(_ context.Context, data []byte, filename string) (string, error) {
	ext := filepath.Ext(filename)
	name := uuid.NewString() + ext
	path := filepath.Join(d.baseDir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write %s: %w", path, err)
	}
	return path, nil
}

// Destroy removes the file at ref. A missing file is treated as already
// destroyed. Paths outside the base directory are rejected so a corrupted
// registry entry can never delete unrelated files.
func (d *DiskStore) Destroy(_ context.Context, ref string) error {
	abs, err := filepath.Abs(ref)
	if err != nil {
		return fmt.Errorf("storage: resolve %s: %w", ref, err)
	}
	if !strings.HasPrefix(abs, d.baseDir+string(filepath.Separator)) {
		return fmt.Errorf("storage: ref %s is outside the store directory", ref)
	}

	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: remove %s: %w", abs, err)
	}
	return nil
}

// Ping verifies the base directory is still writable.
func (d *DiskStore) Ping(_ context.Context) error {
	info, err := os.Stat(d.baseDir)
	if err != nil {
		return fmt.Errorf("storage: stat %s: %w", d.baseDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage: %s is not a directory", d.baseDir)
	}
	return nil
}

package vault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"shard-go/internal/shard"
)

// FileSystemVault stores artifacts as files under a root directory:
//
//	<root>/
//	  blobs/
//	    <name>.aes
//	  fragments/
//	    <name>.frg
type FileSystemVault struct {
	name string
	root string
}

var _ shard.Vault = (*FileSystemVault)(nil)

var kinds = []shard.ArtifactKind{shard.KindBlob, shard.KindFragments}

// NewFileSystemVault creates a new filesystem vault rooted at the given path.
func NewFileSystemVault(name, root string) (*FileSystemVault, error) {
	for _, kind := range kinds {
		if err := os.MkdirAll(filepath.Join(root, kind.Dir()), 0700); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", kind.Dir(), err)
		}
	}
	return &FileSystemVault{name: name, root: root}, nil
}

func (v *FileSystemVault) path(kind shard.ArtifactKind, name string) string {
	return filepath.Join(v.root, kind.Dir(), kind.FileName(name))
}

// Put writes the artifact to a temp file and links it into place, so readers
// never see a partial file and an existing artifact is never replaced.
func (v *FileSystemVault) Put(_ context.Context, kind shard.ArtifactKind, name string, r io.Reader, size int64) error {
	destPath := v.path(kind, name)
	if _, err := os.Lstat(destPath); err == nil {
		return fmt.Errorf("%s: %w", kind.FileName(name), shard.ErrExists)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if written != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
	}

	// link(2) fails if destPath exists, unlike rename(2).
	if err := os.Link(tmpPath, destPath); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s: %w", kind.FileName(name), shard.ErrExists)
		}
		return fmt.Errorf("failed to link %s: %w", kind.FileName(name), err)
	}
	return nil
}

// Get writes the artifact to w.
func (v *FileSystemVault) Get(_ context.Context, kind shard.ArtifactKind, name string, w io.Writer) error {
	f, err := os.Open(v.path(kind, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", kind.FileName(name), shard.ErrNotFound)
		}
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	return nil
}

func (v *FileSystemVault) Exists(_ context.Context, kind shard.ArtifactKind, name string) (bool, error) {
	_, err := os.Stat(v.path(kind, name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", kind.FileName(name), err)
}

func (v *FileSystemVault) Delete(_ context.Context, kind shard.ArtifactKind, name string) error {
	if err := os.Remove(v.path(kind, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", kind.FileName(name), err)
	}
	return nil
}

// ValidateSetup verifies that the vault directories are accessible.
func (v *FileSystemVault) ValidateSetup(context.Context) error {
	info, err := os.Stat(v.root)
	if err != nil {
		return fmt.Errorf("vault root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("vault root is not a directory: %s", v.root)
	}

	for _, kind := range kinds {
		dir := filepath.Join(v.root, kind.Dir())
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("vault directory not accessible: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("vault path is not a directory: %s", dir)
		}
	}
	return nil
}

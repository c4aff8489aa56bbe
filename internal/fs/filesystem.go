// Package fs is the real filesystem implementation of shard.FilesystemManager.
package fs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"shard-go/internal/shard"
)

// OSFilesystemManager performs filesystem operations using the os package.
// Files it creates are readable by the owner only.
type OSFilesystemManager struct {
	fileMode fs.FileMode
	dirMode  fs.FileMode
}

var _ shard.FilesystemManager = (*OSFilesystemManager)(nil)

// NewOSFilesystemManager creates a new filesystem manager that operates on the real filesystem.
func NewOSFilesystemManager() *OSFilesystemManager {
	return &OSFilesystemManager{fileMode: 0600, dirMode: 0700}
}

// Resolve validates a raw path and returns a Path object.
func (m *OSFilesystemManager) Resolve(rawPath string) (*shard.Path, error) {
	if rawPath == "" {
		return nil, fmt.Errorf("%w: empty path", shard.ErrValidation)
	}
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", absPath, shard.ErrNotFound)
		}
		return nil, fmt.Errorf("stat path: %w", err)
	}

	mode := info.Mode()
	if mode&os.ModeDevice != 0 {
		return nil, fmt.Errorf("%w: device files not supported: %s", shard.ErrValidation, absPath)
	}
	if mode&os.ModeNamedPipe != 0 {
		return nil, fmt.Errorf("%w: named pipes not supported: %s", shard.ErrValidation, absPath)
	}
	if mode&os.ModeSocket != 0 {
		return nil, fmt.Errorf("%w: sockets not supported: %s", shard.ErrValidation, absPath)
	}

	return shard.NewPath(absPath, info), nil
}

// Open opens a file for reading.
func (m *OSFilesystemManager) Open(path *shard.Path) (io.ReadCloser, error) {
	if path.IsDir() {
		return nil, fmt.Errorf("cannot open directory as file: %s", path)
	}
	return os.Open(path.String())
}

// FindFiles lists the regular files directly under dir whose names end in
// suffix, sorted by name.
func (m *OSFilesystemManager) FindFiles(dir *shard.Path, suffix string) ([]*shard.Path, error) {
	if !dir.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	entries, err := os.ReadDir(dir.String())
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	var paths []*shard.Path
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		paths = append(paths, shard.NewPath(filepath.Join(dir.String(), entry.Name()), info))
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i].String() < paths[j].String() })
	return paths, nil
}

// CreateExclusive creates dir (if needed) and a new file name inside it.
func (m *OSFilesystemManager) CreateExclusive(dir, name string) (io.WriteCloser, string, error) {
	if name == "" || name != filepath.Base(name) {
		return nil, "", fmt.Errorf("%w: invalid file name %q", shard.ErrValidation, name)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, "", fmt.Errorf("resolving absolute path: %w", err)
	}
	if err := os.MkdirAll(absDir, m.dirMode); err != nil {
		return nil, "", fmt.Errorf("creating directory %s: %w", absDir, err)
	}

	path := filepath.Join(absDir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, m.fileMode)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, "", fmt.Errorf("%s: %w", path, shard.ErrExists)
		}
		return nil, "", fmt.Errorf("creating %s: %w", path, err)
	}
	return &syncFile{f}, path, nil
}

// Remove deletes absPath. A missing file is not an error.
func (m *OSFilesystemManager) Remove(absPath string) error {
	if err := os.Remove(absPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", absPath, err)
	}
	return nil
}

// syncFile flushes to disk before closing.
type syncFile struct {
	*os.File
}

func (f *syncFile) Close() error {
	if err := f.File.Sync(); err != nil {
		f.File.Close()
		return fmt.Errorf("syncing %s: %w", f.Name(), err)
	}
	return f.File.Close()
}

package shard

import "io"

// FilesystemManager provides an interface for filesystem operations.
// It abstracts file access to enable testing without touching the real filesystem.
type FilesystemManager interface {
	// Resolve validates a raw path and returns a Path object. A missing path
	// yields an error wrapping ErrNotFound.
	Resolve(rawPath string) (*Path, error)

	// Open opens a file for reading.
	Open(path *Path) (io.ReadCloser, error)

	// FindFiles lists the regular files directly under dir whose names end
	// in suffix, sorted by name.
	FindFiles(dir *Path, suffix string) ([]*Path, error)

	// CreateExclusive creates dir/name, failing with an error wrapping
	// ErrExists if it is already there. Returns the absolute path written.
	CreateExclusive(dir, name string) (io.WriteCloser, string, error)

	// Remove deletes a file previously created with CreateExclusive.
	Remove(absPath string) error
}

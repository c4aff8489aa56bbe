package shard

import (
	"io/fs"
	"path/filepath"
)

// Path is a resolved filesystem path with the stat info taken at resolution.
// Only FilesystemManager.Resolve creates them.
type Path struct {
	absPath string
	info    fs.FileInfo
}

// NewPath creates a Path. Intended for FilesystemManager implementations.
func NewPath(absPath string, info fs.FileInfo) *Path {
	return &Path{absPath: absPath, info: info}
}

// String returns the absolute path.
func (p *Path) String() string {
	return p.absPath
}

// Base returns the last element of the path.
func (p *Path) Base() string {
	return filepath.Base(p.absPath)
}

func (p *Path) IsDir() bool {
	return p.info != nil && p.info.IsDir()
}

// Size returns the size recorded at resolution time.
func (p *Path) Size() int64 {
	if p.info == nil {
		return 0
	}
	return p.info.Size()
}

// Info returns the cached file info.
func (p *Path) Info() fs.FileInfo {
	return p.info
}

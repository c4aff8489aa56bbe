package testutil

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"shard-go/internal/shard"
)

// MockFile represents a file in the mock filesystem.
type MockFile struct {
	Content     []byte
	Permissions fs.FileMode
	ModTime     time.Time
	IsDirectory bool
}

// MockFilesystemManager is an in-memory filesystem for testing. Paths are
// made absolute against the process working directory.
type MockFilesystemManager struct {
	mu    sync.Mutex
	files map[string]*MockFile
}

var _ shard.FilesystemManager = (*MockFilesystemManager)(nil)

// NewMockFilesystemManager creates a new mock filesystem.
func NewMockFilesystemManager() *MockFilesystemManager {
	return &MockFilesystemManager{
		files: make(map[string]*MockFile),
	}
}

func abs(path string) string {
	p, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return p
}

// AddFile adds a file to the mock filesystem.
func (m *MockFilesystemManager) AddFile(path string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[abs(path)] = &MockFile{
		Content:     content,
		Permissions: 0644,
		ModTime:     time.Now(),
	}
}

// AddDirectory adds a directory to the mock filesystem.
func (m *MockFilesystemManager) AddDirectory(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[abs(path)] = &MockFile{
		Permissions: 0755,
		ModTime:     time.Now(),
		IsDirectory: true,
	}
}

// File returns the content stored at path.
func (m *MockFilesystemManager) File(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[abs(path)]
	if !ok || f.IsDirectory {
		return nil, false
	}
	return f.Content, true
}

// Paths returns every file path under dir, sorted.
func (m *MockFilesystemManager) Paths(dir string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := abs(dir) + string(filepath.Separator)
	var out []string
	for p, f := range m.files {
		if !f.IsDirectory && strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

func (m *MockFilesystemManager) Resolve(rawPath string) (*shard.Path, error) {
	if rawPath == "" {
		return nil, fmt.Errorf("%w: empty path", shard.ErrValidation)
	}
	absPath := abs(rawPath)

	m.mu.Lock()
	defer m.mu.Unlock()
	file, ok := m.files[absPath]
	if !ok {
		return nil, fmt.Errorf("%s: %w", absPath, shard.ErrNotFound)
	}
	return shard.NewPath(absPath, newFileInfo(absPath, file)), nil
}

func (m *MockFilesystemManager) Open(path *shard.Path) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	file, ok := m.files[path.String()]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, shard.ErrNotFound)
	}
	if file.IsDirectory {
		return nil, fmt.Errorf("cannot open directory: %s", path)
	}
	return io.NopCloser(bytes.NewReader(file.Content)), nil
}

func (m *MockFilesystemManager) FindFiles(dir *shard.Path, suffix string) ([]*shard.Path, error) {
	if !dir.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var paths []*shard.Path
	for p, f := range m.files {
		if f.IsDirectory || filepath.Dir(p) != dir.String() || !strings.HasSuffix(p, suffix) {
			continue
		}
		paths = append(paths, shard.NewPath(p, newFileInfo(p, f)))
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i].String() < paths[j].String() })
	return paths, nil
}

// CreateExclusive returns a writer whose content is stored when it is closed.
// The name is reserved immediately.
func (m *MockFilesystemManager) CreateExclusive(dir, name string) (io.WriteCloser, string, error) {
	if name == "" || name != filepath.Base(name) {
		return nil, "", fmt.Errorf("%w: invalid file name %q", shard.ErrValidation, name)
	}
	path := filepath.Join(abs(dir), name)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[path]; ok {
		return nil, "", fmt.Errorf("%s: %w", path, shard.ErrExists)
	}
	f := &MockFile{Permissions: 0600, ModTime: time.Now()}
	m.files[path] = f
	return &mockWriter{m: m, file: f}, path, nil
}

func (m *MockFilesystemManager) Remove(absPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, absPath)
	return nil
}

type mockWriter struct {
	m    *MockFilesystemManager
	file *MockFile
	buf  bytes.Buffer
}

func (w *mockWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *mockWriter) Close() error {
	w.m.mu.Lock()
	defer w.m.mu.Unlock()
	w.file.Content = bytes.Clone(w.buf.Bytes())
	return nil
}

// mockFileInfo implements fs.FileInfo
type mockFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
	isDir   bool
}

func newFileInfo(path string, f *MockFile) *mockFileInfo {
	mode := f.Permissions
	if f.IsDirectory {
		mode |= fs.ModeDir
	}
	return &mockFileInfo{
		name:    filepath.Base(path),
		size:    int64(len(f.Content)),
		mode:    mode,
		modTime: f.ModTime,
		isDir:   f.IsDirectory,
	}
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return m.size }
func (m *mockFileInfo) Mode() fs.FileMode  { return m.mode }
func (m *mockFileInfo) ModTime() time.Time { return m.modTime }
func (m *mockFileInfo) IsDir() bool        { return m.isDir }
func (m *mockFileInfo) Sys() any           { return nil }

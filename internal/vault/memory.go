package vault

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"shard-go/internal/shard"
)

// MemoryVault is an in-memory implementation of the Vault interface.
// It is useful for testing and is safe for concurrent use.
type MemoryVault struct {
	name      string
	artifacts map[string][]byte // "kind/name" -> bytes
	mu        sync.RWMutex
}

var _ shard.Vault = (*MemoryVault)(nil)

// NewMemoryVault creates a new in-memory vault with the given name.
func NewMemoryVault(name string) *MemoryVault {
	return &MemoryVault{
		name:      name,
		artifacts: make(map[string][]byte),
	}
}

func artifactKey(kind shard.ArtifactKind, name string) string {
	return string(kind) + "/" + name
}

// Put stores the artifact unless one with the same kind and name exists.
func (m *MemoryVault) Put(_ context.Context, kind shard.ArtifactKind, name string, r io.Reader, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", kind.FileName(name), err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := artifactKey(kind, name)
	if _, ok := m.artifacts[key]; ok {
		return fmt.Errorf("%s: %w", kind.FileName(name), shard.ErrExists)
	}
	m.artifacts[key] = data
	return nil
}

// Get writes the artifact to w.
func (m *MemoryVault) Get(_ context.Context, kind shard.ArtifactKind, name string, w io.Writer) error {
	m.mu.RLock()
	data, ok := m.artifacts[artifactKey(kind, name)]
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%s: %w", kind.FileName(name), shard.ErrNotFound)
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", kind.FileName(name), err)
	}
	return nil
}

func (m *MemoryVault) Exists(_ context.Context, kind shard.ArtifactKind, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.artifacts[artifactKey(kind, name)]
	return ok, nil
}

func (m *MemoryVault) Delete(_ context.Context, kind shard.ArtifactKind, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.artifacts, artifactKey(kind, name))
	return nil
}

// ValidateSetup always succeeds for memory vaults.
func (m *MemoryVault) ValidateSetup(context.Context) error {
	return nil
}

// Len returns the number of stored artifacts.
func (m *MemoryVault) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.artifacts)
}

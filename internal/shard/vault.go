package shard

import (
	"context"
	"io"
)

// ArtifactKind distinguishes the two artifacts a share set produces.
type ArtifactKind string

const (
	KindBlob      ArtifactKind = "blob"
	KindFragments ArtifactKind = "fragments"
)

// Ext returns the file extension used for the kind.
func (k ArtifactKind) Ext() string {
	if k == KindFragments {
		return FragmentsExt
	}
	return BlobExt
}

// Dir returns the directory (or key prefix) the kind is stored under.
func (k ArtifactKind) Dir() string {
	if k == KindFragments {
		return "fragments"
	}
	return "blobs"
}

// FileName returns "<name><ext>".
func (k ArtifactKind) FileName(name string) string {
	return name + k.Ext()
}

// Vault stores encrypted blobs and fragment sets by share-set name.
// Artifacts are written once: Put never replaces an existing artifact.
type Vault interface {
	// Put stores size bytes read from r. Returns an error wrapping ErrExists
	// if the artifact is already present.
	Put(ctx context.Context, kind ArtifactKind, name string, r io.Reader, size int64) error

	// Get writes the artifact to w. Returns an error wrapping ErrNotFound if
	// it is absent.
	Get(ctx context.Context, kind ArtifactKind, name string, w io.Writer) error

	Exists(ctx context.Context, kind ArtifactKind, name string) (bool, error)

	// Delete removes the artifact. Deleting a missing artifact is not an error.
	Delete(ctx context.Context, kind ArtifactKind, name string) error

	// ValidateSetup verifies that the vault is accessible and properly configured.
	ValidateSetup(ctx context.Context) error
}

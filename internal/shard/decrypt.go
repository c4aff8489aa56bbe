package shard

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"path/filepath"

	"shard-go/internal/envelope"
	"shard-go/internal/lagrange"
	"shard-go/internal/poly"
	"shard-go/internal/sss"
)

// DecryptRequest names the two artifacts to combine. RestoreDir defaults to
// the working directory.
type DecryptRequest struct {
	Blob       string
	Fragments  string
	RestoreDir string
}

// DecryptResult describes the restored file.
type DecryptResult struct {
	Name       string
	Path       string
	Size       int64
	SharesUsed int
}

// Decrypt reconstructs the key from the fragment set, decrypts the blob and
// writes the embedded file into the restore directory under its original
// base name. Nothing is written unless every step succeeds. An existing file
// is never overwritten.
func (s *ShardService) Decrypt(ctx context.Context, req DecryptRequest) (*DecryptResult, error) {
	blobName, err := ValidateBlobName(req.Blob)
	if err != nil {
		return nil, err
	}
	fragName, err := ValidateFragmentsName(req.Fragments)
	if err != nil {
		return nil, err
	}

	s.logger.Info("decrypt started", "blob", req.Blob, "fragments", req.Fragments)

	points, err := s.loadFragments(ctx, fragName)
	if err != nil {
		return nil, err
	}
	defer wipePoints(points)

	secret, err := lagrange.Reconstruct(points)
	if err != nil {
		return nil, cryptoErr("reconstructing key", err)
	}
	key, err := keyFromSecret(secret)
	if err != nil {
		return nil, cryptoErr("reconstructing key", err)
	}
	defer key.Destroy()

	var blob bytes.Buffer
	if err := s.vault.Get(ctx, KindBlob, blobName, &blob); err != nil {
		return nil, fmt.Errorf("reading %s: %w", req.Blob, err)
	}

	record, err := s.cipher.Decrypt(key.Bytes(), blob.Bytes())
	if err != nil {
		return nil, cryptoErr("decrypting "+req.Blob, err)
	}
	defer clear(record)

	env, err := envelope.Unmarshal(record)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
	}

	name, err := restoredName(env.Name)
	if err != nil {
		return nil, err
	}

	dir := req.RestoreDir
	if dir == "" {
		dir = "."
	}
	w, outPath, err := s.fsmgr.CreateExclusive(dir, name)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	if _, err := w.Write(env.Content); err != nil {
		w.Close()
		s.removePartial(outPath)
		return nil, fmt.Errorf("writing %s: %w", outPath, err)
	}
	if err := w.Close(); err != nil {
		s.removePartial(outPath)
		return nil, fmt.Errorf("closing %s: %w", outPath, err)
	}

	s.logger.Info("decrypt complete", "file", name, "bytes", len(env.Content), "shares_used", len(points))
	return &DecryptResult{
		Name:       name,
		Path:       outPath,
		Size:       int64(len(env.Content)),
		SharesUsed: len(points),
	}, nil
}

// keyFromSecret converts the reconstructed integer into a key and zeroes the
// integer, on success and on failure.
func keyFromSecret(secret *big.Int) (*sss.Key, error) {
	defer poly.WipeInt(secret)
	return sss.KeyFromInt(secret)
}

// restoredName reduces an embedded name to a plain file name so a crafted
// envelope cannot write outside the restore directory.
func restoredName(embedded string) (string, error) {
	name := filepath.Base(filepath.Clean("/" + filepath.ToSlash(embedded)))
	if name == "" || name == "." || name == ".." || name == "/" || name == string(filepath.Separator) {
		return "", fmt.Errorf("%w: unusable file name %q in envelope", ErrSerialization, embedded)
	}
	return name, nil
}

func (s *ShardService) removePartial(path string) {
	if err := s.fsmgr.Remove(path); err != nil {
		s.logger.Warn("failed to remove partial output", "path", path, "error", err)
	}
}

// Package shard encrypts a file under a password-derived key and splits that
// key into threshold shares, so that the file can later be restored from any
// threshold of them without the password.
package shard

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"shard-go/internal/poly"
	"shard-go/internal/sss"
)

// ShardService is the orchestration layer that coordinates the splitter,
// the cipher and storage to perform the operations needed by the CLI.
type ShardService struct {
	vault    Vault
	cipher   Cipher
	kdf      sss.KDF
	splitter *sss.Splitter
	fsmgr    FilesystemManager
	ledger   Ledger
	logger   Logger
}

// NewShardService creates a new ShardService with the provided dependencies.
// A nil kdf selects SHA-256; a nil splitter draws from crypto/rand.
func NewShardService(vault Vault, cipher Cipher, kdf sss.KDF, splitter *sss.Splitter, fsmgr FilesystemManager, ledger Ledger, logger Logger) *ShardService {
	if kdf == nil {
		kdf = sss.SHA256KDF{}
	}
	if splitter == nil {
		splitter = sss.NewSplitter()
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	return &ShardService{
		vault:    vault,
		cipher:   cipher,
		kdf:      kdf,
		splitter: splitter,
		fsmgr:    fsmgr,
		ledger:   ledger,
		logger:   logger,
	}
}

// History returns the most recent operations, newest first.
func (s *ShardService) History(limit int) ([]*Operation, error) {
	if s.ledger == nil {
		return nil, nil
	}
	ops, err := s.ledger.ListOperations(limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}

// loadFragments fetches and parses the fragment set stored under name.
func (s *ShardService) loadFragments(ctx context.Context, name string) ([]poly.Point, error) {
	var buf bytes.Buffer
	if err := s.vault.Get(ctx, KindFragments, name, &buf); err != nil {
		return nil, fmt.Errorf("reading fragments %s: %w", KindFragments.FileName(name), err)
	}
	points, err := sss.ReadFragments(&buf)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", ErrSerialization, KindFragments.FileName(name), err)
	}
	return points, nil
}

// storeFragments writes points as the fragment set name.
func (s *ShardService) storeFragments(ctx context.Context, name string, points []poly.Point) error {
	var buf bytes.Buffer
	if err := sss.WriteFragments(&buf, points); err != nil {
		return fmt.Errorf("%w: %w", ErrSerialization, err)
	}
	defer clear(buf.Bytes())

	if err := s.vault.Put(ctx, KindFragments, name, bytes.NewReader(buf.Bytes()), int64(buf.Len())); err != nil {
		return fmt.Errorf("storing %s: %w", KindFragments.FileName(name), err)
	}
	return nil
}

// ensureAbsent fails with ErrExists if any of the kinds is already stored
// under name.
func (s *ShardService) ensureAbsent(ctx context.Context, name string, kinds ...ArtifactKind) error {
	for _, kind := range kinds {
		ok, err := s.vault.Exists(ctx, kind, name)
		if err != nil {
			return fmt.Errorf("checking %s: %w", kind.FileName(name), err)
		}
		if ok {
			return fmt.Errorf("%s: %w", kind.FileName(name), ErrExists)
		}
	}
	return nil
}

func wipePoints(points []poly.Point) {
	for _, p := range points {
		poly.WipeInt(p.Y)
	}
}

// cryptoErr tags err as ErrCrypto unless it already carries a category.
func cryptoErr(msg string, err error) error {
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrCrypto) {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrCrypto, msg, err)
}

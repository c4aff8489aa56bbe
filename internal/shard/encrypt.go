package shard

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"shard-go/internal/envelope"
	"shard-go/internal/sss"
)

// EncryptRequest describes one split.
type EncryptRequest struct {
	Plaintext *Path
	ShareSet  string
	Password  []byte
	Shares    int
	Threshold int
}

// EncryptResult describes the artifacts written.
type EncryptResult struct {
	ShareSet      string
	BlobName      string
	FragmentsName string
	Shares        int
	Threshold     int
	PlaintextSize int64
	BlobSize      int64
}

func (r EncryptRequest) validate() error {
	if r.Plaintext == nil {
		return fmt.Errorf("%w: no input file", ErrValidation)
	}
	if r.Plaintext.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrValidation, r.Plaintext)
	}
	if err := ValidateShareSetName(r.ShareSet); err != nil {
		return err
	}
	if err := ValidateThreshold(r.Shares, r.Threshold); err != nil {
		return err
	}
	if r.Threshold > sss.MaxThreshold {
		return fmt.Errorf("%w: threshold must be at most %d, got %d", ErrValidation, sss.MaxThreshold, r.Threshold)
	}
	return ValidatePassword(r.Password)
}

// Encrypt reads the plaintext file, encrypts it under a key derived from the
// password and stores the blob and the key's fragment set. Either both
// artifacts are stored or neither is. The key never leaves this call.
func (s *ShardService) Encrypt(ctx context.Context, req EncryptRequest) (*EncryptResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if err := s.ensureAbsent(ctx, req.ShareSet, KindBlob, KindFragments); err != nil {
		return nil, err
	}

	s.logger.Info("encrypt started", "share_set", req.ShareSet, "shares", req.Shares, "threshold", req.Threshold)

	content, err := s.readPlaintext(req.Plaintext)
	if err != nil {
		return nil, err
	}
	defer clear(content)

	record, err := envelope.Marshal(envelope.Envelope{Name: req.Plaintext.Base(), Content: content})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
	}
	defer clear(record)

	key, err := s.kdf.Derive(req.Password)
	if err != nil {
		return nil, cryptoErr("deriving key", err)
	}
	defer key.Destroy()

	blob, err := s.cipher.Encrypt(key.Bytes(), record)
	if err != nil {
		return nil, cryptoErr("encrypting", err)
	}

	points, err := s.splitter.Split(key, req.Shares, req.Threshold)
	if err != nil {
		return nil, cryptoErr("splitting key", err)
	}
	defer wipePoints(points)

	if err := s.vault.Put(ctx, KindBlob, req.ShareSet, bytes.NewReader(blob), int64(len(blob))); err != nil {
		return nil, fmt.Errorf("storing %s: %w", KindBlob.FileName(req.ShareSet), err)
	}
	if err := s.storeFragments(ctx, req.ShareSet, points); err != nil {
		if derr := s.vault.Delete(ctx, KindBlob, req.ShareSet); derr != nil {
			s.logger.Error("failed to remove orphaned blob", "share_set", req.ShareSet, "error", derr)
		}
		return nil, err
	}

	s.logger.Info("encrypt complete", "share_set", req.ShareSet, "plaintext_bytes", len(content), "blob_bytes", len(blob))
	return &EncryptResult{
		ShareSet:      req.ShareSet,
		BlobName:      KindBlob.FileName(req.ShareSet),
		FragmentsName: KindFragments.FileName(req.ShareSet),
		Shares:        req.Shares,
		Threshold:     req.Threshold,
		PlaintextSize: int64(len(content)),
		BlobSize:      int64(len(blob)),
	}, nil
}

func (s *ShardService) readPlaintext(path *Path) ([]byte, error) {
	f, err := s.fsmgr.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return content, nil
}

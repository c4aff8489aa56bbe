// Package app is the application layer between the CLI and ShardService.
package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"shard-go/internal/config"
	"shard-go/internal/database"
	"shard-go/internal/encryption"
	"shard-go/internal/fs"
	"shard-go/internal/shard"
	"shard-go/internal/sss"
	"shard-go/internal/vault"
)

// ShardApp constructs all dependencies from config, exposes high-level
// operations that accept raw string paths, and records mutating operations in
// the ledger.
type ShardApp struct {
	cfg     *config.Config
	ledger  *database.SQLiteLedger
	vault   shard.Vault
	fsmgr   shard.FilesystemManager
	service *shard.ShardService
	op      *Operation
	logFile *os.File
}

// Options tune how the app is wired.
type Options struct {
	// Verbose copies log records to stderr at debug level.
	Verbose bool
}

// NewShardApp creates a fully wired ShardApp from the given config.
// kind names the command being run (one of the shard.Op* kinds, or "" for
// read-only commands). The caller must call Close when done.
func NewShardApp(ctx context.Context, cfg *config.Config, kind string, opts Options) (*ShardApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	fsmgr := fs.NewOSFilesystemManager()

	v, err := vault.NewVaultFromConfig(ctx, cfg.Vault)
	if err != nil {
		return nil, fmt.Errorf("creating vault: %w", err)
	}
	if err := v.ValidateSetup(ctx); err != nil {
		return nil, fmt.Errorf("vault %s: %w", cfg.Vault.Type, err)
	}

	cipher, err := encryption.NewCipherFromConfig(cfg.Crypto)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	kdf, err := sss.NewKDF(cfg.Crypto.KDF)
	if err != nil {
		return nil, fmt.Errorf("creating kdf: %w", err)
	}

	ledger, err := database.NewLedgerFromConfig(cfg.Database, cfg.HostID, shard.RealClock{}, shard.UUIDGenerator{})
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	if err := ledger.CheckMigrations(); err != nil {
		ledger.Close()
		return nil, fmt.Errorf("ledger schema out of date: %w", err)
	}

	opID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID, opts.Verbose)
	if err != nil {
		ledger.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	svc := shard.NewShardService(v, cipher, kdf, sss.NewSplitter(), fsmgr, ledger, &slogAdapter{l: logger})

	return &ShardApp{
		cfg:     cfg,
		ledger:  ledger,
		vault:   v,
		fsmgr:   fsmgr,
		service: svc,
		op:      NewOperation(kind),
		logFile: logFile,
	}, nil
}

// startOperation records the running operation in the ledger. Only mutating
// commands call it.
func (a *ShardApp) startOperation(shareSet string, params shard.OperationParams) error {
	if a.op.Persisted() || a.op.Kind == "" {
		return nil
	}
	a.op.ShareSet = shareSet
	a.op.Params = params

	op, err := a.ledger.StartOperation(a.op.Kind, shareSet, params)
	if err != nil {
		return fmt.Errorf("recording operation: %w", err)
	}
	a.op.ID = op.ID
	return nil
}

// Encrypt resolves rawPath and splits it into the share set name.
func (a *ShardApp) Encrypt(ctx context.Context, rawPath, name string, password []byte, shares, threshold int) (*shard.EncryptResult, error) {
	if err := a.startOperation(name, shard.OperationParams{Shares: shares, Threshold: threshold}); err != nil {
		return nil, err
	}

	res, err := a.encrypt(ctx, rawPath, name, password, shares, threshold)
	a.op.Record(err)
	return res, err
}

func (a *ShardApp) encrypt(ctx context.Context, rawPath, name string, password []byte, shares, threshold int) (*shard.EncryptResult, error) {
	p, err := a.fsmgr.Resolve(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	return a.service.Encrypt(ctx, shard.EncryptRequest{
		Plaintext: p,
		ShareSet:  name,
		Password:  password,
		Shares:    shares,
		Threshold: threshold,
	})
}

// Decrypt restores the file held by blob using the fragment set frags.
// An empty outDir selects the configured restore directory.
func (a *ShardApp) Decrypt(ctx context.Context, blob, frags, outDir string) (*shard.DecryptResult, error) {
	if err := a.startOperation(shareSetOf(blob, shard.BlobExt), shard.OperationParams{}); err != nil {
		return nil, err
	}
	if outDir == "" {
		outDir = a.cfg.RestoreDir
	}

	res, err := a.service.Decrypt(ctx, shard.DecryptRequest{Blob: blob, Fragments: frags, RestoreDir: outDir})
	a.op.Record(err)
	return res, err
}

// Inspect reports on a stored fragment set.
func (a *ShardApp) Inspect(ctx context.Context, frags string) (*shard.Inspection, error) {
	return a.service.Inspect(ctx, frags)
}

// ExportShares seals each share of frags for its custodian into outDir.
func (a *ShardApp) ExportShares(ctx context.Context, frags string, sealer shard.ShareSealer, outDir string) ([]string, error) {
	if err := a.startOperation(shareSetOf(frags, shard.FragmentsExt), shard.OperationParams{}); err != nil {
		return nil, err
	}

	files, err := a.service.ExportShares(ctx, frags, sealer, outDir)
	a.op.Record(err)
	if err == nil {
		a.op.Params.Shares = len(files)
	}
	return files, err
}

// CollectShares stores the shares sealed in files as the fragment set name.
func (a *ShardApp) CollectShares(ctx context.Context, name string, files []string, opener shard.ShareOpener) (*shard.CollectResult, error) {
	if err := a.startOperation(name, shard.OperationParams{}); err != nil {
		return nil, err
	}

	res, err := a.service.CollectShares(ctx, name, files, opener)
	a.op.Record(err)
	if err == nil {
		a.op.Params.Shares = res.Shares
	}
	return res, err
}

// History returns the most recent operations, newest first.
func (a *ShardApp) History(limit int) ([]*shard.Operation, error) {
	return a.service.History(limit)
}

// Close finishes the operation record and closes all resources.
func (a *ShardApp) Close() error {
	var firstErr error

	if a.op.Persisted() {
		if err := a.ledger.FinishOperation(a.op.ID, a.op.Status, a.op.Error, a.op.Params); err != nil {
			firstErr = fmt.Errorf("finishing operation: %w", err)
		}
	}

	if err := a.ledger.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing ledger: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}

// shareSetOf strips ext from an artifact name for the ledger. Invalid names
// are kept as given; the service rejects them.
func shareSetOf(artifact, ext string) string {
	return strings.TrimSuffix(artifact, ext)
}

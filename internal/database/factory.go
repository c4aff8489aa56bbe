package database

import (
	"fmt"
	"os"
	"path/filepath"

	"shard-go/internal/config"
	"shard-go/internal/shard"
)

// NewLedgerFromConfig opens the ledger selected by cfg.Type and brings its
// schema up to date. The sqlite ledger lives at <data_dir>/<hostID>.db.
func NewLedgerFromConfig(cfg config.DatabaseConfig, hostID string, clock shard.Clock, idgen shard.IDGenerator) (*SQLiteLedger, error) {
	var path string
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return nil, fmt.Errorf("creating data_dir: %w", err)
		}
		path = filepath.Join(cfg.DataDir, hostID+".db")
	case "memory":
		path = ":memory:"
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}

	l, err := NewSQLiteLedger(path, clock, idgen)
	if err != nil {
		return nil, err
	}
	if err := l.Migrate(); err != nil {
		l.Close()
		return nil, err
	}
	return l, nil
}

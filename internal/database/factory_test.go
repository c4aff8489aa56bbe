package database

import (
	"os"
	"path/filepath"
	"testing"

	"shard-go/internal/config"
)

func TestNewLedgerFromConfig(t *testing.T) {
	t.Run("memory database", func(t *testing.T) {
		cfg := config.DatabaseConfig{Type: "memory"}
		got, err := NewLedgerFromConfig(cfg, "test-host-123", nil, nil)
		if err != nil {
			t.Fatalf("NewLedgerFromConfig() unexpected error: %v", err)
		}
		defer got.Close()

		if err := got.CheckMigrations(); err != nil {
			t.Errorf("memory ledger not migrated: %v", err)
		}
	})

	t.Run("sqlite database", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "db")
		cfg := config.DatabaseConfig{Type: "sqlite", DataDir: dir}
		got, err := NewLedgerFromConfig(cfg, "test-host-123", nil, nil)
		if err != nil {
			t.Fatalf("NewLedgerFromConfig() unexpected error: %v", err)
		}
		defer got.Close()

		if _, err := os.Stat(filepath.Join(dir, "test-host-123.db")); err != nil {
			t.Errorf("database file not created: %v", err)
		}
		if err := got.CheckMigrations(); err != nil {
			t.Errorf("sqlite ledger not migrated: %v", err)
		}
	})

	t.Run("sqlite database without data_dir", func(t *testing.T) {
		cfg := config.DatabaseConfig{Type: "sqlite"}
		got, err := NewLedgerFromConfig(cfg, "test-host-123", nil, nil)
		if err == nil {
			t.Error("NewLedgerFromConfig() expected error for missing data_dir, got nil")
		}
		if got != nil {
			t.Error("NewLedgerFromConfig() should return nil on error")
			got.Close()
		}
	})

	t.Run("unknown database type", func(t *testing.T) {
		cfg := config.DatabaseConfig{Type: "unknown"}
		got, err := NewLedgerFromConfig(cfg, "test-host-123", nil, nil)
		if err == nil {
			t.Error("NewLedgerFromConfig() expected error for unknown type, got nil")
		}
		if got != nil {
			t.Error("NewLedgerFromConfig() should return nil on error")
			got.Close()
		}
	})
}

package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Defaults holds the paths used when no config file says otherwise.
type Defaults struct {
	ConfigPath string
	BaseDir    string
}

// LoadDefaults resolves the default paths. SHARD_CONFIG_PATH overrides the
// config file location (~/.config/shard.toml) and SHARD_HOME overrides the
// data directory (~/.local/share/shard).
func LoadDefaults() (*Defaults, error) {
	configPath, err := envOrHome("SHARD_CONFIG_PATH", ".config", "shard.toml")
	if err != nil {
		return nil, err
	}
	baseDir, err := envOrHome("SHARD_HOME", ".local", "share", "shard")
	if err != nil {
		return nil, err
	}
	return &Defaults{ConfigPath: configPath, BaseDir: baseDir}, nil
}

func envOrHome(env string, rel ...string) (string, error) {
	if v := os.Getenv(env); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%s unset and no home directory: %w", env, err)
	}
	return filepath.Join(append([]string{home}, rel...)...), nil
}

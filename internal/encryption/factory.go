package encryption

import (
	"fmt"

	"shard-go/internal/config"
	"shard-go/internal/shard"
)

// NewCipherFromConfig creates a Cipher based on the configured cipher name.
func NewCipherFromConfig(cfg config.CryptoConfig) (shard.Cipher, error) {
	switch cfg.Cipher {
	case "aes-256-cbc", "":
		return NewAESCBC(), nil
	default:
		return nil, fmt.Errorf("unknown cipher: %q", cfg.Cipher)
	}
}

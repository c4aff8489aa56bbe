package testutil

import (
	"io"
	"math/rand/v2"

	"shard-go/internal/encryption"
	"shard-go/internal/sss"
)

// NewDeterministicReader returns a reproducible byte stream for seed. It must
// never be used outside tests.
func NewDeterministicReader(seed byte) io.Reader {
	var s [32]byte
	s[0] = seed
	return rand.NewChaCha8(s)
}

// NewTestSplitter creates a Splitter whose coefficients are reproducible.
func NewTestSplitter(seed byte) *sss.Splitter {
	return &sss.Splitter{Rand: NewDeterministicReader(seed)}
}

// NewTestCipher creates an AES-256-CBC cipher with reproducible IVs.
func NewTestCipher(seed byte) *encryption.AESCBC {
	return &encryption.AESCBC{Rand: NewDeterministicReader(seed)}
}

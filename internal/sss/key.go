package sss

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"math/big"

	"golang.org/x/crypto/argon2"
)

// KeySize is the length of a derived key in bytes.
const KeySize = 32

// Key is 256 bits of key material. It is owned by a single operation and must
// be destroyed when that operation ends.
type Key struct {
	b []byte
}

// DeriveKey returns SHA-256(password).
func DeriveKey(password []byte) *Key {
	sum := sha256.Sum256(password)
	k := &Key{b: make([]byte, KeySize)}
	copy(k.b, sum[:])
	clear(sum[:])
	return k
}

// NewKey copies b into a Key.
func NewKey(b []byte) (*Key, error) {
	if len(b) != KeySize {
		return nil, fmt.Errorf("got %d bytes: %w", len(b), ErrInvalidKey)
	}
	k := &Key{b: make([]byte, KeySize)}
	copy(k.b, b)
	return k, nil
}

// KeyFromInt encodes v as a 32-byte big-endian key.
func KeyFromInt(v *big.Int) (*Key, error) {
	if v.Sign() < 0 || v.BitLen() > KeySize*8 {
		return nil, ErrKeyOutOfRange
	}
	k := &Key{b: make([]byte, KeySize)}
	v.FillBytes(k.b)
	return k, nil
}

// Bytes returns the key material. The slice is zeroed by Destroy and must not
// be retained.
func (k *Key) Bytes() []byte {
	return k.b
}

// Int returns the key as a non-negative big-endian integer.
func (k *Key) Int() *big.Int {
	return new(big.Int).SetBytes(k.b)
}

// Destroy zeroes the key material.
func (k *Key) Destroy() {
	clear(k.b)
}

// KDF turns a password into a Key.
type KDF interface {
	Derive(password []byte) (*Key, error)
	Name() string
}

// SHA256KDF is the default KDF: a single SHA-256 of the password.
type SHA256KDF struct{}

func (SHA256KDF) Derive(password []byte) (*Key, error) {
	return DeriveKey(password), nil
}

func (SHA256KDF) Name() string { return "sha256" }

const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonSaltLen = 16
)

// Argon2idKDF stretches the password with Argon2id under a fresh random salt.
// The salt is discarded: the key is recovered from shares, never re-derived.
type Argon2idKDF struct {
	Rand io.Reader
}

func (a Argon2idKDF) Derive(password []byte) (*Key, error) {
	r := a.Rand
	if r == nil {
		r = rand.Reader
	}
	salt := make([]byte, argonSaltLen)
	if _, err := io.ReadFull(r, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return &Key{b: argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, KeySize)}, nil
}

func (Argon2idKDF) Name() string { return "argon2id" }

// NewKDF returns the KDF registered under name. An empty name selects SHA-256.
func NewKDF(name string) (KDF, error) {
	switch name {
	case "", "sha256":
		return SHA256KDF{}, nil
	case "argon2id":
		return Argon2idKDF{}, nil
	default:
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownKDF)
	}
}

package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"shard-go/internal/shard"
)

const keySize = 32

var (
	ErrInvalidKeySize   = errors.New("AES-256 key must be 32 bytes")
	ErrCiphertextLength = errors.New("ciphertext is not a whole number of blocks")
	ErrInvalidPadding   = errors.New("invalid PKCS#7 padding")
)

// AESCBC encrypts with AES-256-CBC and PKCS#7 padding. The output is the
// random IV followed by the ciphertext. There is no authentication tag.
type AESCBC struct {
	// Rand supplies IVs. Defaults to crypto/rand.Reader.
	Rand io.Reader
}

var _ shard.Cipher = (*AESCBC)(nil)

func NewAESCBC() *AESCBC {
	return &AESCBC{Rand: rand.Reader}
}

// Encrypt returns iv || CBC(PKCS7(plaintext)).
func (c *AESCBC) Encrypt(key, plaintext []byte) ([]byte, error) {
	block, err := newBlock(key)
	if err != nil {
		return nil, err
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	defer clear(padded)

	out := make([]byte, aes.BlockSize+len(padded))
	iv := out[:aes.BlockSize]
	r := c.Rand
	if r == nil {
		r = rand.Reader
	}
	if _, err := io.ReadFull(r, iv); err != nil {
		return nil, fmt.Errorf("generating IV: %w", err)
	}

	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[aes.BlockSize:], padded)
	return out, nil
}

// Decrypt reverses Encrypt. A wrong key is only detected through the padding
// check, which a random block passes with probability about 1/256.
func (c *AESCBC) Decrypt(key, blob []byte) ([]byte, error) {
	block, err := newBlock(key)
	if err != nil {
		return nil, err
	}
	if len(blob) < 2*aes.BlockSize || len(blob)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%d bytes: %w", len(blob), ErrCiphertextLength)
	}

	iv, ct := blob[:aes.BlockSize], blob[aes.BlockSize:]
	plain := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ct)

	out, err := pkcs7Unpad(plain, aes.BlockSize)
	if err != nil {
		clear(plain)
		return nil, err
	}
	return out, nil
}

func newBlock(key []byte) (cipher.Block, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("got %d bytes: %w", len(key), ErrInvalidKeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	return block, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	out := make([]byte, len(data)+n)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(n)
	}
	return out
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, ErrInvalidPadding
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, ErrInvalidPadding
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, ErrInvalidPadding
		}
	}
	return data[:len(data)-n], nil
}

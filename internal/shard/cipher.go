package shard

// Cipher is the symmetric primitive applied to the serialized envelope.
type Cipher interface {
	// Encrypt returns a self-contained blob (IV included).
	Encrypt(key, plaintext []byte) ([]byte, error)

	// Decrypt reverses Encrypt. A wrong key surfaces as a padding error.
	Decrypt(key, blob []byte) ([]byte, error)
}

package shard

import "errors"

// Error categories. Lower layers keep their own sentinels; the service wraps
// them with one of these so callers can branch on either.
var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("not found")
	ErrCrypto        = errors.New("cryptographic failure")
	ErrSerialization = errors.New("serialization failure")
	ErrExists        = errors.New("already exists")
)

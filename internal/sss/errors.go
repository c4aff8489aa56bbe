package sss

import "errors"

var (
	ErrInvalidThreshold  = errors.New("threshold must be between 2 and 20")
	ErrInvalidCount      = errors.New("invalid share count")
	ErrInvalidKey        = errors.New("key must be 32 bytes")
	ErrKeyOutOfRange     = errors.New("value does not fit in a 256-bit key")
	ErrMalformedFragment = errors.New("malformed fragment")
	ErrUnknownKDF        = errors.New("unknown key derivation function")
	ErrRandomness        = errors.New("random source produced no usable coefficient")
)

package shard

import (
	"io"

	"shard-go/internal/poly"
)

// ShareSealer encrypts a single share for its custodian.
type ShareSealer interface {
	Seal(p poly.Point, w io.Writer) error
}

// ShareOpener recovers a share sealed by a ShareSealer.
type ShareOpener interface {
	Open(r io.Reader) (poly.Point, error)
}
